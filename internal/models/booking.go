package models

import (
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusUnconfirmed BookingStatus = "unconfirmed"
	BookingStatusConfirmed   BookingStatus = "confirmed"
	BookingStatusFlying      BookingStatus = "flying"
	BookingStatusComplete    BookingStatus = "complete"
	BookingStatusCancelled   BookingStatus = "cancelled"
)

// FlightType categorizes a booking (solo, dual instruction, ...) and selects
// the applicable aircraft rate.
type FlightType struct {
	gorm.Model
	Name           string `json:"name" gorm:"not null"`
	OrganizationID uint   `json:"organizationId" gorm:"not null;index"`
}

// TableName specifies the table name
func (FlightType) TableName() string {
	return "flight_types"
}

type Lesson struct {
	gorm.Model
	Name           string `json:"name" gorm:"not null"`
	OrganizationID uint   `json:"organizationId" gorm:"not null;index"`
}

// TableName specifies the table name
func (Lesson) TableName() string {
	return "lessons"
}

// Booking status moves one way: confirmed -> flying -> complete. Check-out
// sets flying, check-in sets complete and attaches the flight times record.
type Booking struct {
	gorm.Model
	Status               BookingStatus       `json:"status" gorm:"not null;default:'unconfirmed'"`
	AircraftID           uint                `json:"aircraftId" gorm:"not null;index"`
	Aircraft             *Aircraft           `json:"aircraft,omitempty" gorm:"foreignKey:AircraftID"`
	FlightTypeID         uint                `json:"flightTypeId" gorm:"not null"`
	FlightType           *FlightType         `json:"flightType,omitempty" gorm:"foreignKey:FlightTypeID"`
	UserID               *uint               `json:"userId" gorm:"index"`
	User                 *User               `json:"user,omitempty" gorm:"foreignKey:UserID"`
	InstructorID         *uint               `json:"instructorId"`
	Instructor           *User               `json:"instructor,omitempty" gorm:"foreignKey:InstructorID"`
	LessonID             *uint               `json:"lessonId"`
	Lesson               *Lesson             `json:"lesson,omitempty" gorm:"foreignKey:LessonID"`
	OrganizationID       uint                `json:"organizationId" gorm:"not null;index"`
	Description          string              `json:"description"`
	BookingFlightTimesID *uint               `json:"bookingFlightTimesId"`
	BookingFlightTimes   *BookingFlightTimes `json:"bookingFlightTimes,omitempty" gorm:"foreignKey:BookingFlightTimesID"`
}

// TableName specifies the table name
func (Booking) TableName() string {
	return "bookings"
}

// BookingFlightTimes is created once at check-in and never updated.
// FlightTime is the billed hours.
type BookingFlightTimes struct {
	gorm.Model
	StartTacho float64 `json:"startTacho" gorm:"not null"`
	EndTacho   float64 `json:"endTacho" gorm:"not null"`
	StartHobbs float64 `json:"startHobbs" gorm:"not null"`
	EndHobbs   float64 `json:"endHobbs" gorm:"not null"`
	FlightTime float64 `json:"flightTime" gorm:"not null"`
}

// TableName specifies the table name
func (BookingFlightTimes) TableName() string {
	return "booking_flight_times"
}
