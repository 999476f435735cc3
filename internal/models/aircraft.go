package models

import (
	"time"

	"gorm.io/gorm"
)

type AircraftType struct {
	// gorm.Model fields inlined because the embedded name collides with Model.
	ID        uint           `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
	Model     string         `json:"model" gorm:"not null"`
}

// TableName specifies the table name
func (AircraftType) TableName() string {
	return "aircraft_types"
}

// Aircraft represents a club aircraft. RecordTacho and RecordHobbs select
// which instrument drives billing; exactly one is expected to be set.
type Aircraft struct {
	gorm.Model
	Registration   string         `json:"registration" gorm:"not null"`
	AircraftTypeID uint           `json:"aircraftTypeId" gorm:"not null"`
	AircraftType   *AircraftType  `json:"aircraftType,omitempty" gorm:"foreignKey:AircraftTypeID"`
	OrganizationID uint           `json:"organizationId" gorm:"not null;index"`
	RecordTacho    bool           `json:"recordTacho" gorm:"not null;default:false"`
	RecordHobbs    bool           `json:"recordHobbs" gorm:"not null;default:false"`
	Rates          []AircraftRate `json:"rates,omitempty" gorm:"foreignKey:AircraftID"`
}

// TableName specifies the table name
func (Aircraft) TableName() string {
	return "aircraft"
}

// AircraftRate is a per-hour billing rate for one flight type on one aircraft.
type AircraftRate struct {
	gorm.Model
	AircraftID     uint        `json:"aircraftId" gorm:"not null;index"`
	FlightTypeID   uint        `json:"flightTypeId" gorm:"not null"`
	FlightType     *FlightType `json:"flightType,omitempty" gorm:"foreignKey:FlightTypeID"`
	OrganizationID uint        `json:"organizationId" gorm:"not null;index"`
	Rate           float64     `json:"rate" gorm:"not null"`
}

// TableName specifies the table name
func (AircraftRate) TableName() string {
	return "aircraft_rates"
}

// AircraftTechLog is one row of instrument readings. The latest row per
// aircraft is the current reading and becomes the start value at check-in.
type AircraftTechLog struct {
	gorm.Model
	AircraftID   uint    `json:"aircraftId" gorm:"not null;index"`
	CurrentTacho float64 `json:"currentTacho" gorm:"not null"`
	CurrentHobbs float64 `json:"currentHobbs" gorm:"not null"`
}

// TableName specifies the table name
func (AircraftTechLog) TableName() string {
	return "aircraft_tech_logs"
}
