package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/aeroclubnz/aeroclub-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.MemberAccount{},
		&models.AircraftType{},
		&models.Aircraft{},
		&models.AircraftRate{},
		&models.AircraftTechLog{},
		&models.FlightType{},
		&models.Lesson{},
		&models.Booking{},
		&models.BookingFlightTimes{},
		&models.Chargeable{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.Payment{},
		&models.Transaction{},
		&models.DeviceToken{},
	))

	return db
}

// testAuth stands in for the JWT middleware and stamps the request with a
// known identity
func testAuth(userID, orgID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Set("organizationId", orgID)
		c.Set("role", role)
		c.Next()
	}
}

func performJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// clubFixture is the minimal club needed to fly: one member, one aircraft
// with a dual rate, and current tech log readings
type clubFixture struct {
	Org        models.Organization
	Member     models.User
	Aircraft   models.Aircraft
	FlightType models.FlightType
	Rate       models.AircraftRate
	Booking    models.Booking
}

func seedClub(t *testing.T, db *gorm.DB) clubFixture {
	t.Helper()

	org := models.Organization{Name: "Harbour Aero Club", TaxRate: 0.15}
	require.NoError(t, db.Create(&org).Error)

	member := models.User{
		Name:           "Alex Pilot",
		Email:          "alex@example.com",
		PasswordHash:   "x",
		Role:           models.UserRoleMember,
		MemberNumber:   "M-1001",
		OrganizationID: org.ID,
	}
	require.NoError(t, db.Create(&member).Error)
	require.NoError(t, db.Create(&models.MemberAccount{UserID: member.ID, Balance: 500}).Error)

	aircraftType := models.AircraftType{Model: "C172"}
	require.NoError(t, db.Create(&aircraftType).Error)

	aircraft := models.Aircraft{
		Registration:   "ZK-ABC",
		AircraftTypeID: aircraftType.ID,
		OrganizationID: org.ID,
		RecordTacho:    true,
	}
	require.NoError(t, db.Create(&aircraft).Error)

	flightType := models.FlightType{Name: "Dual Instruction", OrganizationID: org.ID}
	require.NoError(t, db.Create(&flightType).Error)

	rate := models.AircraftRate{
		AircraftID:     aircraft.ID,
		FlightTypeID:   flightType.ID,
		OrganizationID: org.ID,
		Rate:           150.0,
	}
	require.NoError(t, db.Create(&rate).Error)

	require.NoError(t, db.Create(&models.AircraftTechLog{
		AircraftID:   aircraft.ID,
		CurrentTacho: 100.0,
		CurrentHobbs: 200.0,
	}).Error)

	booking := models.Booking{
		Status:         models.BookingStatusFlying,
		AircraftID:     aircraft.ID,
		FlightTypeID:   flightType.ID,
		UserID:         &member.ID,
		OrganizationID: org.ID,
	}
	require.NoError(t, db.Create(&booking).Error)

	return clubFixture{
		Org:        org,
		Member:     member,
		Aircraft:   aircraft,
		FlightType: flightType,
		Rate:       rate,
		Booking:    booking,
	}
}
