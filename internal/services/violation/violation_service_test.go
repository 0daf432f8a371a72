package violation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/devasol/dlms-backend/internal/apperrors"
	"github.com/devasol/dlms-backend/internal/config"
	"github.com/devasol/dlms-backend/internal/models"
	"github.com/devasol/dlms-backend/internal/services/license"
	"github.com/devasol/dlms-backend/internal/services/notification"
	"github.com/devasol/dlms-backend/internal/testutil"
)

func newTestService(t *testing.T) (*ViolationService, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	return NewViolationService(db, notification.NewNotificationService(db)), db
}

func issueLicense(t *testing.T, db *gorm.DB) (*models.License, uuid.UUID) {
	t.Helper()
	user := models.User{
		FullName:     "Selam Tesfaye",
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleCitizen,
	}
	require.NoError(t, db.Create(&user).Error)

	cfg := config.LicenseConfig{
		ValidityYears: 5,
		MaxPoints:     12,
		NumberPrefix:  "ETH",
	}
	issued, err := license.NewLicenseService(db, cfg).Issue(user.ID, uuid.New(), nil)
	require.NoError(t, err)
	return issued, user.ID
}

func TestCapPoints(t *testing.T) {
	tests := []struct {
		name    string
		current int
		add     int
		max     int
		want    int
	}{
		{"well under the cap", 0, 5, 12, 5},
		{"accumulates", 5, 4, 12, 9},
		{"lands exactly on the cap", 8, 4, 12, 12},
		{"overshoot is clamped", 8, 8, 12, 12},
		{"already at the cap", 12, 3, 12, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CapPoints(tt.current, tt.add, tt.max))
		})
	}
}

func TestRecordByLicenseNumber(t *testing.T) {
	svc, db := newTestService(t)
	issued, _ := issueLicense(t, db)

	result, err := svc.Record(RecordInput{
		LicenseNumber: issued.Number,
		Type:          "speeding",
		Points:        5,
		Description:   "42 km/h over the limit",
		Location:      "Bole Road, Addis Ababa",
		RecordedBy:    uuid.New(),
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.License.Points)
	assert.Equal(t, models.LicenseStatusValid, result.License.Status)
	assert.False(t, result.Suspended)
	assert.Equal(t, issued.ID, result.Violation.LicenseID)
	assert.False(t, result.Violation.Date.IsZero())
}

func TestRecordByUserID(t *testing.T) {
	svc, db := newTestService(t)
	_, userID := issueLicense(t, db)

	result, err := svc.Record(RecordInput{
		UserID:     &userID,
		Type:       "red_light",
		Points:     3,
		RecordedBy: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.License.Points)
}

func TestRecordSuspendsAtThreshold(t *testing.T) {
	svc, db := newTestService(t)
	issued, userID := issueLicense(t, db)
	officer := uuid.New()

	first, err := svc.Record(RecordInput{
		LicenseNumber: issued.Number,
		Type:          "speeding",
		Points:        5,
		RecordedBy:    officer,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, first.License.Points)
	assert.False(t, first.Suspended)

	// 5 + 8 would be 13; the total is capped at 12 and the cap suspends
	second, err := svc.Record(RecordInput{
		LicenseNumber: issued.Number,
		Type:          "reckless_driving",
		Points:        8,
		RecordedBy:    officer,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, second.License.Points)
	assert.Equal(t, models.LicenseStatusSuspended, second.License.Status)
	assert.True(t, second.Suspended)

	var suspension models.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?", userID, models.NotificationTypeSuspension).First(&suspension).Error)
}

func TestRecordAgainstSuspendedLicense(t *testing.T) {
	svc, db := newTestService(t)
	issued, _ := issueLicense(t, db)

	_, err := svc.Record(RecordInput{
		LicenseNumber: issued.Number,
		Type:          "reckless_driving",
		Points:        12,
		RecordedBy:    uuid.New(),
	})
	require.NoError(t, err)

	// Violations still append but the suspension already happened
	result, err := svc.Record(RecordInput{
		LicenseNumber: issued.Number,
		Type:          "speeding",
		Points:        4,
		RecordedBy:    uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, 12, result.License.Points)
	assert.Equal(t, models.LicenseStatusSuspended, result.License.Status)
	assert.False(t, result.Suspended)

	var count int64
	require.NoError(t, db.Model(&models.Violation{}).Where("license_id = ?", issued.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestRecordValidation(t *testing.T) {
	svc, db := newTestService(t)
	issued, _ := issueLicense(t, db)

	tests := []struct {
		name  string
		input RecordInput
	}{
		{"missing type", RecordInput{LicenseNumber: issued.Number, Points: 3}},
		{"zero points", RecordInput{LicenseNumber: issued.Number, Type: "speeding", Points: 0}},
		{"negative points", RecordInput{LicenseNumber: issued.Number, Type: "speeding", Points: -2}},
		{"no locator", RecordInput{Type: "speeding", Points: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Record(tt.input)
			require.Error(t, err)
			var validationErr *apperrors.ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestRecordUnknownLicense(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Record(RecordInput{
		LicenseNumber: "ETH-2026-999999",
		Type:          "speeding",
		Points:        3,
		RecordedBy:    uuid.New(),
	})
	assert.ErrorIs(t, err, apperrors.ErrLicenseNotFound)
}

func TestRecordKeepsExplicitDate(t *testing.T) {
	svc, db := newTestService(t)
	issued, _ := issueLicense(t, db)

	when := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	result, err := svc.Record(RecordInput{
		LicenseNumber: issued.Number,
		Type:          "illegal_parking",
		Points:        1,
		Date:          when,
		RecordedBy:    uuid.New(),
	})
	require.NoError(t, err)
	assert.True(t, result.Violation.Date.Equal(when))
}
