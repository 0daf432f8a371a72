package renewal

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
	"github.com/devasol/dlms-backend/internal/utils"
)

const testPassword = "correct-horse-battery"

func newTestService(t *testing.T) (*RenewalService, *license.LicenseService, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	cfg := config.LicenseConfig{
		ValidityYears: 5,
		MaxPoints:     12,
		NumberPrefix:  "ETH",
	}
	licenseSvc := license.NewLicenseService(db, cfg)
	svc := NewRenewalService(db, licenseSvc, notification.NewNotificationService(db))
	return svc, licenseSvc, db
}

func createLicensedUser(t *testing.T, db *gorm.DB, licenseSvc *license.LicenseService) (*models.User, *models.License) {
	t.Helper()
	hash, err := utils.HashPassword(testPassword)
	require.NoError(t, err)

	user := models.User{
		FullName:     "Hanna Girma",
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: hash,
		Role:         models.RoleCitizen,
	}
	require.NoError(t, db.Create(&user).Error)

	issued, err := licenseSvc.Issue(user.ID, uuid.New(), nil)
	require.NoError(t, err)
	return &user, issued
}

func TestSubmit(t *testing.T) {
	svc, licenseSvc, db := newTestService(t)
	user, issued := createLicensedUser(t, db, licenseSvc)

	renewal, err := svc.Submit(user.Email, testPassword, models.RenewalReasonExpiring, "uploads/renewals/doc.pdf")
	require.NoError(t, err)

	assert.Equal(t, models.RenewalStatusPending, renewal.Status)
	assert.Equal(t, user.ID, renewal.UserID)
	assert.Equal(t, issued.ID, renewal.LicenseID)
	assert.Equal(t, models.RenewalReasonExpiring, renewal.Reason)
	assert.True(t, renewal.Open())
}

func TestSubmitWrongPassword(t *testing.T) {
	svc, licenseSvc, db := newTestService(t)
	user, _ := createLicensedUser(t, db, licenseSvc)

	_, err := svc.Submit(user.Email, "not-the-password", models.RenewalReasonExpiring, "uploads/renewals/doc.pdf")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestSubmitUnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Submit("nobody@example.com", testPassword, models.RenewalReasonExpiring, "uploads/renewals/doc.pdf")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestSubmitWithoutLicense(t *testing.T) {
	svc, _, db := newTestService(t)

	hash, err := utils.HashPassword(testPassword)
	require.NoError(t, err)
	user := models.User{
		FullName:     "No License Yet",
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: hash,
		Role:         models.RoleCitizen,
	}
	require.NoError(t, db.Create(&user).Error)

	_, err = svc.Submit(user.Email, testPassword, models.RenewalReasonLost, "uploads/renewals/doc.pdf")
	assert.ErrorIs(t, err, apperrors.ErrLicenseNotFound)
}

func TestSubmitInvalidReason(t *testing.T) {
	svc, licenseSvc, db := newTestService(t)
	user, _ := createLicensedUser(t, db, licenseSvc)

	_, err := svc.Submit(user.Email, testPassword, models.RenewalReason("stolen_by_hyena"), "uploads/renewals/doc.pdf")
	require.Error(t, err)
	var validationErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestSubmitWhileOpenRequestExists(t *testing.T) {
	svc, licenseSvc, db := newTestService(t)
	user, _ := createLicensedUser(t, db, licenseSvc)

	_, err := svc.Submit(user.Email, testPassword, models.RenewalReasonDamaged, "uploads/renewals/doc.pdf")
	require.NoError(t, err)

	_, err = svc.Submit(user.Email, testPassword, models.RenewalReasonDamaged, "uploads/renewals/doc2.pdf")
	require.Error(t, err)
	var conflict *apperrors.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestReview(t *testing.T) {
	svc, licenseSvc, db := newTestService(t)
	user, _ := createLicensedUser(t, db, licenseSvc)

	submitted, err := svc.Submit(user.Email, testPassword, models.RenewalReasonExpiring, "uploads/renewals/doc.pdf")
	require.NoError(t, err)

	adminID := uuid.New()
	reviewed, err := svc.Review(submitted.ID, adminID, models.RenewalStatusUnderReview, "checking document")
	require.NoError(t, err)
	assert.Equal(t, models.RenewalStatusUnderReview, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, adminID, *reviewed.ReviewedBy)
}

func TestReviewRejection(t *testing.T) {
	svc, licenseSvc, db := newTestService(t)
	user, _ := createLicensedUser(t, db, licenseSvc)

	submitted, err := svc.Submit(user.Email, testPassword, models.RenewalReasonDamaged, "uploads/renewals/doc.pdf")
	require.NoError(t, err)

	rejected, err := svc.Review(submitted.ID, uuid.New(), models.RenewalStatusRejected, "document illegible")
	require.NoError(t, err)
	assert.Equal(t, models.RenewalStatusRejected, rejected.Status)
	assert.False(t, rejected.Open())

	var notif models.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?", user.ID, models.NotificationTypeRenewal).First(&notif).Error)

	// A closed request no longer blocks a new submission
	_, err = svc.Submit(user.Email, testPassword, models.RenewalReasonDamaged, "uploads/renewals/doc2.pdf")
	require.NoError(t, err)
}

func TestReviewDisallowsApprovedStatus(t *testing.T) {
	svc, licenseSvc, db := newTestService(t)
	user, _ := createLicensedUser(t, db, licenseSvc)

	submitted, err := svc.Submit(user.Email, testPassword, models.RenewalReasonExpiring, "uploads/renewals/doc.pdf")
	require.NoError(t, err)

	// Approval has its own path; Review only moves to under_review or rejected
	_, err = svc.Review(submitted.ID, uuid.New(), models.RenewalStatusApproved, "")
	require.Error(t, err)
	var validationErr *apperrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestApprove(t *testing.T) {
	svc, licenseSvc, db := newTestService(t)
	user, issued := createLicensedUser(t, db, licenseSvc)

	// Suspended with a full point balance; approval wipes the slate
	issued.Status = models.LicenseStatusSuspended
	issued.Points = 12
	require.NoError(t, db.Save(issued).Error)

	submitted, err := svc.Submit(user.Email, testPassword, models.RenewalReasonExpired, "uploads/renewals/doc.pdf")
	require.NoError(t, err)

	adminID := uuid.New()
	approved, renewed, err := svc.Approve(submitted.ID, adminID)
	require.NoError(t, err)

	assert.Equal(t, models.RenewalStatusApproved, approved.Status)
	assert.True(t, approved.NewLicenseIssued)
	assert.Equal(t, renewed.Number, approved.NewLicenseNumber)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, adminID, *approved.ReviewedBy)

	assert.NotEqual(t, issued.Number, renewed.Number)
	assert.Equal(t, models.LicenseStatusValid, renewed.Status)
	assert.Equal(t, 0, renewed.Points)
	assert.WithinDuration(t, time.Now().AddDate(5, 0, 0), renewed.ExpiryDate, time.Minute)

	// Same row, reissued in place
	assert.Equal(t, issued.ID, renewed.ID)
}

func TestApproveTwiceConflicts(t *testing.T) {
	svc, licenseSvc, db := newTestService(t)
	user, _ := createLicensedUser(t, db, licenseSvc)

	submitted, err := svc.Submit(user.Email, testPassword, models.RenewalReasonExpiring, "uploads/renewals/doc.pdf")
	require.NoError(t, err)

	_, _, err = svc.Approve(submitted.ID, uuid.New())
	require.NoError(t, err)

	_, _, err = svc.Approve(submitted.ID, uuid.New())
	require.Error(t, err)
	var conflict *apperrors.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestApproveUnknownRenewal(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, _, err := svc.Approve(uuid.New(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrRenewalNotFound)
}

func TestListByStatus(t *testing.T) {
	svc, licenseSvc, db := newTestService(t)

	for i := 0; i < 2; i++ {
		user, _ := createLicensedUser(t, db, licenseSvc)
		_, err := svc.Submit(user.Email, testPassword, models.RenewalReasonExpiring, "uploads/renewals/doc.pdf")
		require.NoError(t, err)
	}

	pending, count, err := svc.ListByStatus(models.RenewalStatusPending, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Len(t, pending, 2)

	all, count, err := svc.ListByStatus("", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Len(t, all, 2)
}
