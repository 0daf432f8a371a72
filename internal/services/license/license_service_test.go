package license

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/devasol/dlms-backend/internal/apperrors"
	"github.com/devasol/dlms-backend/internal/config"
	"github.com/devasol/dlms-backend/internal/models"
	"github.com/devasol/dlms-backend/internal/testutil"
)

func newTestService(t *testing.T) (*LicenseService, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	cfg := config.LicenseConfig{
		FeeAmount:     500,
		FeeCurrency:   "ETB",
		ValidityYears: 5,
		MaxPoints:     12,
		NumberPrefix:  "ETH",
	}
	return NewLicenseService(db, cfg), db
}

func createCitizen(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	user := models.User{
		FullName:     "Tigist Haile",
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleCitizen,
	}
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}

func TestIssue(t *testing.T) {
	svc, db := newTestService(t)
	userID := createCitizen(t, db)
	adminID := uuid.New()

	before := time.Now()
	license, err := svc.Issue(userID, adminID, nil)
	require.NoError(t, err)

	assert.Equal(t, userID, license.UserID)
	assert.Equal(t, fmt.Sprintf("ETH-%d-000001", time.Now().Year()), license.Number)
	assert.Equal(t, "B", license.Class)
	assert.Equal(t, models.LicenseStatusValid, license.Status)
	assert.Equal(t, 0, license.Points)
	assert.Equal(t, 12, license.MaxPoints)
	require.NotNil(t, license.IssuedBy)
	assert.Equal(t, adminID, *license.IssuedBy)

	// Expiry is exactly five calendar years after issuance
	wantExpiry := license.IssueDate.AddDate(5, 0, 0)
	assert.WithinDuration(t, wantExpiry, license.ExpiryDate, time.Second)
	assert.True(t, license.IssueDate.After(before) || license.IssueDate.Equal(before))
}

func TestIssueSequentialNumbers(t *testing.T) {
	svc, db := newTestService(t)
	adminID := uuid.New()

	first, err := svc.Issue(createCitizen(t, db), adminID, nil)
	require.NoError(t, err)
	second, err := svc.Issue(createCitizen(t, db), adminID, nil)
	require.NoError(t, err)
	third, err := svc.Issue(createCitizen(t, db), adminID, nil)
	require.NoError(t, err)

	year := time.Now().Year()
	assert.Equal(t, FormatNumber("ETH", year, 1), first.Number)
	assert.Equal(t, FormatNumber("ETH", year, 2), second.Number)
	assert.Equal(t, FormatNumber("ETH", year, 3), third.Number)
}

func TestIssueTwiceConflicts(t *testing.T) {
	svc, db := newTestService(t)
	userID := createCitizen(t, db)
	adminID := uuid.New()

	first, err := svc.Issue(userID, adminID, nil)
	require.NoError(t, err)

	_, err = svc.Issue(userID, adminID, nil)
	require.Error(t, err)

	var conflict *apperrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	existing, ok := conflict.Record.(models.License)
	require.True(t, ok)
	assert.Equal(t, first.Number, existing.Number)

	// The failed second attempt must not burn a sequence number
	var counter models.LicenseCounter
	require.NoError(t, db.First(&counter, "year = ?", time.Now().Year()).Error)
	assert.Equal(t, int64(1), counter.Seq)
}

func TestIssueConcurrently(t *testing.T) {
	svc, db := newTestService(t)
	userID := createCitizen(t, db)
	adminID := uuid.New()

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Issue(userID, adminID, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	issued := 0
	conflicts := 0
	for err := range errs {
		if err == nil {
			issued++
			continue
		}
		var conflict *apperrors.ConflictError
		require.ErrorAs(t, err, &conflict)
		conflicts++
	}

	// Exactly one winner; every loser sees the conflict
	assert.Equal(t, 1, issued)
	assert.Equal(t, attempts-1, conflicts)

	var count int64
	require.NoError(t, db.Model(&models.License{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// Losing attempts must not advance the counter
	var counter models.LicenseCounter
	require.NoError(t, db.First(&counter, "year = ?", time.Now().Year()).Error)
	assert.Equal(t, int64(1), counter.Seq)
}

func TestIssueConcurrentlyForDistinctUsers(t *testing.T) {
	svc, db := newTestService(t)
	adminID := uuid.New()

	const users = 6
	userIDs := make([]uuid.UUID, users)
	for i := range userIDs {
		userIDs[i] = createCitizen(t, db)
	}

	numbers := make(chan string, users)
	var wg sync.WaitGroup
	for _, userID := range userIDs {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			license, err := svc.Issue(id, adminID, nil)
			if err == nil {
				numbers <- license.Number
			}
		}(userID)
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for number := range numbers {
		assert.False(t, seen[number], "duplicate license number %s", number)
		seen[number] = true
	}
	assert.Len(t, seen, users)

	// The counter advanced once per issued license, monotonically
	var counter models.LicenseCounter
	require.NoError(t, db.First(&counter, "year = ?", time.Now().Year()).Error)
	assert.Equal(t, int64(users), counter.Seq)
}

func TestRenewTx(t *testing.T) {
	svc, db := newTestService(t)
	userID := createCitizen(t, db)

	license, err := svc.Issue(userID, uuid.New(), nil)
	require.NoError(t, err)

	license.Status = models.LicenseStatusSuspended
	license.Points = 12
	require.NoError(t, db.Save(license).Error)

	oldNumber := license.Number
	now := time.Now()
	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.RenewTx(tx, license, now)
	})
	require.NoError(t, err)

	assert.NotEqual(t, oldNumber, license.Number)
	assert.Equal(t, models.LicenseStatusValid, license.Status)
	assert.Equal(t, 0, license.Points)
	assert.WithinDuration(t, now.AddDate(5, 0, 0), license.ExpiryDate, time.Second)

	// Renewal mutates the row in place: still exactly one license for the user
	var count int64
	require.NoError(t, db.Model(&models.License{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetByNumber(t *testing.T) {
	svc, db := newTestService(t)
	userID := createCitizen(t, db)

	issued, err := svc.Issue(userID, uuid.New(), nil)
	require.NoError(t, err)

	found, err := svc.GetByNumber(issued.Number)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, found.ID)

	_, err = svc.GetByNumber("ETH-2026-999999")
	assert.ErrorIs(t, err, apperrors.ErrLicenseNotFound)
}

func TestGetByUserIDNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GetByUserID(uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrLicenseNotFound)
}

func TestViolationsForUser(t *testing.T) {
	svc, db := newTestService(t)
	userID := createCitizen(t, db)

	license, err := svc.Issue(userID, uuid.New(), nil)
	require.NoError(t, err)

	for i, points := range []int{2, 4} {
		v := models.Violation{
			LicenseID:  license.ID,
			Type:       "speeding",
			Points:     points,
			Date:       time.Now().AddDate(0, 0, -i),
			RecordedBy: uuid.New(),
		}
		require.NoError(t, db.Create(&v).Error)
	}
	license.Points = 6
	require.NoError(t, db.Save(license).Error)

	violations, total, err := svc.ViolationsForUser(userID)
	require.NoError(t, err)
	assert.Len(t, violations, 2)
	assert.Equal(t, 6, total)
	// Newest first
	assert.Equal(t, 2, violations[0].Points)
}
