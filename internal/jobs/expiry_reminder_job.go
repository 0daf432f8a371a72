package jobs

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/devasol/dlms-backend/internal/models"
	"github.com/devasol/dlms-backend/internal/services/notification"
)

// ReminderWindow is how far ahead of expiry owners are warned
const ReminderWindow = 30 * 24 * time.Hour

// ExpiryReminderJob notifies license owners whose licenses expire soon.
// It never mutates license status; expiry stays a derived state.
type ExpiryReminderJob struct {
	db       *gorm.DB
	notifier *notification.NotificationService
}

// NewExpiryReminderJob creates a new expiry reminder job
func NewExpiryReminderJob(db *gorm.DB, notifier *notification.NotificationService) *ExpiryReminderJob {
	return &ExpiryReminderJob{db: db, notifier: notifier}
}

// Run sends at most one reminder per license per day
func (j *ExpiryReminderJob) Run() {
	now := time.Now()
	cutoff := now.Add(ReminderWindow)

	var licenses []models.License
	err := j.db.Where("expiry_date > ? AND expiry_date <= ?", now, cutoff).Find(&licenses).Error
	if err != nil {
		log.Error().Err(err).Msg("expiry reminder: failed to list expiring licenses")
		return
	}

	sent := 0
	for _, l := range licenses {
		if j.remindedToday(l.UserID, now) {
			continue
		}

		if err := j.notifier.Notify(l.UserID, models.NotificationTypeExpiryReminder,
			"License expiring soon",
			fmt.Sprintf("License %s expires on %s. Submit a renewal request to keep it valid.",
				l.Number, l.ExpiryDate.Format("2 January 2006")),
		); err != nil {
			log.Error().Err(err).Str("license", l.Number).Msg("expiry reminder: failed to notify")
			continue
		}
		sent++
	}

	log.Info().Int("expiring", len(licenses)).Int("sent", sent).Msg("expiry reminder run complete")
}

func (j *ExpiryReminderJob) remindedToday(userID uuid.UUID, now time.Time) bool {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var count int64
	err := j.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ? AND created_at >= ?", userID, models.NotificationTypeExpiryReminder, dayStart).
		Count(&count).Error
	if err != nil {
		log.Error().Err(err).Msg("expiry reminder: failed to check previous reminders")
		return true
	}

	return count > 0
}
