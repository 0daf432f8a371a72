package jobs

import (
	"time"

	"github.com/go-co-op/gocron"
	"gorm.io/gorm"

	"github.com/devasol/dlms-backend/internal/services/notification"
)

// ScheduleRecurringJobs registers all recurring jobs and starts the
// scheduler in the background
func ScheduleRecurringJobs(db *gorm.DB) (*gocron.Scheduler, error) {
	scheduler := gocron.NewScheduler(time.UTC)

	expiryJob := NewExpiryReminderJob(db, notification.NewNotificationService(db))
	if _, err := scheduler.Every(1).Day().At("07:00").Do(expiryJob.Run); err != nil {
		return nil, err
	}

	scheduler.StartAsync()
	return scheduler, nil
}
