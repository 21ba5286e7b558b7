package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"tasktrack/internal/models"

	"gorm.io/gorm"
)

// TaskReminderHandler logs a reminder when a task's due date arrives. The
// task may have been completed or deleted since the job was scheduled; both
// are treated as "nothing to remind about".
func TaskReminderHandler(db *gorm.DB) JobHandler {
	return func(ctx context.Context, job *Job) error {
		taskID, _ := job.Payload["task_id"].(string)
		if taskID == "" {
			return fmt.Errorf("reminder job %s has no task_id", job.ID)
		}

		var task models.Task
		err := db.WithContext(ctx).First(&task, "id = ?", taskID).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		if task.Status == "completed" {
			return nil
		}

		log.Printf("reminder: task %s (%q) for user %s is due", task.TaskID, task.Title, task.UserID)
		return nil
	}
}

// TokenCleanupHandler deletes refresh tokens past their expiry.
func TokenCleanupHandler(db *gorm.DB) JobHandler {
	return func(ctx context.Context, job *Job) error {
		result := db.WithContext(ctx).
			Where("expires_at < ?", time.Now()).
			Delete(&models.Token{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			log.Printf("token cleanup removed %d expired refresh tokens", result.RowsAffected)
		}
		return nil
	}
}
