package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// Task is one to-do record owned by a single user. ID is the store primary
// key; TaskID is the human-readable per-user sequence identifier ("JD-3")
// minted at creation and immutable afterwards.
type Task struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	TaskID      string    `json:"taskId" gorm:"column:task_id;not null"`
	UserID      uuid.UUID `json:"userId" gorm:"type:uuid;not null"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description" gorm:"not null"`
	Category    string    `json:"category" gorm:"not null"`
	DueDate     time.Time `json:"dueDate" gorm:"column:due_date;not null"`
	Status      string    `json:"status" gorm:"not null;default:'todo'"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
