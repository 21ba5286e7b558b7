package models_test

import (
	"testing"
	"time"

	"tasktrack/internal/models"

	"github.com/gofrs/uuid"
)

func TestUser_Initials(t *testing.T) {
	tests := []struct {
		name     string
		display  string
		expected string
	}{
		{name: "two words", display: "Jane Doe", expected: "JD"},
		{name: "single word", display: "Cher", expected: "C"},
		{name: "three words", display: "Mary Jane Watson", expected: "MJW"},
		{name: "extra spaces", display: "  Jane   Doe  ", expected: "JD"},
		{name: "lowercase", display: "jane doe", expected: "jd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := models.User{Name: tt.display}
			if got := user.Initials(); got != tt.expected {
				t.Errorf("Expected initials %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestUser_NextTaskID(t *testing.T) {
	user := models.User{Name: "Jane Doe", LastTaskIDNbr: 3}
	if got := user.NextTaskID(); got != "JD-3" {
		t.Errorf("Expected JD-3, got %q", got)
	}
}

func TestTask_Fields(t *testing.T) {
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	task := models.Task{
		ID:          uuid.Must(uuid.NewV4()),
		TaskID:      "JD-3",
		UserID:      uuid.Must(uuid.NewV4()),
		Title:       "Buy milk",
		Description: "2%",
		Category:    "shopping",
		DueDate:     due,
		Status:      "todo",
	}

	if task.TaskID != "JD-3" {
		t.Errorf("Expected taskId JD-3, got %q", task.TaskID)
	}
	if task.Category != "shopping" {
		t.Errorf("Expected category shopping, got %q", task.Category)
	}
	if !task.DueDate.Equal(due) {
		t.Errorf("Expected due date %v, got %v", due, task.DueDate)
	}
}

func TestToken_Expiry(t *testing.T) {
	token := models.Token{
		ID:           uuid.Must(uuid.NewV4()),
		UserID:       uuid.Must(uuid.NewV4()),
		RefreshToken: uuid.Must(uuid.NewV4()),
		ExpiresAt:    time.Now().Add(24 * time.Hour),
	}

	if !token.ExpiresAt.After(time.Now()) {
		t.Error("Expected token to expire in the future")
	}
}
