package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid"
)

type User struct {
	ID       uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Username string    `json:"username" gorm:"unique;not null"`
	Email    string    `json:"email" gorm:"unique;not null"`
	Password string    `json:"-" gorm:"not null"`

	// Name is the display name task identifiers derive their initials from.
	Name string `json:"name" gorm:"not null"`

	// LastTaskIDNbr is the next sequence number handed out when this user
	// creates a task. Monotonically non-decreasing.
	LastTaskIDNbr int  `json:"lastTaskIdNbr" gorm:"column:last_task_id_nbr;not null;default:0"`
	IsActive      bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tasks []Task `json:"tasks,omitempty" gorm:"foreignKey:UserID"`
}

// Initials returns the first rune of each space-separated word of the display
// name, concatenated: "Jane Doe" -> "JD".
func (u *User) Initials() string {
	var b strings.Builder
	for _, word := range strings.Fields(u.Name) {
		r := []rune(word)
		b.WriteRune(r[0])
	}
	return b.String()
}

// NextTaskID is the task identifier Create would mint for this user right now.
func (u *User) NextTaskID() string {
	return u.Initials() + "-" + strconv.Itoa(u.LastTaskIDNbr)
}
