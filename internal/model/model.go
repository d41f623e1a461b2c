// Package model contains GORM model definitions shared across packages.
// All models are driver-agnostic: they work with both PostgreSQL and SQLite.
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a registered account whose LMS tasks are synchronised. The
// password is stored in clear because it is replayed to the LMS token
// endpoint on every run.
type User struct {
	ID                  string    `gorm:"type:text;primaryKey"`
	ItslearningUsername string    `gorm:"column:itslearning_username;type:text;not null"`
	ItslearningPassword string    `gorm:"column:itslearning_password;type:text;not null"`
	Organisation        string    `gorm:"type:text;not null"`
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

// BeforeCreate generates a UUID primary key if not set.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// Task is one LMS task persisted for a user. UserID is the LMS PersonId,
// not User.ID. The (task_id, user_id) index is not unique.
type Task struct {
	ID        string    `gorm:"type:text;primaryKey"`
	TaskID    int64     `gorm:"not null;index:idx_tasks_task_user,priority:1"`
	UserID    int64     `gorm:"not null;index:idx_tasks_task_user,priority:2"`
	Name      string    `gorm:"type:text;not null"`
	Course    string    `gorm:"type:text;not null;default:''"`
	Deadline  string    `gorm:"type:text;not null;default:''"`
	CreatedAt time.Time `gorm:"not null"`
}

// BeforeCreate generates a UUID primary key if not set.
func (t *Task) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}
