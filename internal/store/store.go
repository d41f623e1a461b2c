// Package store persists the users and tasks collections the sync driver
// reads and writes.
package store

import (
	"context"

	"github.com/d9705996/tasksync/internal/model"
)

// Store is the backing store of a sync run.
type Store interface {
	// Users returns every registered user.
	Users(ctx context.Context) ([]model.User, error)
	// TaskExists reports whether a task row with taskID and userID exists.
	TaskExists(ctx context.Context, taskID, userID int64) (bool, error)
	// InsertTask writes a new task row. It does not check for duplicates.
	InsertTask(ctx context.Context, t *model.Task) error

	Close() error
}
