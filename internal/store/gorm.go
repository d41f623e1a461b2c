package store

import (
	"context"
	"fmt"

	"github.com/d9705996/tasksync/internal/model"
	"gorm.io/gorm"
)

// GormStore implements Store on a gorm connection opened by db.New.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

func (s *GormStore) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *GormStore) TaskExists(ctx context.Context, taskID, userID int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&model.Task{}).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("look up task %d for user %d: %w", taskID, userID, err)
	}
	return n > 0, nil
}

func (s *GormStore) InsertTask(ctx context.Context, t *model.Task) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("insert task %d for user %d: %w", t.TaskID, t.UserID, err)
	}
	return nil
}

// CreateUser registers a user. It is used by operators and tests; the sync
// driver never writes users.
func (s *GormStore) CreateUser(ctx context.Context, u *model.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	return sqlDB.Close()
}
