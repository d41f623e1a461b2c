package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/d9705996/tasksync/internal/model"
)

// MemoryStore is an in-process Store for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	counter uint64
	users   []model.User
	tasks   []model.Task

	// InsertErr, when set, fails every InsertTask.
	InsertErr error
}

func NewMemoryStore(users ...model.User) *MemoryStore {
	s := &MemoryStore{}
	for _, u := range users {
		_ = s.CreateUser(context.Background(), &u)
	}
	return s
}

func (s *MemoryStore) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = s.nextID("usr")
	}
	s.users = append(s.users, *u)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) nextID(prefix string) string {
	n := atomic.AddUint64(&s.counter, 1)
	return fmt.Sprintf("%s-%06d", prefix, n)
}

func (s *MemoryStore) Users(_ context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.users), nil
}

func (s *MemoryStore) TaskExists(_ context.Context, taskID, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.ContainsFunc(s.tasks, func(t model.Task) bool {
		return t.TaskID == taskID && t.UserID == userID
	}), nil
}

func (s *MemoryStore) InsertTask(_ context.Context, t *model.Task) error {
	if s.InsertErr != nil {
		return s.InsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = s.nextID("tsk")
	}
	t.CreatedAt = time.Now().UTC()
	s.tasks = append(s.tasks, *t)
	return nil
}

// Tasks returns a copy of every inserted row.
func (s *MemoryStore) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tasks)
}
