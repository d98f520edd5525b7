package session

import (
	"context"
	"errors"
	"sync"

	"schoolpay/internal/rbac"
)

func teacher() User {
	school := int64(3)
	name := "Accra Academy"
	return User{
		ID:           42,
		Email:        "ama@school.test",
		Phone:        "233000000001",
		FirstName:    "Ama",
		LastName:     "Mensah",
		UserType:     rbac.Teacher,
		LoginEnabled: true,
		SchoolID:     &school,
		SchoolName:   &name,
		Roles:        []string{"TEACHER"},
		Permissions:  []rbac.Permission{rbac.StudentView},
	}
}

type failingStore struct {
	mu    sync.Mutex
	fail  bool
	saved [][]byte
}

func (s *failingStore) Load(ctx context.Context) ([]byte, error) { return nil, ErrNotFound }

func (s *failingStore) Save(ctx context.Context, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("disk full")
	}
	s.saved = append(s.saved, payload)
	return nil
}
