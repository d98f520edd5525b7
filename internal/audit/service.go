package audit

import (
	"context"
	"errors"
	"time"

	"schoolpay/pkg/logger"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
// It is append-only; there are no Update or Delete methods.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records session events.
//
// Callers treat audit as best-effort: Record logs failures instead of returning them,
// so a broken repository never blocks signing in or out.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if !e.Type.Valid() {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// Record appends e and logs instead of failing.
func (s *Service) Record(ctx context.Context, e Event) {
	if s == nil {
		return
	}
	if err := s.Append(ctx, e); err != nil {
		logger.From(ctx).Warn("audit append failed", "type", e.Type, "err", err)
	}
}

func (s *Service) LogLogin(ctx context.Context, userID, userType string, mustChangePassword bool) {
	msg := "signed in"
	if mustChangePassword {
		msg = "signed in, password change required"
	}
	s.Record(ctx, Event{Type: EventTypeLogin, UserID: userID, UserType: userType, Message: msg})
}

func (s *Service) LogLogout(ctx context.Context, userID, userType string) {
	s.Record(ctx, Event{Type: EventTypeLogout, UserID: userID, UserType: userType, Message: "signed out"})
}

// LogSessionEnded records a forced sign-out after credentials could not be renewed.
func (s *Service) LogSessionEnded(ctx context.Context, cause error) {
	e := Event{Type: EventTypeSessionEnded, Message: "credentials could not be renewed"}
	if cause != nil {
		e.Message += ": " + cause.Error()
	}
	s.Record(ctx, e)
}

func (s *Service) LogPasswordChanged(ctx context.Context, userID, userType string) {
	s.Record(ctx, Event{Type: EventTypePasswordChanged, UserID: userID, UserType: userType, Message: "password changed"})
}
