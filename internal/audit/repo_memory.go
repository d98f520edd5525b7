package audit

import (
	"context"
	"sync"
)

// MemoryRepo keeps events in process memory, newest last.
// The console owns a single session, so its history fits in memory; limit bounds it anyway.
type MemoryRepo struct {
	mu     sync.Mutex
	limit  int
	events []Event
}

// NewMemoryRepo keeps at most limit events, dropping the oldest. limit <= 0 keeps everything.
func NewMemoryRepo(limit int) *MemoryRepo { return &MemoryRepo{limit: limit} }

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if r.limit > 0 && len(r.events) > r.limit {
		r.events = append(r.events[:0:0], r.events[len(r.events)-r.limit:]...)
	}
	return nil
}

// Recent returns up to n events, newest first. n <= 0 returns all of them.
func (r *MemoryRepo) Recent(ctx context.Context, n int) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n <= 0 || n > len(r.events) {
		n = len(r.events)
	}
	out := make([]Event, 0, n)
	for i := len(r.events) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.events[i])
	}
	return out, nil
}

func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
