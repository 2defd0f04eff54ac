package adapters

import (
	"context"
	"sync"

	ports "github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/ports"
	"golang.org/x/sync/semaphore"
)

// TurnLock serializes prompt turns. Waiters are served in arrival order and
// give up when their context is done.
type TurnLock struct {
	sem *semaphore.Weighted
}

// NewTurnLock creates an unheld lock. Every orchestrator sharing one history
// must share one lock.
func NewTurnLock() *TurnLock {
	return &TurnLock{sem: semaphore.NewWeighted(1)}
}

// Acquire blocks until the lock is held. The returned release is idempotent.
func (l *TurnLock) Acquire(ctx context.Context) (release func(), err error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() {
		once.Do(func() { l.sem.Release(1) })
	}, nil
}

var _ ports.TurnLock = (*TurnLock)(nil)
