package harnessports

import "context"

// TurnLock grants exclusive access to the shared history for one turn.
type TurnLock interface {
	// Acquire blocks until the lock is held or ctx is done. The returned
	// release func is safe to call more than once.
	Acquire(ctx context.Context) (release func(), err error)
}
