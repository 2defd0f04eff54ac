package harness

import (
	"sync"

	"github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/adapters"
	ports "github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/ports"
)

// CancelToken is a caller-owned stop signal for one turn. Cancel may be
// called from any goroutine, any number of times, before or after the
// stream it guards has started or finished.
type CancelToken struct {
	once sync.Once
	done chan struct{}
}

// NewCancelToken returns an unset token.
func NewCancelToken() *CancelToken {
	return &CancelToken{done: make(chan struct{})}
}

// Cancel sets the token.
func (t *CancelToken) Cancel() {
	t.once.Do(func() { close(t.done) })
}

// Done is closed once the token is set.
func (t *CancelToken) Done() <-chan struct{} {
	return t.done
}

// Cancelled reports whether Cancel has been called.
func (t *CancelToken) Cancelled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// BindCancel cancels token whenever bus carries a cancel-stream event. The
// returned func detaches the token; call it once the turn is over.
func BindCancel(bus *adapters.EventBus, token *CancelToken) (unbind func()) {
	return bus.Subscribe(ports.EventCancelStream, func(string) { token.Cancel() })
}
