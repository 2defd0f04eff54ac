package harness

import (
	"context"
	"errors"
	"io"
	"sync"

	ports "github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/ports"
)

// Session owns one in-flight completion stream. Recv and Close belong to the
// consuming goroutine; Cancel may be called from anywhere.
type Session struct {
	stream ports.Stream
	token  *CancelToken
	stop   context.CancelFunc

	done      bool
	closeOnce sync.Once
	closeErr  error
}

// OpenSession starts a streaming completion. A token that is already set
// yields an exhausted session without touching the network, and a token set
// while the stream is being opened turns the open failure into exhaustion.
func OpenSession(ctx context.Context, provider ports.Provider, req ports.CompletionRequest, credential string, token *CancelToken) (*Session, error) {
	if token == nil {
		token = NewCancelToken()
	}
	s := &Session{token: token}
	if token.Cancelled() {
		s.done = true
		return s, nil
	}

	streamCtx, stop := context.WithCancel(ctx)
	s.stop = stop
	go func() {
		select {
		case <-token.Done():
			stop()
		case <-streamCtx.Done():
		}
	}()

	stream, err := provider.OpenStream(streamCtx, req, credential)
	if err != nil {
		if token.Cancelled() {
			s.finish()
			return s, nil
		}
		stop()
		return nil, &ConnectionError{Err: err}
	}
	s.stream = stream

	if token.Cancelled() {
		s.finish()
	}
	return s, nil
}

// Recv returns the next fragment, io.EOF once the stream is exhausted or
// cancelled, or a *StreamError. Data arriving after cancellation is dropped.
func (s *Session) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	if s.token.Cancelled() {
		s.finish()
		return "", io.EOF
	}

	fragment, err := s.stream.Recv()
	if s.token.Cancelled() {
		s.finish()
		return "", io.EOF
	}
	if errors.Is(err, io.EOF) {
		s.finish()
		return "", io.EOF
	}
	if err != nil {
		return "", &StreamError{Err: err}
	}
	return fragment, nil
}

// Cancel stops the session at its next suspension point.
func (s *Session) Cancel() { s.token.Cancel() }

// Cancelled reports whether the session's token has been set.
func (s *Session) Cancelled() bool { return s.token.Cancelled() }

// Close releases the underlying stream.
func (s *Session) Close() error {
	s.finish()
	return s.closeErr
}

func (s *Session) finish() {
	s.done = true
	s.closeOnce.Do(func() {
		if s.stream != nil {
			s.closeErr = s.stream.Close()
		}
		if s.stop != nil {
			s.stop()
		}
	})
}
