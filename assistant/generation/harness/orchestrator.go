package harness

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ZanzyTHEbar/coding-assistant/assistant"
	"github.com/ZanzyTHEbar/coding-assistant/assistant/conversation"
	ports "github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/ports"
)

// TurnState is the orchestrator's position in the turn state machine.
type TurnState int32

const (
	StateIdle TurnState = iota
	StateAcquiringLock
	StateLoadingHistory
	StateBuildingRequest
	StateStreaming
	StateCommitting
)

func (s TurnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiringLock:
		return "acquiring_lock"
	case StateLoadingHistory:
		return "loading_history"
	case StateBuildingRequest:
		return "building_request"
	case StateStreaming:
		return "streaming"
	case StateCommitting:
		return "committing"
	default:
		return "unknown"
	}
}

// Policy controls history shaping between turns.
type Policy struct {
	SystemPrompt     string // used when the history has no leading system message
	MaxHistoryLength int    // messages kept after truncation; <= 0 keeps everything
}

// DefaultPolicy returns the built-in prompt and history bound.
func DefaultPolicy() *Policy {
	return &Policy{
		SystemPrompt:     assistant.DefaultSystemPrompt,
		MaxHistoryLength: assistant.DefaultMaxHistoryLength,
	}
}

// PromptOrchestrator runs one prompt turn at a time against the shared history.
type PromptOrchestrator struct {
	store       ports.ConversationStore
	credentials ports.CredentialSource
	provider    ports.Provider
	builder     *RequestBuilder
	lock        ports.TurnLock
	sink        ports.FragmentSink
	tracer      ports.Tracer
	metrics     ports.Metrics
	policy      *Policy

	state atomic.Int32
}

// NewPromptOrchestrator wires an orchestrator. Nil sink, tracer and metrics
// are replaced by no-ops; a nil policy falls back to DefaultPolicy.
func NewPromptOrchestrator(
	store ports.ConversationStore,
	credentials ports.CredentialSource,
	provider ports.Provider,
	builder *RequestBuilder,
	lock ports.TurnLock,
	sink ports.FragmentSink,
	tracer ports.Tracer,
	metrics ports.Metrics,
	policy *Policy,
) *PromptOrchestrator {
	if sink == nil {
		sink = noOpSink{}
	}
	if tracer == nil {
		tracer = noOpTracer{}
	}
	if metrics == nil {
		metrics = noOpMetrics{}
	}
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &PromptOrchestrator{
		store:       store,
		credentials: credentials,
		provider:    provider,
		builder:     builder,
		lock:        lock,
		sink:        sink,
		tracer:      tracer,
		metrics:     metrics,
		policy:      policy,
	}
}

// State reports the state of the turn holding the lock, or StateIdle. Turns
// still waiting for the lock do not show up here.
func (o *PromptOrchestrator) State() TurnState {
	return TurnState(o.state.Load())
}

// RunTurn appends text as a user message, streams the assistant reply through
// the sink and persists both. The accumulated reply is returned even when the
// stream is cancelled or interrupted; only setup, connection and persistence
// failures produce an error. A nil token means the turn cannot be cancelled.
func (o *PromptOrchestrator) RunTurn(ctx context.Context, text string, lowCost bool, token *CancelToken) (reply string, err error) {
	if token == nil {
		token = NewCancelToken()
	}
	started := time.Now()
	outcome := ports.OutcomeFailed

	ctx, finish := o.tracer.StartSpan(ctx, "turn", map[string]any{
		"low_cost":    lowCost,
		"prompt_size": len(text),
	})
	defer func() {
		o.metrics.ObserveTurn(outcome, time.Since(started))
		finish(err)
	}()

	// Waiters do not own the shared state; only the lock holder moves it.
	o.traceTransition(ctx, StateIdle, StateAcquiringLock)
	release, err := o.lock.Acquire(ctx)
	if err != nil {
		o.traceTransition(ctx, StateAcquiringLock, StateIdle)
		return "", &TurnError{Kind: KindLock, Err: err}
	}
	defer release()
	defer o.transition(ctx, StateIdle)
	o.state.Store(int32(StateAcquiringLock))
	o.metrics.ObserveLockWait(time.Since(started))

	o.transition(ctx, StateLoadingHistory)
	conv, err := o.loadHistory(ctx)
	if err != nil {
		return "", &TurnError{Kind: KindLoad, Err: err}
	}
	conv.Append(conversation.RoleUser, text)
	conv.Truncate(o.policy.MaxHistoryLength, o.policy.SystemPrompt)

	o.transition(ctx, StateBuildingRequest)
	credential, err := o.credentials.Resolve(ctx)
	if err != nil {
		return "", &TurnError{Kind: KindSetup, Err: err}
	}
	req, err := o.builder.Build(conv, lowCost)
	if err != nil {
		return "", &TurnError{Kind: KindBuild, Err: err}
	}

	o.transition(ctx, StateStreaming)
	session, err := OpenSession(ctx, o.provider, req, credential, token)
	if err != nil {
		return "", &TurnError{Kind: KindConnection, Err: err}
	}
	reply, streamErr := o.drain(ctx, session)
	switch {
	case streamErr != nil:
		outcome = ports.OutcomeStreamError
	case token.Cancelled():
		outcome = ports.OutcomeCancelled
	default:
		outcome = ports.OutcomeCompleted
	}

	o.transition(ctx, StateCommitting)
	conv.Append(conversation.RoleAssistant, reply)
	if err := o.store.Save(context.WithoutCancel(ctx), conv); err != nil {
		outcome = ports.OutcomePersistFailed
		return reply, &TurnError{Kind: KindPersist, Partial: reply, Err: err}
	}

	o.tracer.Event(ctx, "turn_committed", map[string]any{
		"conversation_id": conv.ID,
		"messages":        conv.Len(),
		"reply_size":      len(reply),
		"outcome":         outcome,
	})
	return reply, nil
}

// drain forwards fragments to the sink until the session is exhausted,
// cancelled or interrupted. A stream error ends the drain but keeps the text
// received so far.
func (o *PromptOrchestrator) drain(ctx context.Context, session *Session) (string, error) {
	defer session.Close()

	var acc strings.Builder
	for {
		fragment, err := session.Recv()
		if errors.Is(err, io.EOF) {
			return acc.String(), nil
		}
		if err != nil {
			o.sink.Publish(ports.EventStreamError, err.Error())
			o.tracer.Event(ctx, "stream_error", map[string]any{"error": err.Error()})
			return acc.String(), err
		}
		acc.WriteString(fragment)
		o.metrics.IncFragments()
		o.sink.Publish(ports.EventChatMessage, fragment)
	}
}

func (o *PromptOrchestrator) loadHistory(ctx context.Context) (*conversation.Conversation, error) {
	conv, err := o.store.Load(ctx)
	if errors.Is(err, ports.ErrNotFound) {
		return conversation.New(o.policy.SystemPrompt), nil
	}
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return conversation.New(o.policy.SystemPrompt), nil
	}
	conv.EnsureSystem(o.policy.SystemPrompt)
	return conv, nil
}

// transition moves the shared state. Callers must hold the turn lock.
func (o *PromptOrchestrator) transition(ctx context.Context, next TurnState) {
	prev := TurnState(o.state.Swap(int32(next)))
	o.traceTransition(ctx, prev, next)
}

func (o *PromptOrchestrator) traceTransition(ctx context.Context, from, to TurnState) {
	o.tracer.Event(ctx, "state_transition", map[string]any{
		"from": from.String(),
		"to":   to.String(),
	})
}
