package harness

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/ZanzyTHEbar/coding-assistant/assistant/config"
	"github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/adapters"
	ports "github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/ports"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Factory creates and wires harness components from configuration.
type Factory struct {
	cfg        *config.Config
	db         *sql.DB // required by the libsql backend
	logger     zerolog.Logger
	dialect    goose.Dialect
	registerer prometheus.Registerer
	httpClient *http.Client
	lock       *adapters.TurnLock
}

// NewFactory creates a new harness factory. Every orchestrator it builds
// shares one turn lock.
func NewFactory(cfg *config.Config, db *sql.DB, logger zerolog.Logger) *Factory {
	return &Factory{
		cfg:        cfg,
		db:         db,
		logger:     logger,
		dialect:    database.DialectTurso,
		registerer: prometheus.DefaultRegisterer,
		lock:       adapters.NewTurnLock(),
	}
}

// WithSQLDialect overrides the goose dialect used for the SQL store.
func (f *Factory) WithSQLDialect(dialect goose.Dialect) *Factory {
	f.dialect = dialect
	return f
}

// WithRegisterer sets where turn metrics are registered.
func (f *Factory) WithRegisterer(reg prometheus.Registerer) *Factory {
	f.registerer = reg
	return f
}

// WithHTTPClient sets the client used to reach the completion endpoint.
func (f *Factory) WithHTTPClient(client *http.Client) *Factory {
	f.httpClient = client
	return f
}

// CreateOrchestrator creates a fully wired PromptOrchestrator from config.
// sink may be nil.
func (f *Factory) CreateOrchestrator(ctx context.Context, sink ports.FragmentSink) (*PromptOrchestrator, error) {
	if err := f.cfg.Validate(); err != nil {
		return nil, &TurnError{Kind: KindSetup, Err: err}
	}

	store, err := f.CreateStore(ctx)
	if err != nil {
		return nil, &TurnError{Kind: KindSetup, Err: err}
	}
	metrics, err := f.createMetrics()
	if err != nil {
		return nil, &TurnError{Kind: KindSetup, Err: err}
	}

	return NewPromptOrchestrator(
		store,
		adapters.NewFileCredentials(f.cfg.Assistant.CredentialPath),
		adapters.NewOpenAIProvider(f.cfg.Provider.BaseURL, f.httpClient),
		f.CreateRequestBuilder(),
		f.lock,
		sink,
		f.createTracer(),
		metrics,
		f.CreatePolicy(),
	), nil
}

// CreateStore creates the history store selected by storage.backend.
func (f *Factory) CreateStore(ctx context.Context) (ports.HistoryStore, error) {
	switch f.cfg.Storage.Backend {
	case config.BackendFile, "":
		return adapters.NewFileStore(f.cfg.Assistant.HistoryPath, f.logger), nil
	case config.BackendLibSQL:
		if f.db == nil {
			return nil, fmt.Errorf("storage backend %q needs a database connection", config.BackendLibSQL)
		}
		store, err := adapters.NewSQLStore(ctx, f.db, f.dialect, f.cfg.Storage.SessionKey, f.logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", f.cfg.Storage.Backend)
	}
}

// CreatePolicy creates a policy from config.
func (f *Factory) CreatePolicy() *Policy {
	return &Policy{
		SystemPrompt:     f.cfg.Assistant.SystemPrompt,
		MaxHistoryLength: f.cfg.Assistant.MaxHistoryLength,
	}
}

// CreateRequestBuilder creates a request builder from the provider settings.
func (f *Factory) CreateRequestBuilder() *RequestBuilder {
	return NewRequestBuilder(
		f.cfg.Provider.EconomyModel,
		f.cfg.Provider.StandardModel,
		f.cfg.Provider.MaxOutputTokens,
	)
}

func (f *Factory) createTracer() ports.Tracer {
	if !f.cfg.Harness.EnableTracing {
		return noOpTracer{}
	}
	return adapters.NewZerologTracer(f.logger)
}

func (f *Factory) createMetrics() (ports.Metrics, error) {
	if !f.cfg.Harness.EnableMetrics {
		return noOpMetrics{}, nil
	}
	return adapters.NewPrometheusMetrics(f.registerer)
}

type noOpSink struct{}

func (noOpSink) Publish(event string, payload string) {}

type noOpTracer struct{}

func (noOpTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	return ctx, func(err error) {}
}

func (noOpTracer) Event(ctx context.Context, name string, attrs map[string]any) {}

type noOpMetrics struct{}

func (noOpMetrics) ObserveLockWait(d time.Duration)             {}
func (noOpMetrics) IncFragments()                               {}
func (noOpMetrics) ObserveTurn(outcome string, d time.Duration) {}

var (
	_ ports.FragmentSink = noOpSink{}
	_ ports.Tracer       = noOpTracer{}
	_ ports.Metrics      = noOpMetrics{}
)
