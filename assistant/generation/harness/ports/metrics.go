package harnessports

import "time"

// Turn outcomes reported to Metrics.
const (
	OutcomeCompleted     = "completed"
	OutcomeCancelled     = "cancelled"
	OutcomeStreamError   = "stream_error"
	OutcomeFailed        = "failed"
	OutcomePersistFailed = "persist_failed"
)

// Metrics records turn-level counters and latencies.
type Metrics interface {
	ObserveLockWait(d time.Duration)
	IncFragments()
	ObserveTurn(outcome string, d time.Duration)
}
