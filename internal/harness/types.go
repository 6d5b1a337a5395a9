package harness

import "github.com/roach88/atb/internal/snapshot"

// Outcomes recorded in the trace.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Index   int    `json:"index"`
	Do      string `json:"do"`
	Unit    string `json:"unit,omitempty"`
	Outcome string `json:"outcome"`
	Code    string `json:"code,omitempty"`
	NowNS   int64  `json:"now_ns"` // simulated time once the step has settled
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step met its expectation and every assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the battle after the last step.
	Final snapshot.State `json:"-"`

	// StateHash is snapshot.Hash(Final).
	StateHash string `json:"state_hash"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step outcome.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
