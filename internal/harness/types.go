package harness

// Trace event types.
const (
	EventEnqueue  = "enqueue"
	EventDispatch = "dispatch"
	EventSettle   = "settle"
)

// TraceEvent is one step of a scenario run.
type TraceEvent struct {
	Type string `json:"type"`
	Seq  int64  `json:"seq"`

	// AtMillis is the manual clock offset from the start of the run.
	AtMillis int64 `json:"at_ms"`

	// Action is set on enqueue and settle events.
	Action string `json:"action,omitempty"`

	// BatchID is set on dispatch and settle events.
	BatchID string `json:"batch,omitempty"`

	// Actions lists the records of a dispatch, in request order.
	Actions []string `json:"actions,omitempty"`

	Success   bool   `json:"success,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Outcomes counts settled calls. Cancelled calls also count as successes.
type Outcomes struct {
	Success   int `yaml:"success" json:"success"`
	Failure   int `yaml:"failure" json:"failure"`
	Cancelled int `yaml:"cancelled" json:"cancelled"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expectation matched and every call settled.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Batches holds the actions of each request that reached the client.
	Batches [][]string `json:"batches"`

	Outcomes Outcomes `json:"outcomes"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []TraceEvent{},
		Batches: [][]string{},
		Errors:  []string{},
	}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
