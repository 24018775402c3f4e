package harness

// TraceEvent records one executed step.
type TraceEvent struct {
	Step    int    `json:"step"`
	Action  string `json:"action"`
	Node    string `json:"node,omitempty"` // node created or edited
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// Result is the outcome of running a script.
type Result struct {
	// Pass is true if every step and assertion succeeded.
	Pass bool `json:"pass"`

	// Trace has one event per executed step.
	Trace []TraceEvent `json:"trace"`

	// Errors contains step and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Mode is the final session mode.
	Mode string `json:"mode"`

	// Submitted is what the session would submit at the end.
	Submitted string `json:"submitted"`
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

// addTrace appends a step event.
func (r *Result) addTrace(step int, action, node string, ok bool, message string) {
	r.Trace = append(r.Trace, TraceEvent{
		Step:    step,
		Action:  action,
		Node:    node,
		OK:      ok,
		Message: message,
	})
}
