package domain

// InvocationResult is the raw result of one agent process execution.
type InvocationResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Outcome is the interpreted form of an InvocationResult.
type Outcome struct {
	Kind OutcomeKind
	// Text is the result text on success and the failure message otherwise.
	Text string
	// ContinuationToken is set only on success, when the output carried one.
	ContinuationToken string
	ExitCode          int
	// Parsed reports whether stdout was a JSON object.
	Parsed bool
}

// OK reports whether the outcome is a successful turn.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}
