package planner

// ValidationError reports a plan request the engine cannot act on. It is
// the only failure the scheduling engine produces; everything else is total
// over its input domain.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid plan request: " + e.Reason
}
