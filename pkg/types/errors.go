package types

import "fmt"

// ValidationKind classifies an InputValidationError.
type ValidationKind string

const (
	NoMetrics          ValidationKind = "NoMetrics"
	BlankMetricName    ValidationKind = "BlankMetricName"
	InvalidAggregation ValidationKind = "InvalidAggregation"
)

// InputValidationError is returned when tool arguments are rejected before
// any request is sent.
type InputValidationError struct {
	Kind  ValidationKind
	Field string
	Value string
	Count int
}

func (e *InputValidationError) Error() string {
	switch e.Kind {
	case NoMetrics:
		return "No metrics specified for query"
	case BlankMetricName:
		return fmt.Sprintf("Empty or invalid metric names found. Invalid entries: %d", e.Count)
	case InvalidAggregation:
		return fmt.Sprintf("invalid aggregation %q: must be one of avg, min, max, sum, count", e.Value)
	default:
		return fmt.Sprintf("invalid %s", e.Field)
	}
}
