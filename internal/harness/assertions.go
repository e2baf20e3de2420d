package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an expectation fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string       // Expectation name for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s\n", ev.Seq, describeEvent(ev))
	}
	return buf.String()
}

func describeEvent(ev TraceEvent) string {
	switch ev.Type {
	case EventEnqueue:
		return fmt.Sprintf("+%dms enqueue %s", ev.AtMillis, ev.Action)
	case EventDispatch:
		return fmt.Sprintf("+%dms dispatch %s %v", ev.AtMillis, ev.BatchID, ev.Actions)
	case EventSettle:
		status := "ok"
		switch {
		case !ev.Success:
			status = "failed: " + ev.Error
		case ev.Cancelled:
			status = "cancelled"
		}
		return fmt.Sprintf("+%dms settle %s %s", ev.AtMillis, ev.Action, status)
	default:
		return ev.Type
	}
}

// EvaluateExpectations checks result against expect and returns one message
// per failed expectation.
func EvaluateExpectations(result *Result, expect Expect) []string {
	var errs []string
	if expect.Batches != nil {
		if err := assertBatches(result, expect.Batches); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if expect.Outcomes != nil {
		if err := assertOutcomes(result, *expect.Outcomes); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// assertBatches checks the dispatched requests exactly, in order.
func assertBatches(result *Result, want [][]string) error {
	if equalBatches(result.Batches, want) {
		return nil
	}
	return &AssertionError{
		Type:     "batches",
		Expected: formatBatches(want),
		Actual:   formatBatches(result.Batches),
		Trace:    result.Trace,
	}
}

func equalBatches(got, want [][]string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if len(got[i]) != len(want[i]) {
			return false
		}
		for j := range got[i] {
			if got[i][j] != want[i][j] {
				return false
			}
		}
	}
	return true
}

func formatBatches(batches [][]string) string {
	if len(batches) == 0 {
		return "no requests"
	}
	parts := make([]string, len(batches))
	for i, b := range batches {
		parts[i] = "[" + strings.Join(b, ", ") + "]"
	}
	return strings.Join(parts, " ")
}

// assertOutcomes checks the settled-call counters.
func assertOutcomes(result *Result, want Outcomes) error {
	if result.Outcomes == want {
		return nil
	}
	return &AssertionError{
		Type:     "outcomes",
		Expected: formatOutcomes(want),
		Actual:   formatOutcomes(result.Outcomes),
		Trace:    result.Trace,
	}
}

func formatOutcomes(o Outcomes) string {
	return fmt.Sprintf("success=%d failure=%d cancelled=%d", o.Success, o.Failure, o.Cancelled)
}
