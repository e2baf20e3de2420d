package action

import (
	"encoding/json"
	"fmt"
)

// Result is what a caller receives once the batch containing (or
// cancelling) its action settles. Failures are data, not panics: callers
// check Success.
type Result struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`

	// Cancelled is set when the optimizer netted the call away and no
	// record was dispatched on its behalf.
	Cancelled bool `json:"cancelled,omitempty"`

	// Skipped is set when a local guard turned the call into a no-op
	// before it was queued.
	Skipped bool `json:"skipped,omitempty"`

	BatchID string `json:"batchId,omitempty"`
}

// Succeeded returns a successful result for batchID.
func Succeeded(batchID string) Result {
	return Result{Success: true, BatchID: batchID}
}

// Failed returns a failed result for batchID carrying msg.
func Failed(batchID, msg string) Result {
	return Result{Success: false, Error: msg, BatchID: batchID}
}

// BatchRequest is the body POSTed to the batch endpoint.
type BatchRequest struct {
	BatchID string   `json:"batchId"`
	Actions []Action `json:"actions"`
}

// ActionResult is the endpoint's verdict on one dispatched record.
type ActionResult struct {
	Type     string          `json:"type"`
	TargetID string          `json:"targetId,omitempty"`
	OwnerID  string          `json:"ownerId,omitempty"`
	ItemID   string          `json:"itemId,omitempty"`
	Success  bool            `json:"success"`
	Error    string          `json:"error,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// ResultFor builds the ActionResult for a, echoing its identity fields.
func ResultFor(a Action, success bool, errMsg string) ActionResult {
	return ActionResult{
		Type:     a.kind.String(),
		TargetID: a.targetID,
		OwnerID:  a.ownerID,
		ItemID:   a.itemID,
		Success:  success,
		Error:    errMsg,
	}
}

// Action reconstructs the dispatched action the result refers to.
func (r ActionResult) Action() (Action, error) {
	kind, err := ParseKind(r.Type)
	if err != nil {
		return Action{}, err
	}
	var a Action
	if kind.Family() == FamilyLineItem {
		a = lineItem(kind, r.OwnerID, r.ItemID)
	} else {
		a = Action{kind: kind, targetID: r.TargetID}
	}
	if err := a.Validate(); err != nil {
		return Action{}, fmt.Errorf("result identity: %w", err)
	}
	return a, nil
}

// Summary counts the per-record verdicts of one batch.
type Summary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Errors  int `json:"errors"`
}

// BatchOutcome is the endpoint's response to one BatchRequest.
type BatchOutcome struct {
	Results []ActionResult `json:"results"`
	Summary Summary        `json:"summary"`
}

// Summarize computes the summary for results.
func Summarize(results []ActionResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			s.Success++
		} else {
			s.Errors++
		}
	}
	return s
}

// HasFailures reports whether any record in the outcome failed.
func (o BatchOutcome) HasFailures() bool {
	for _, r := range o.Results {
		if !r.Success {
			return true
		}
	}
	return false
}
