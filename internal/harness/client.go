package harness

import (
	"context"
	"errors"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
)

// errTransport is returned by the scripted client when fail_transport is set.
var errTransport = errors.New("connection refused")

// rejectedMessage is the per-record error for rejected keys.
const rejectedMessage = "rejected"

// scriptedClient is the in-process batch client driven by EndpointSpec.
type scriptedClient struct {
	failTransport bool
	reject        map[string]bool
	onSend        func(action.BatchRequest)
}

func newScriptedClient(spec EndpointSpec, onSend func(action.BatchRequest)) *scriptedClient {
	reject := make(map[string]bool, len(spec.Reject))
	for _, key := range spec.Reject {
		reject[key] = true
	}
	return &scriptedClient{
		failTransport: spec.FailTransport,
		reject:        reject,
		onSend:        onSend,
	}
}

// Send implements engine.BatchClient.
func (c *scriptedClient) Send(_ context.Context, req action.BatchRequest) (action.BatchOutcome, error) {
	if c.onSend != nil {
		c.onSend(req)
	}
	if c.failTransport {
		return action.BatchOutcome{}, errTransport
	}

	results := make([]action.ActionResult, len(req.Actions))
	for i, a := range req.Actions {
		if c.reject[a.Key().String()] {
			results[i] = action.ResultFor(a, false, rejectedMessage)
			continue
		}
		results[i] = action.ResultFor(a, true, "")
	}
	return action.BatchOutcome{Results: results, Summary: action.Summarize(results)}, nil
}
