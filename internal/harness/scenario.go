package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
)

// Scenario defines one deterministic dispatcher run.
type Scenario struct {
	// Name uniquely identifies the scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario demonstrates.
	Description string `yaml:"description,omitempty"`

	// QuietPeriod is the debounce window as a duration string.
	// Default: the dispatcher default.
	QuietPeriod string `yaml:"quiet_period,omitempty"`

	// Endpoint scripts the in-process batch client.
	Endpoint EndpointSpec `yaml:"endpoint,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Expect holds the checks evaluated after the run.
	Expect Expect `yaml:"expect"`
}

// EndpointSpec scripts the batch client.
type EndpointSpec struct {
	// FailTransport fails every request as a transport error.
	FailTransport bool `yaml:"fail_transport,omitempty"`

	// Reject lists identity keys ("A", "u1:x") whose records fail.
	Reject []string `yaml:"reject,omitempty"`
}

// Step is exactly one of enqueue, advance or flush.
type Step struct {
	Enqueue *EnqueueStep `yaml:"enqueue,omitempty"`

	// Repeat enqueues the action this many times. Default: 1.
	Repeat int `yaml:"repeat,omitempty"`

	// Advance moves the manual clock forward, firing due timers.
	Advance string `yaml:"advance,omitempty"`

	// Flush forces the pending window out immediately.
	Flush bool `yaml:"flush,omitempty"`
}

// EnqueueStep names one unit action.
type EnqueueStep struct {
	Type   string `yaml:"type"`
	Target string `yaml:"target,omitempty"`
	Owner  string `yaml:"owner,omitempty"`
	Item   string `yaml:"item,omitempty"`
}

// Action converts the step into a validated action.
func (e EnqueueStep) Action() (action.Action, error) {
	kind, err := action.ParseKind(e.Type)
	if err != nil {
		return action.Action{}, err
	}
	var a action.Action
	switch kind {
	case action.KindActivate:
		a = action.Activate(e.Target)
	case action.KindDeactivate:
		a = action.Deactivate(e.Target)
	case action.KindAddItem:
		a = action.AddItem(e.Owner, e.Item)
	case action.KindRemoveItem:
		a = action.RemoveItem(e.Owner, e.Item)
	}
	if err := a.Validate(); err != nil {
		return action.Action{}, err
	}
	return a, nil
}

// Expect holds the checks of a scenario.
type Expect struct {
	// Batches lists the actions of each dispatched request. Omit to skip
	// the check; an empty list asserts nothing was dispatched.
	Batches [][]string `yaml:"batches,omitempty"`

	// Outcomes counts settled calls. Omit to skip the check.
	Outcomes *Outcomes `yaml:"outcomes,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.QuietPeriod != "" {
		d, err := time.ParseDuration(s.QuietPeriod)
		if err != nil {
			return fmt.Errorf("quiet_period: %w", err)
		}
		if d <= 0 {
			return errors.New("quiet_period must be positive")
		}
	}
	if len(s.Steps) == 0 {
		return errors.New("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	if o := s.Expect.Outcomes; o != nil {
		if o.Success < 0 || o.Failure < 0 || o.Cancelled < 0 {
			return errors.New("expect.outcomes: counts must be non-negative")
		}
		if o.Cancelled > o.Success {
			return errors.New("expect.outcomes: cancelled calls are successes, cancelled cannot exceed success")
		}
	}
	return nil
}

func validateStep(index int, step Step) error {
	set := 0
	if step.Enqueue != nil {
		set++
	}
	if step.Advance != "" {
		set++
	}
	if step.Flush {
		set++
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of enqueue, advance or flush is required", index)
	}

	switch {
	case step.Enqueue != nil:
		if _, err := step.Enqueue.Action(); err != nil {
			return fmt.Errorf("steps[%d].enqueue: %w", index, err)
		}
		if step.Repeat < 0 {
			return fmt.Errorf("steps[%d]: repeat must be non-negative", index)
		}
	case step.Repeat != 0:
		return fmt.Errorf("steps[%d]: repeat is only valid with enqueue", index)
	case step.Advance != "":
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return fmt.Errorf("steps[%d].advance: %w", index, err)
		}
		if d < 0 {
			return fmt.Errorf("steps[%d].advance: must not be negative", index)
		}
	}
	return nil
}
