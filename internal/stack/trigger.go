package stack

import (
	"errors"
	"fmt"

	"github.com/lex00/wetwire-lambda-examples/internal/functions"
)

const (
	// RuleLogicalID is the logical ID of the schedule rule.
	RuleLogicalID = "HourlyRule"
	// HourlySchedule fires the rule once an hour.
	HourlySchedule = "rate(1 hour)"
	// HourlyDescription is the description of the schedule rule.
	HourlyDescription = "Rule to trigger Lambda function every hour"
	// RetryAttempts is how often EventBridge retries a failed invocation.
	RetryAttempts = 2
	// MaxTargetsPerRule is the EventBridge limit on targets of one rule.
	MaxTargetsPerRule = 5
)

var (
	// ErrTooManyTargets is returned when a rule would exceed MaxTargetsPerRule.
	ErrTooManyTargets = errors.New("too many targets for one rule")
	// ErrArchitectureMismatch is returned when a unit's build targets
	// another architecture than the unit itself.
	ErrArchitectureMismatch = errors.New("architecture mismatch between unit and build")
	// ErrDuplicateTarget is returned when the same unit is bound twice.
	ErrDuplicateTarget = errors.New("unit already bound")
)

// Binding attaches one unit to the trigger.
type Binding struct {
	Unit          functions.Unit
	RetryAttempts int
}

// Trigger is a recurring schedule invoking every bound unit independently.
type Trigger struct {
	Schedule    string
	Description string
	Bindings    []Binding
}

// NewHourlyTrigger returns the hourly trigger with no targets.
func NewHourlyTrigger() *Trigger {
	return &Trigger{
		Schedule:    HourlySchedule,
		Description: HourlyDescription,
	}
}

// Bind attaches each unit with the fixed retry policy.
// Nothing is attached if any unit is rejected.
func (t *Trigger) Bind(units ...functions.Unit) error {
	seen := make(map[string]bool, len(t.Bindings)+len(units))
	for _, b := range t.Bindings {
		seen[b.Unit.ID] = true
	}

	bindings := make([]Binding, 0, len(units))
	for _, u := range units {
		if u.Build.Architecture() != u.Architecture {
			return fmt.Errorf("%w: %s is %s, build targets %s",
				ErrArchitectureMismatch, u.ID, u.Architecture, u.Build.Architecture())
		}
		if err := u.Validate(); err != nil {
			return err
		}
		if seen[u.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateTarget, u.ID)
		}
		seen[u.ID] = true
		bindings = append(bindings, Binding{Unit: u, RetryAttempts: RetryAttempts})
	}

	t.Bindings = append(t.Bindings, bindings...)
	return nil
}

// Units returns the bound units in binding order.
func (t *Trigger) Units() []functions.Unit {
	units := make([]functions.Unit, len(t.Bindings))
	for i, b := range t.Bindings {
		units[i] = b.Unit
	}
	return units
}
