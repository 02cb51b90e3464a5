package engine

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced campaign or customer id is
// absent from the snapshot store. Surfaced to the caller, never retried.
var ErrNotFound = errors.New("not found")

// ConfigurationError rejects a whole rule set at load time. A malformed rule
// is fatal; the engine never skips bad rules silently.
type ConfigurationError struct {
	RuleID string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.RuleID == "" {
		return fmt.Sprintf("rule configuration: %s", e.Reason)
	}
	return fmt.Sprintf("rule configuration: rule %s: %s", e.RuleID, e.Reason)
}
