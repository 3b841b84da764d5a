package rule

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oshokin/mcsync/internal/domain/platform"
)

// Action is the outcome of a rule.
type Action string

const (
	// Allow includes the guarded item.
	Allow Action = "allow"
	// Disallow excludes the guarded item.
	Disallow Action = "disallow"
)

// ErrUnknownAction is returned when decoding an action other than allow or disallow.
var ErrUnknownAction = errors.New("unknown rule action")

// Invert swaps allow and disallow.
func (a Action) Invert() Action {
	if a == Allow {
		return Disallow
	}

	return Allow
}

// UnmarshalJSON accepts only the two known actions.
func (a *Action) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch Action(raw) {
	case Allow, Disallow:
		*a = Action(raw)

		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, raw)
	}
}

// OSFilter restricts a rule to an operating system. Empty fields are absent.
type OSFilter struct {
	Name    string `json:"name,omitempty"`
	Arch    string `json:"arch,omitempty"`
	Version string `json:"version,omitempty"`
}

// Rule is one condition of a set.
type Rule struct {
	Action   Action          `json:"action"`
	OS       *OSFilter       `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

// HasVersionFilter reports a filter on OS version, which evaluation ignores.
func (r Rule) HasVersionFilter() bool {
	return r.OS != nil && r.OS.Version != ""
}

// Effective returns the rule's action after applying its filters to the context.
// The first filter that does not match inverts the action; nothing inverts twice.
func (r Rule) Effective(ctx platform.Context) Action {
	if r.OS != nil {
		if r.OS.Name != "" && r.OS.Name != ctx.OS {
			return r.Action.Invert()
		}

		if r.OS.Arch != "" && r.OS.Arch != ctx.Arch {
			return r.Action.Invert()
		}

		// OS version matching is not supported yet, the filter is skipped.
	}

	for name, required := range r.Features {
		if ctx.Feature(name) != required {
			return r.Action.Invert()
		}
	}

	return r.Action
}

// Set is an ordered list of rules. Order carries no priority.
type Set []Rule

// Allows reports whether any rule in the set is effectively Allow.
func (s Set) Allows(ctx platform.Context) bool {
	for _, r := range s {
		if r.Effective(ctx) == Allow {
			return true
		}
	}

	return false
}

// HasVersionFilter reports whether any rule in the set filters by OS version.
func (s Set) HasVersionFilter() bool {
	for _, r := range s {
		if r.HasVersionFilter() {
			return true
		}
	}

	return false
}

// Evaluate decides inclusion of an item guarded by the set.
// A nil set means unconditional inclusion.
func Evaluate(set *Set, ctx platform.Context) bool {
	if set == nil {
		return true
	}

	return set.Allows(ctx)
}
