package channel

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Mode names a recovery policy.
type Mode string

const (
	ModeClosing Mode = "closing"
	ModeWaiting Mode = "waiting"
)

// Valid returns true if the mode is a recognized value.
func (m Mode) Valid() bool {
	switch m {
	case ModeClosing, ModeWaiting:
		return true
	}
	return false
}

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// ParseMode maps a mode name to a Mode (case-insensitive).
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unknown recovery mode %q (valid: closing, waiting)", s)
	}
	return m, nil
}

// UnmarshalText parses a mode name, so decoded results reject unknown modes.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Policy decides what an endpoint does when it runs out of capacity.
//
// The interface is sealed: each policy must handle both failure paths, a
// send it cannot cover and a receive whose sender failed.
type Policy interface {
	Mode() Mode

	// Commission is the cost of one reset. Zero for policies that never reset.
	Commission() decimal.Decimal

	exhausted(s State, p Params) (State, Effect)
	peerFailed(s State, p Params) (State, Effect)
}

// Closing resets a depleted channel at once and pays Cost for it.
type Closing struct {
	Cost decimal.Decimal
}

// NewClosing returns a closing policy with the given reset cost.
func NewClosing(commission decimal.Decimal) Closing {
	return Closing{Cost: commission}
}

func (Closing) Mode() Mode { return ModeClosing }

func (c Closing) Commission() decimal.Decimal { return c.Cost }

// exhausted restores capacity and pays the commission, but the current
// transfer still counts as failed.
func (c Closing) exhausted(s State, p Params) (State, Effect) {
	next := c.reset(s, p)
	next.Open = false
	return next, Effect{Outcome: OutcomeReset, Commission: c.Cost}
}

func (c Closing) peerFailed(s State, p Params) (State, Effect) {
	return c.reset(s, p), Effect{Outcome: OutcomeReset, Commission: c.Cost}
}

func (c Closing) reset(s State, p Params) State {
	s.Capacity = p.InitialCapacity
	s.Fee = s.Fee.Sub(c.Cost)
	return s
}

func (c Closing) String() string {
	return fmt.Sprintf("closing(commission=%s)", c.Cost)
}

// Waiting stalls a depleted channel at no cost until reverse traffic
// restores its capacity.
type Waiting struct{}

func (Waiting) Mode() Mode { return ModeWaiting }

func (Waiting) Commission() decimal.Decimal { return decimal.Zero }

func (Waiting) exhausted(s State, _ Params) (State, Effect) {
	s.Open = false
	return s, Effect{Outcome: OutcomeStalled}
}

func (Waiting) peerFailed(s State, _ Params) (State, Effect) {
	return s, Effect{Outcome: OutcomeIgnored}
}

func (Waiting) String() string { return "waiting" }

// NewPolicy builds a policy from its mode. The commission is ignored for
// the waiting policy.
func NewPolicy(mode Mode, commission decimal.Decimal) (Policy, error) {
	switch mode {
	case ModeClosing:
		return NewClosing(commission), nil
	case ModeWaiting:
		return Waiting{}, nil
	}
	return nil, fmt.Errorf("unknown recovery mode %q", mode)
}
