package traffic

import "github.com/shopspring/decimal"

// Script replays a fixed sequence of draws, ignoring the probability and
// lambda it is asked for.
type Script struct {
	draws []Draw
	pos   int
}

// NewScript creates a script over draws.
func NewScript(draws ...Draw) *Script {
	return &Script{draws: draws}
}

// Forward is shorthand for a forward draw of amount.
func Forward(amount int64) Draw {
	return Draw{Forward: true, Amount: decimal.NewFromInt(amount)}
}

// Reverse is shorthand for a reverse draw of amount.
func Reverse(amount int64) Draw {
	return Draw{Forward: false, Amount: decimal.NewFromInt(amount)}
}

// Next implements Source.
func (s *Script) Next(float64, float64) (Draw, error) {
	if s.pos >= len(s.draws) {
		return Draw{}, ErrScriptExhausted
	}
	d := s.draws[s.pos]
	s.pos++
	return d, nil
}

// Remaining returns the number of draws not yet consumed.
func (s *Script) Remaining() int {
	return len(s.draws) - s.pos
}

// Rewind restarts the script from its first draw.
func (s *Script) Rewind() {
	s.pos = 0
}
