package channel

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Endpoint is one side of a payment channel. It is not safe for concurrent
// use; a scenario owns its endpoints exclusively.
type Endpoint struct {
	id     string
	policy Policy
	params Params
	state  State
}

// NewEndpoint creates an endpoint with full capacity and an empty fee ledger.
func NewEndpoint(id string, policy Policy, params Params) *Endpoint {
	return &Endpoint{
		id:     id,
		policy: policy,
		params: params,
		state:  InitialState(params),
	}
}

// Send attempts to push amount out of the channel.
func (e *Endpoint) Send(amount decimal.Decimal) Effect {
	return e.apply(Send(amount))
}

// Receive records the counterpart of a send made by the paired endpoint.
// senderOpen is the sender's IsOpen after that send.
func (e *Endpoint) Receive(amount decimal.Decimal, senderOpen bool) Effect {
	return e.apply(Receive(amount, senderOpen))
}

func (e *Endpoint) apply(ev Event) Effect {
	next, eff := Transition(e.state, ev, e.policy, e.params)
	e.state = next
	return eff
}

func (e *Endpoint) ID() string                  { return e.id }
func (e *Endpoint) Mode() Mode                  { return e.policy.Mode() }
func (e *Endpoint) Commission() decimal.Decimal { return e.policy.Commission() }
func (e *Endpoint) Capacity() decimal.Decimal   { return e.state.Capacity }
func (e *Endpoint) Fee() decimal.Decimal        { return e.state.Fee }
func (e *Endpoint) IsOpen() bool                { return e.state.Open }

func (e *Endpoint) String() string {
	return fmt.Sprintf("%s[%s capacity=%s fee=%s open=%t]",
		e.id, e.policy.Mode(), e.state.Capacity, e.state.Fee, e.state.Open)
}
