// Package channel models one side of a bidirectional payment channel.
//
// An endpoint holds a capacity and a running fee ledger. Every change to
// that state goes through Transition, which applies a Send or Receive event
// under the endpoint's recovery Policy and reports what happened as an
// Effect. Running out of capacity is a state transition, never an error.
//
// Usage:
//
//	params := channel.DefaultParams()
//	a := channel.NewEndpoint("A", channel.NewClosing(decimal.Zero), params)
//	b := channel.NewEndpoint("B", channel.NewClosing(decimal.NewFromInt(7000)), params)
//	a.Send(amount)
//	b.Receive(amount, a.IsOpen())
package channel

import (
	"fmt"

	"github.com/nvandessel/chansim/internal/constants"
	"github.com/shopspring/decimal"
)

// Params holds the fee schedule and reset target shared by every endpoint
// in a scenario.
type Params struct {
	// InitialCapacity is both the starting capacity and the value a reset
	// restores.
	InitialCapacity decimal.Decimal `json:"initial_capacity"`

	// Rate is the proportional fee charged per unit received.
	Rate decimal.Decimal `json:"rate"`

	// BaseFee is the fixed fee charged per successful transfer.
	BaseFee decimal.Decimal `json:"base_fee"`
}

// DefaultParams returns the reference parameters: 1 BTC capacity, a
// 1e-8 rate and a base fee of one satoshi.
func DefaultParams() Params {
	return Params{
		InitialCapacity: decimal.NewFromInt(constants.InitialCapacity),
		Rate:            decimal.RequireFromString(constants.FeeRate),
		BaseFee:         decimal.RequireFromString(constants.BaseFee),
	}
}

// State is the mutable part of an endpoint.
type State struct {
	Capacity decimal.Decimal `json:"capacity"`
	Fee      decimal.Decimal `json:"fee"`

	// Open reports whether the last attempted send succeeded.
	Open bool `json:"open"`
}

// InitialState returns the state an endpoint starts a scenario in.
func InitialState(p Params) State {
	return State{
		Capacity: p.InitialCapacity,
		Fee:      decimal.Zero,
		Open:     true,
	}
}

// EventKind distinguishes the two things that can happen to an endpoint.
type EventKind int

const (
	// EventSend is an attempt to push an amount out of the endpoint.
	EventSend EventKind = iota
	// EventReceive is the counterpart of a send made by the paired endpoint.
	EventReceive
)

func (k EventKind) String() string {
	switch k {
	case EventSend:
		return "send"
	case EventReceive:
		return "receive"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is an input to Transition.
type Event struct {
	Kind   EventKind
	Amount decimal.Decimal

	// SenderOpen is the paired sender's open flag. Only meaningful for
	// EventReceive.
	SenderOpen bool
}

// Send builds a send event.
func Send(amount decimal.Decimal) Event {
	return Event{Kind: EventSend, Amount: amount}
}

// Receive builds a receive event.
func Receive(amount decimal.Decimal, senderOpen bool) Event {
	return Event{Kind: EventReceive, Amount: amount, SenderOpen: senderOpen}
}

// Outcome names the branch Transition took.
type Outcome string

const (
	// OutcomeTransferred: a send was covered by capacity.
	OutcomeTransferred Outcome = "transferred"
	// OutcomeCredited: a receive from an open sender earned a fee.
	OutcomeCredited Outcome = "credited"
	// OutcomeReset: the closing policy paid its commission and restored capacity.
	OutcomeReset Outcome = "reset"
	// OutcomeStalled: the waiting policy refused a send it could not cover.
	OutcomeStalled Outcome = "stalled"
	// OutcomeIgnored: the waiting policy saw a failed sender and did nothing.
	OutcomeIgnored Outcome = "ignored"
)

// Effect describes the side effects of one transition.
type Effect struct {
	Outcome Outcome

	// Amount is the capacity moved: deducted on transfer, added on credit,
	// zero otherwise.
	Amount decimal.Decimal

	// FeeIncome is the fee earned on credit.
	FeeIncome decimal.Decimal

	// Commission is the cost paid on reset.
	Commission decimal.Decimal
}

// FeeDelta is the net change the effect made to the fee ledger.
func (e Effect) FeeDelta() decimal.Decimal {
	return e.FeeIncome.Sub(e.Commission)
}
