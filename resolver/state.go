package resolver

import "fmt"

// State is one stage of a request's lifecycle (spec §6 "Request
// lifecycle"): a GraphQL operation moves through these stages in
// order, never skipping or looping back, except that Executing may end
// at either Committed or RolledBack.
type State uint8

const (
	Received State = iota
	Parsed
	Validated
	Planned
	Executing
	Committed
	RolledBack
	Responded
)

func (s State) String() string {
	switch s {
	case Received:
		return "Received"
	case Parsed:
		return "Parsed"
	case Validated:
		return "Validated"
	case Planned:
		return "Planned"
	case Executing:
		return "Executing"
	case Committed:
		return "Committed"
	case RolledBack:
		return "RolledBack"
	case Responded:
		return "Responded"
	default:
		return "Unknown"
	}
}

// transitions enumerates every state a request is allowed to move to
// from its current one. A request that errors mid-flight stops
// advancing rather than being forced into some "Failed" state of its
// own: the caller reports the error and the request's State simply
// records how far it got (spec §6 doesn't define a distinct error
// state, just "the request stops advancing").
var transitions = map[State][]State{
	Received:   {Parsed},
	Parsed:     {Validated},
	Validated:  {Planned},
	Planned:    {Executing},
	Executing:  {Committed, RolledBack},
	Committed:  {Responded},
	RolledBack: {Responded},
	Responded:  {},
}

// advance moves s to next, returning an error if the transition isn't
// one the lifecycle allows.
func advance(s State, next State) (State, error) {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return next, nil
		}
	}
	return s, fmt.Errorf("resolver: illegal state transition %s -> %s", s, next)
}
