package uci

import "errors"

// Error kinds surfaced by the engine session layer.
var (
	// ErrSpawn: the engine binary is missing or could not be launched. Fatal;
	// no request can proceed until a later Start succeeds.
	ErrSpawn = errors.New("engine spawn failed")

	// ErrCommunication: broken pipe or unexpected stream closure that survived
	// the single restart-and-retry attempt.
	ErrCommunication = errors.New("engine communication failed")

	// ErrProtocolStall: the engine never produced the expected token before
	// the deadline.
	ErrProtocolStall = errors.New("engine protocol stall")
)

// State tracks the lifecycle of the engine session.
type State int

const (
	StateUninitialized State = iota
	StateAwaitingReady
	StateReady
	StateSearching
	StateDead
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAwaitingReady:
		return "awaiting-ready"
	case StateReady:
		return "ready"
	case StateSearching:
		return "searching"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}
