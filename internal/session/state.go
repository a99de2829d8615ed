package session

import "zapnode/internal/model"

// Event is a lifecycle event applied to a session's state.
type Event string

const (
	EventQRReceived       Event = "qr_received"
	EventAuthenticated    Event = "authenticated"
	EventReady            Event = "ready"
	EventAuthFailure      Event = "auth_failure"
	EventDisconnected     Event = "disconnected"
	EventLogoutDetected   Event = "logout_detected"
	EventTeardownComplete Event = "teardown_complete"
	EventDelete           Event = "delete"
)

// Next applies ev to current and returns the next state. The second return is
// false when the event is not valid in the current state; callers treat that
// as a no-op, never as a fault. Next has no side effects.
func Next(current model.SessionState, ev Event) (model.SessionState, bool) {
	// An explicit delete forces teardown from any live state.
	if ev == EventDelete {
		switch current {
		case model.StateCleaningUp, model.StateRemoved:
			return current, false
		default:
			return model.StateCleaningUp, true
		}
	}

	switch current {
	case model.StateCreated:
		switch ev {
		case EventQRReceived:
			return model.StateAuthenticating, true
		case EventReady:
			return model.StateReady, true
		case EventAuthFailure:
			return model.StateFailed, true
		case EventDisconnected:
			return model.StateDisconnected, true
		}

	case model.StateAuthenticating:
		switch ev {
		case EventReady:
			return model.StateReady, true
		case EventAuthFailure:
			return model.StateFailed, true
		case EventDisconnected:
			return model.StateDisconnected, true
		}

	case model.StateReady:
		if ev == EventDisconnected {
			return model.StateDisconnected, true
		}

	case model.StateDisconnected:
		switch ev {
		case EventLogoutDetected:
			return model.StateCleaningUp, true
		case EventReady:
			// Network drops recover without leaving the table.
			return model.StateReady, true
		case EventQRReceived:
			return model.StateAuthenticating, true
		}

	case model.StateCleaningUp:
		if ev == EventTeardownComplete {
			return model.StateRemoved, true
		}
	}

	return current, false
}
