// Package optimistic runs a state change locally before the backend confirms
// it, then either reconciles with the confirmed state or rolls back.
package optimistic

import (
	"context"
)

// Action describes one optimistic change over a state of type T.
type Action[T comparable] struct {
	// Apply computes the optimistic state from the current one.
	Apply func(current T) T
	// Call performs the network request for the optimistic state and returns
	// the state the backend confirmed.
	Call func(ctx context.Context, optimistic T) (T, error)
	// Reconcile merges the confirmed state into the optimistic one.
	// When nil the confirmed state wins outright.
	Reconcile func(optimistic, confirmed T) T
	// Publish is told about every state the caller should display:
	// the optimistic one, then the reconciled or rolled back one.
	Publish func(state T)
}

// Outcome reports what Run did after the optimistic step.
type Outcome int

const (
	// Confirmed means the backend agreed with the optimistic state.
	Confirmed Outcome = iota
	// Overwritten means the backend's state differed and replaced it.
	Overwritten
	// RolledBack means the call failed and the snapshot was restored.
	RolledBack
)

func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case Overwritten:
		return "overwritten"
	case RolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// Run applies a, publishes the optimistic state synchronously, performs the
// call and returns the final state. On error the returned state is exactly
// current.
func Run[T comparable](ctx context.Context, current T, a Action[T]) (T, Outcome, error) {
	snapshot := current
	optimistic := a.Apply(current)
	publish(a, optimistic)

	confirmed, err := a.Call(ctx, optimistic)
	if err != nil {
		publish(a, snapshot)
		return snapshot, RolledBack, err
	}

	final := confirmed
	if a.Reconcile != nil {
		final = a.Reconcile(optimistic, confirmed)
	}
	if final == optimistic {
		return final, Confirmed, nil
	}
	publish(a, final)
	return final, Overwritten, nil
}

func publish[T comparable](a Action[T], state T) {
	if a.Publish != nil {
		a.Publish(state)
	}
}
