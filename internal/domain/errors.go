package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks absent customers, vehicles, sailings, bookings and
	// approvals; wrap it with the entity for context.
	ErrNotFound = errors.New("not found")

	// ErrNoPendingRefund is returned by a refund decision when the booking has
	// no open refund request.
	ErrNoPendingRefund = errors.New("no pending refund request")

	// ErrForbidden marks an actor acting on a booking they do not own.
	ErrForbidden = errors.New("forbidden")
)

// CapacityError reports that a sailing's ledger cannot cover the requested
// vehicle/passenger quantities. Never retried automatically.
type CapacityError struct {
	SailingID  int64
	Vehicles   int
	Passengers int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("sailing %d: insufficient capacity for %d vehicles, %d passengers", e.SailingID, e.Vehicles, e.Passengers)
}

// StateConflictError reports an illegal transition, naming the current and
// requested states. Illegal edges never silently no-op.
type StateConflictError struct {
	Entity    string
	Current   string
	Requested string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("%s is %s, cannot move to %s", e.Entity, e.Current, e.Requested)
}

// IneligibleError reports an operation that is legal in general but not for the
// booking's current state, carrying the status for diagnostics.
type IneligibleError struct {
	Status BookingStatus
	Reason string
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("%s (status %s)", e.Reason, e.Status)
}
