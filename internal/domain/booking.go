package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending           BookingStatus = "PENDING"
	BookingStatusConfirmed         BookingStatus = "CONFIRMED"
	BookingStatusWaitingForPayment BookingStatus = "WAITING_FOR_PAYMENT"
	BookingStatusPaid              BookingStatus = "PAID"
	BookingStatusInReview          BookingStatus = "IN_REVIEW"
	BookingStatusInProgress        BookingStatus = "IN_PROGRESS"
	BookingStatusCompleted         BookingStatus = "COMPLETED"
	BookingStatusCancelled         BookingStatus = "CANCELLED"
	BookingStatusInRefund          BookingStatus = "IN_REFUND"
	BookingStatusRefunded          BookingStatus = "REFUNDED"
)

// VehicleAllocation ties one directory vehicle to a booking. Releasing an
// allocation must be paired with a capacity release of the same quantity.
type VehicleAllocation struct {
	ID        int64
	BookingID int64
	VehicleID int64
	Type      string
	Quantity  int
}

type Booking struct {
	ID          int64
	Code        string
	CustomerID  int64
	SailingID   int64
	Vehicles    []VehicleAllocation
	Passengers  int
	AmountCents int64
	Status      BookingStatus
	Note        string

	CancelledBy  string
	CancelReason string
	CancelledAt  *time.Time

	RefundRequested    bool
	RefundReason       string
	RefundRequestedBy  string
	RefundRequestedAt  *time.Time
	RefundProcessedBy  string
	RefundProcessedAt  *time.Time
	RefundNotes        string
	StatusBeforeRefund BookingStatus

	ArrivalConfirmedAt *time.Time
	CompletedAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Approval *Approval
}

// VehicleCount is the total vehicle quantity held against the sailing's ledger.
func (b *Booking) VehicleCount() int {
	total := 0
	for _, v := range b.Vehicles {
		total += v.Quantity
	}
	return total
}

func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusRefunded:
		return true
	}
	return false
}

// CanRequestRefund reports whether a refund request is admissible right now.
// IN_REVIEW bookings are eligible only while the review deadline has not passed;
// once the review is progressing past its window the edge is closed.
func (b *Booking) CanRequestRefund(now time.Time) bool {
	if b.RefundRequested {
		return false
	}
	switch b.Status {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusWaitingForPayment, BookingStatusPaid:
		return true
	case BookingStatusInReview:
		return b.Approval != nil && now.Before(b.Approval.ReviewDeadline)
	}
	return false
}
