package domain

import (
	"errors"
	"time"
)

// Commands are the external inputs that drive a booking through its lifecycle.
// Transition applies one command to a booking loaded from storage; the caller
// persists the mutated record and executes the returned effects.

type Command interface {
	Kind() string
}

type AccountantApprove struct {
	Actor Actor
	Notes string
}

type AccountantReject struct {
	Actor  Actor
	Reason string
}

type MarkPaid struct {
	Actor Actor
}

type OpenReview struct {
	Actor Actor
}

type ApproveReview struct {
	Actor Actor
	Notes string
}

type ConfirmArrival struct {
	Actor Actor
}

type Complete struct {
	Actor Actor
}

type Cancel struct {
	Actor  Actor
	Reason string
}

type RequestRefund struct {
	Actor  Actor
	Reason string
}

type DecideRefund struct {
	Actor    Actor
	Approved bool
	Notes    string
}

func (AccountantApprove) Kind() string { return "accountant_approve" }
func (AccountantReject) Kind() string  { return "accountant_reject" }
func (MarkPaid) Kind() string          { return "mark_paid" }
func (OpenReview) Kind() string        { return "open_review" }
func (ApproveReview) Kind() string     { return "approve_review" }
func (ConfirmArrival) Kind() string    { return "confirm_arrival" }
func (Complete) Kind() string          { return "complete" }
func (Cancel) Kind() string            { return "cancel" }
func (RequestRefund) Kind() string     { return "request_refund" }
func (DecideRefund) Kind() string      { return "decide_refund" }

// AuditEntry and Notification are effect requests. The transition core only
// describes side effects; a dispatcher executes them and owns their failures.
type AuditEntry struct {
	Action      string
	Actor       Actor
	Description string
}

type Notification struct {
	Recipients []int64
	EventKind  string
	Message    string
}

type Effects struct {
	Audit         []AuditEntry
	Notifications []Notification
	// CapacityReleased is set when the transition frees the booking's hold on
	// the sailing ledger; the repository must release in the same unit of work.
	CapacityReleased bool
}

func (e *Effects) audit(action string, actor Actor, desc string) {
	e.Audit = append(e.Audit, AuditEntry{Action: action, Actor: actor, Description: desc})
}

func (e *Effects) notify(recipient int64, kind, msg string) {
	e.Notifications = append(e.Notifications, Notification{Recipients: []int64{recipient}, EventKind: kind, Message: msg})
}

// Transition applies cmd to b at time now. It mutates b (and b.Approval) in
// memory only; it performs no I/O. On error the booking must be considered
// unchanged and discarded.
func Transition(b *Booking, cmd Command, now time.Time) (Effects, error) {
	var fx Effects
	var err error

	switch c := cmd.(type) {
	case AccountantApprove:
		err = applyAccountantApprove(b, c, now, &fx)
	case AccountantReject:
		err = applyAccountantReject(b, c, now, &fx)
	case MarkPaid:
		err = applyMarkPaid(b, c, now, &fx)
	case OpenReview:
		err = applyOpenReview(b, c, now, &fx)
	case ApproveReview:
		err = applyApproveReview(b, c, now, &fx)
	case ConfirmArrival:
		err = applyConfirmArrival(b, c, now, &fx)
	case Complete:
		err = applyComplete(b, c, now, &fx)
	case Cancel:
		err = applyCancel(b, c, now, &fx)
	case RequestRefund:
		err = applyRequestRefund(b, c, now, &fx)
	case DecideRefund:
		err = applyDecideRefund(b, c, now, &fx)
	default:
		err = errors.New("unknown command")
	}
	if err != nil {
		return Effects{}, err
	}
	b.UpdatedAt = now
	return fx, nil
}

func conflict(b *Booking, requested BookingStatus) error {
	return &StateConflictError{Entity: "booking " + b.Code, Current: string(b.Status), Requested: string(requested)}
}

func ensureApproval(b *Booking, now time.Time) *Approval {
	if b.Approval == nil {
		b.Approval = NewApproval(b.ID, now)
	}
	return b.Approval
}

// applyAccountantApprove takes a PENDING booking into review. CONFIRMED is only
// a transient marker on this path: the booking comes to rest at IN_REVIEW with
// a fresh 30-minute window.
func applyAccountantApprove(b *Booking, c AccountantApprove, now time.Time, fx *Effects) error {
	if b.Status != BookingStatusPending {
		return conflict(b, BookingStatusConfirmed)
	}
	a := ensureApproval(b, now)
	if err := a.StartReview(now); err != nil {
		return err
	}
	a.ReviewNotes = c.Notes
	// CONFIRMED is never at rest on this path; the booking lands in review.
	b.Status = BookingStatusInReview
	fx.audit("booking_approved", c.Actor, "accountant approved, review window opened")
	fx.notify(b.CustomerID, "booking_approved", "your booking "+b.Code+" was approved and is under review")
	return nil
}

func applyAccountantReject(b *Booking, c AccountantReject, now time.Time, fx *Effects) error {
	if b.Status != BookingStatusPending {
		return conflict(b, BookingStatusCancelled)
	}
	if c.Reason == "" {
		return errors.New("rejection reason is required")
	}
	a := ensureApproval(b, now)
	if err := a.Reject(c.Actor, c.Reason, now); err != nil {
		return err
	}
	b.Status = BookingStatusCancelled
	b.CancelledBy = c.Actor.Label()
	b.CancelReason = c.Reason
	b.CancelledAt = &now
	fx.CapacityReleased = true
	fx.audit("booking_rejected", c.Actor, "accountant rejected: "+c.Reason)
	fx.notify(b.CustomerID, "booking_rejected", "your booking "+b.Code+" was rejected: "+c.Reason)
	return nil
}

func applyMarkPaid(b *Booking, c MarkPaid, now time.Time, fx *Effects) error {
	if b.Status != BookingStatusConfirmed && b.Status != BookingStatusWaitingForPayment {
		return conflict(b, BookingStatusPaid)
	}
	b.Status = BookingStatusPaid
	fx.audit("booking_paid", c.Actor, "payment confirmed")
	fx.notify(b.CustomerID, "booking_paid", "payment received for booking "+b.Code)
	return nil
}

// applyOpenReview opens or refreshes the 30-minute review window from a paid or
// confirmed booking.
func applyOpenReview(b *Booking, c OpenReview, now time.Time, fx *Effects) error {
	if b.Status != BookingStatusPaid && b.Status != BookingStatusConfirmed {
		return conflict(b, BookingStatusInReview)
	}
	a := ensureApproval(b, now)
	if err := a.StartReview(now); err != nil {
		return err
	}
	b.Status = BookingStatusInReview
	fx.audit("review_opened", c.Actor, "review window opened")
	return nil
}

func applyApproveReview(b *Booking, c ApproveReview, now time.Time, fx *Effects) error {
	if b.Status != BookingStatusInReview {
		return conflict(b, BookingStatusInProgress)
	}
	a := ensureApproval(b, now)
	if err := a.Approve(c.Actor, c.Notes, now); err != nil {
		return err
	}
	b.Status = BookingStatusInProgress
	if c.Actor.System {
		fx.audit("review_auto_approved", c.Actor, "auto-approved: review window expired")
	} else {
		fx.audit("review_approved", c.Actor, "review approved")
	}
	fx.notify(b.CustomerID, "booking_in_progress", "booking "+b.Code+" is now in progress")
	return nil
}

func applyConfirmArrival(b *Booking, c ConfirmArrival, now time.Time, fx *Effects) error {
	if b.Status != BookingStatusInProgress {
		return &IneligibleError{Status: b.Status, Reason: "arrival can only be confirmed while in progress"}
	}
	if !c.Actor.System && !c.Actor.IsStaff() && c.Actor.ID != b.CustomerID {
		return ErrForbidden
	}
	b.ArrivalConfirmedAt = &now
	fx.audit("arrival_confirmed", c.Actor, "arrival confirmed")
	return nil
}

// applyComplete closes the trip. Only the owning customer (or staff) may
// complete a booking.
func applyComplete(b *Booking, c Complete, now time.Time, fx *Effects) error {
	if b.Status != BookingStatusInProgress {
		return conflict(b, BookingStatusCompleted)
	}
	if !c.Actor.System && !c.Actor.IsStaff() && c.Actor.ID != b.CustomerID {
		return ErrForbidden
	}
	b.Status = BookingStatusCompleted
	b.CompletedAt = &now
	fx.audit("booking_completed", c.Actor, "booking completed")
	fx.notify(b.CustomerID, "booking_completed", "booking "+b.Code+" completed, thank you")
	return nil
}

// applyCancel handles manual cancellation. Money already collected (PAID,
// IN_PROGRESS) routes to IN_REFUND instead of CANCELLED; IN_REVIEW bookings must
// go through the time-windowed refund request instead.
func applyCancel(b *Booking, c Cancel, now time.Time, fx *Effects) error {
	if c.Reason == "" {
		return errors.New("cancellation reason is required")
	}
	switch b.Status {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusWaitingForPayment:
		b.Status = BookingStatusCancelled
		b.CancelledBy = c.Actor.Label()
		b.CancelReason = c.Reason
		b.CancelledAt = &now
		if a := b.Approval; a != nil {
			a.ForceReject(c.Actor, "booking cancelled: "+c.Reason, now)
		}
		fx.CapacityReleased = true
		fx.audit("booking_cancelled", c.Actor, "cancelled: "+c.Reason)
		fx.notify(b.CustomerID, "booking_cancelled", "booking "+b.Code+" was cancelled")
		return nil
	case BookingStatusPaid, BookingStatusInProgress:
		return beginRefund(b, c.Actor, c.Reason, now, fx)
	default:
		return conflict(b, BookingStatusCancelled)
	}
}

func applyRequestRefund(b *Booking, c RequestRefund, now time.Time, fx *Effects) error {
	if c.Reason == "" {
		return errors.New("refund reason is required")
	}
	if !b.CanRequestRefund(now) {
		reason := "booking is not eligible for a refund"
		if b.Status == BookingStatusInReview {
			reason = "review window has closed, refund no longer possible"
		}
		if b.RefundRequested {
			reason = "a refund request is already pending"
		}
		return &IneligibleError{Status: b.Status, Reason: reason}
	}
	return beginRefund(b, c.Actor, c.Reason, now, fx)
}

func beginRefund(b *Booking, actor Actor, reason string, now time.Time, fx *Effects) error {
	b.StatusBeforeRefund = b.Status
	b.Status = BookingStatusInRefund
	b.RefundRequested = true
	b.RefundReason = reason
	b.RefundRequestedBy = actor.Label()
	b.RefundRequestedAt = &now
	fx.audit("refund_requested", actor, "refund requested: "+reason)
	fx.notify(b.CustomerID, "refund_requested", "refund requested for booking "+b.Code)
	return nil
}

// applyDecideRefund resolves an open refund request. Approval stamps the
// cancellation fields and lands on REFUNDED; a still-open review approval is
// forced to REJECTED so no parallel approval can fire afterwards. Rejection
// clears the request and restores the status the booking held before it.
func applyDecideRefund(b *Booking, c DecideRefund, now time.Time, fx *Effects) error {
	if b.Status != BookingStatusInRefund || !b.RefundRequested {
		return ErrNoPendingRefund
	}
	b.RefundProcessedBy = c.Actor.Label()
	b.RefundProcessedAt = &now
	b.RefundNotes = c.Notes

	if !c.Approved {
		b.RefundRequested = false
		if b.StatusBeforeRefund != "" {
			b.Status = b.StatusBeforeRefund
		}
		b.StatusBeforeRefund = ""
		fx.audit("refund_rejected", c.Actor, "refund rejected: "+c.Notes)
		fx.notify(b.CustomerID, "refund_rejected", "refund request for booking "+b.Code+" was declined")
		return nil
	}

	b.CancelledBy = c.Actor.Label()
	b.CancelReason = b.RefundReason
	b.CancelledAt = &now
	b.Status = BookingStatusRefunded
	b.StatusBeforeRefund = ""
	if a := b.Approval; a != nil {
		a.ForceReject(c.Actor, "refund approved", now)
	}
	fx.CapacityReleased = true
	fx.audit("refund_approved", c.Actor, "refund approved")
	fx.notify(b.CustomerID, "refund_approved", "refund approved for booking "+b.Code)
	return nil
}
