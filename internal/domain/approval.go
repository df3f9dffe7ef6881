package domain

import "time"

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusInReview ApprovalStatus = "IN_REVIEW"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// ReviewWindow is how long a review stays open before the sweeper may
// auto-approve it.
const ReviewWindow = 30 * time.Minute

// Approval is the review sub-record owned by exactly one booking. The booking
// holds it; the approval never points back.
type Approval struct {
	ID        int64
	BookingID int64
	Status    ApprovalStatus

	ReviewStartedAt *time.Time
	ReviewDeadline  time.Time
	ReviewedBy      string
	ReviewedAt      *time.Time
	ReviewNotes     string

	ApprovedBy string
	ApprovedAt *time.Time

	RejectedBy      string
	RejectedAt      *time.Time
	RejectionReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewApproval(bookingID int64, now time.Time) *Approval {
	return &Approval{
		BookingID: bookingID,
		Status:    ApprovalStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// StartReview opens the review window. Legal only from PENDING; calling it on
// an already open review refreshes the deadline instead of failing.
func (a *Approval) StartReview(now time.Time) error {
	switch a.Status {
	case ApprovalStatusPending, ApprovalStatusInReview:
	default:
		return &StateConflictError{Entity: "approval", Current: string(a.Status), Requested: string(ApprovalStatusInReview)}
	}
	started := now
	a.ReviewStartedAt = &started
	a.ReviewDeadline = now.Add(ReviewWindow)
	a.Status = ApprovalStatusInReview
	a.UpdatedAt = now
	return nil
}

// Approve resolves the review. A system actor records an empty approver, which
// is how a timeout auto-approval is distinguished from a manual one.
func (a *Approval) Approve(actor Actor, notes string, now time.Time) error {
	if a.Status != ApprovalStatusPending && a.Status != ApprovalStatusInReview {
		return &StateConflictError{Entity: "approval", Current: string(a.Status), Requested: string(ApprovalStatusApproved)}
	}
	a.Status = ApprovalStatusApproved
	a.ApprovedBy = actor.Label()
	a.ApprovedAt = &now
	a.ReviewedBy = actor.Label()
	a.ReviewedAt = &now
	a.ReviewNotes = notes
	a.UpdatedAt = now
	return nil
}

func (a *Approval) Reject(actor Actor, reason string, now time.Time) error {
	if a.Status != ApprovalStatusPending && a.Status != ApprovalStatusInReview {
		return &StateConflictError{Entity: "approval", Current: string(a.Status), Requested: string(ApprovalStatusRejected)}
	}
	a.Status = ApprovalStatusRejected
	a.RejectedBy = actor.Label()
	a.RejectedAt = &now
	a.RejectionReason = reason
	a.ReviewedBy = actor.Label()
	a.ReviewedAt = &now
	a.UpdatedAt = now
	return nil
}

// ForceReject terminates a still-open review when a refund is approved mid-flight.
// Unlike Reject it never fails on an already resolved approval: refund processing
// must not abort because a parallel approval landed first. It reports whether the
// approval was actually forced.
func (a *Approval) ForceReject(actor Actor, reason string, now time.Time) bool {
	if a.Status == ApprovalStatusApproved || a.Status == ApprovalStatusRejected {
		return false
	}
	_ = a.Reject(actor, reason, now)
	return true
}

// ReviewOverdue reports whether the review window has elapsed without a decision.
func (a *Approval) ReviewOverdue(now time.Time) bool {
	return a.Status == ApprovalStatusInReview && now.After(a.ReviewDeadline)
}
