package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/strandline/ferrybooking/internal/domain"
)

// OverdueReview is one sweep candidate: an open review whose deadline passed.
type OverdueReview struct {
	ApprovalID  int64
	BookingID   int64
	BookingCode string
	CustomerID  int64
}

type BookingRepository interface {
	// Create reserves sailing capacity, inserts the booking with its vehicle
	// allocations and a PENDING approval, all in one transaction. The booking
	// never exists without its capacity having been deducted.
	Create(ctx context.Context, booking *domain.Booking) error
	GetByCode(ctx context.Context, code string) (*domain.Booking, error)
	// Update persists a transitioned booking (and its approval) guarded by the
	// status the transition started from; a concurrent writer that got there
	// first makes this a state conflict. releaseCapacity returns the booking's
	// ledger hold in the same transaction.
	Update(ctx context.Context, booking *domain.Booking, expect domain.BookingStatus, releaseCapacity bool) error
	AddVehicle(ctx context.Context, booking *domain.Booking, alloc *domain.VehicleAllocation) error
	RemoveVehicle(ctx context.Context, booking *domain.Booking, vehicleID int64) error
	ListOverdueReviews(ctx context.Context, now time.Time) ([]OverdueReview, error)
	// AdvanceOverdueReview auto-approves one overdue review and moves its
	// booking to IN_PROGRESS in a single transaction, re-checking the IN_REVIEW
	// guard so a manual decision that landed first wins. Returns false when the
	// record was already handled.
	AdvanceOverdueReview(ctx context.Context, rev OverdueReview, now time.Time) (bool, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := reserveCapacity(ctx, tx, booking.SailingID, booking.VehicleCount(), booking.Passengers); err != nil {
		return err
	}

	booking.Status = domain.BookingStatusPending
	if err := tx.QueryRow(ctx, `INSERT INTO bookings
			(code, customer_id, sailing_id, passengers, amount_cents, status, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		booking.Code, booking.CustomerID, booking.SailingID, booking.Passengers,
		booking.AmountCents, booking.Status, booking.Note).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return err
	}

	for i := range booking.Vehicles {
		alloc := &booking.Vehicles[i]
		alloc.BookingID = booking.ID
		if err := tx.QueryRow(ctx, `INSERT INTO booking_vehicles (booking_id, vehicle_id, vehicle_type, quantity)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			alloc.BookingID, alloc.VehicleID, alloc.Type, alloc.Quantity).Scan(&alloc.ID); err != nil {
			return err
		}
	}

	approval := domain.NewApproval(booking.ID, booking.CreatedAt)
	if err := tx.QueryRow(ctx, `INSERT INTO approvals (booking_id, status) VALUES ($1, $2)
		RETURNING id, created_at, updated_at`, approval.BookingID, approval.Status).
		Scan(&approval.ID, &approval.CreatedAt, &approval.UpdatedAt); err != nil {
		return err
	}
	booking.Approval = approval

	return tx.Commit(ctx)
}

const bookingColumns = `id, code, customer_id, sailing_id, passengers, amount_cents, status, note,
	cancelled_by, cancel_reason, cancelled_at,
	refund_requested, refund_reason, refund_requested_by, refund_requested_at,
	refund_processed_by, refund_processed_at, refund_notes, status_before_refund,
	arrival_confirmed_at, completed_at, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.Code, &b.CustomerID, &b.SailingID, &b.Passengers, &b.AmountCents,
		&b.Status, &b.Note,
		&b.CancelledBy, &b.CancelReason, &b.CancelledAt,
		&b.RefundRequested, &b.RefundReason, &b.RefundRequestedBy, &b.RefundRequestedAt,
		&b.RefundProcessedBy, &b.RefundProcessedAt, &b.RefundNotes, &b.StatusBeforeRefund,
		&b.ArrivalConfirmedAt, &b.CompletedAt, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) GetByCode(ctx context.Context, code string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE code=$1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("booking %s: %w", code, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT id, booking_id, vehicle_id, vehicle_type, quantity
		FROM booking_vehicles WHERE booking_id=$1 ORDER BY id`, b.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var v domain.VehicleAllocation
		if err := rows.Scan(&v.ID, &v.BookingID, &v.VehicleID, &v.Type, &v.Quantity); err != nil {
			return nil, err
		}
		b.Vehicles = append(b.Vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	approval, err := getApproval(ctx, r.db, b.ID)
	if err != nil {
		return nil, err
	}
	b.Approval = approval
	return b, nil
}

func getApproval(ctx context.Context, q execer, bookingID int64) (*domain.Approval, error) {
	row := q.QueryRow(ctx, `SELECT id, booking_id, status,
			review_started_at, review_deadline, reviewed_by, reviewed_at, review_notes,
			approved_by, approved_at, rejected_by, rejected_at, rejection_reason,
			created_at, updated_at
		FROM approvals WHERE booking_id=$1`, bookingID)
	var a domain.Approval
	var deadline *time.Time
	err := row.Scan(&a.ID, &a.BookingID, &a.Status,
		&a.ReviewStartedAt, &deadline, &a.ReviewedBy, &a.ReviewedAt, &a.ReviewNotes,
		&a.ApprovedBy, &a.ApprovedAt, &a.RejectedBy, &a.RejectedAt, &a.RejectionReason,
		&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if deadline != nil {
		a.ReviewDeadline = *deadline
	}
	return &a, nil
}

func (r *PGBookingRepository) Update(ctx context.Context, booking *domain.Booking, expect domain.BookingStatus, release bool) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `UPDATE bookings SET
			status=$3, note=$4,
			cancelled_by=$5, cancel_reason=$6, cancelled_at=$7,
			refund_requested=$8, refund_reason=$9, refund_requested_by=$10, refund_requested_at=$11,
			refund_processed_by=$12, refund_processed_at=$13, refund_notes=$14, status_before_refund=$15,
			arrival_confirmed_at=$16, completed_at=$17, updated_at=now()
		WHERE id=$1 AND status=$2`,
		booking.ID, expect, booking.Status, booking.Note,
		booking.CancelledBy, booking.CancelReason, booking.CancelledAt,
		booking.RefundRequested, booking.RefundReason, booking.RefundRequestedBy, booking.RefundRequestedAt,
		booking.RefundProcessedBy, booking.RefundProcessedAt, booking.RefundNotes, booking.StatusBeforeRefund,
		booking.ArrivalConfirmedAt, booking.CompletedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var current domain.BookingStatus
		if err := tx.QueryRow(ctx, `SELECT status FROM bookings WHERE id=$1`, booking.ID).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("booking %s: %w", booking.Code, domain.ErrNotFound)
			}
			return err
		}
		return &domain.StateConflictError{Entity: "booking " + booking.Code, Current: string(current), Requested: string(booking.Status)}
	}

	if a := booking.Approval; a != nil {
		var deadline *time.Time
		if !a.ReviewDeadline.IsZero() {
			deadline = &a.ReviewDeadline
		}
		if _, err := tx.Exec(ctx, `UPDATE approvals SET
				status=$2, review_started_at=$3, review_deadline=$4, reviewed_by=$5, reviewed_at=$6,
				review_notes=$7, approved_by=$8, approved_at=$9, rejected_by=$10, rejected_at=$11,
				rejection_reason=$12, updated_at=now()
			WHERE id=$1`,
			a.ID, a.Status, a.ReviewStartedAt, deadline, a.ReviewedBy, a.ReviewedAt,
			a.ReviewNotes, a.ApprovedBy, a.ApprovedAt, a.RejectedBy, a.RejectedAt,
			a.RejectionReason); err != nil {
			return err
		}
	}

	if release {
		if err := releaseCapacity(ctx, tx, booking.SailingID, booking.VehicleCount(), booking.Passengers); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// AddVehicle is a partial reserve against the same ledger: capacity is
// re-validated and deducted in the transaction that records the allocation.
func (r *PGBookingRepository) AddVehicle(ctx context.Context, booking *domain.Booking, alloc *domain.VehicleAllocation) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := reserveCapacity(ctx, tx, booking.SailingID, alloc.Quantity, 0); err != nil {
		return err
	}
	alloc.BookingID = booking.ID
	if err := tx.QueryRow(ctx, `INSERT INTO booking_vehicles (booking_id, vehicle_id, vehicle_type, quantity)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		alloc.BookingID, alloc.VehicleID, alloc.Type, alloc.Quantity).Scan(&alloc.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE bookings SET updated_at=now() WHERE id=$1`, booking.ID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RemoveVehicle releases the allocation's quantity back to the ledger in the
// same transaction that removes it.
func (r *PGBookingRepository) RemoveVehicle(ctx context.Context, booking *domain.Booking, vehicleID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var quantity int
	err = tx.QueryRow(ctx, `DELETE FROM booking_vehicles WHERE booking_id=$1 AND vehicle_id=$2 RETURNING quantity`,
		booking.ID, vehicleID).Scan(&quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("vehicle %d on booking %s: %w", vehicleID, booking.Code, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if err := releaseCapacity(ctx, tx, booking.SailingID, quantity, 0); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE bookings SET updated_at=now() WHERE id=$1`, booking.ID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGBookingRepository) ListOverdueReviews(ctx context.Context, now time.Time) ([]OverdueReview, error) {
	rows, err := r.db.Query(ctx, `SELECT a.id, b.id, b.code, b.customer_id
		FROM approvals a
		JOIN bookings b ON b.id = a.booking_id
		WHERE a.status = $1 AND a.review_deadline < $2
		ORDER BY a.review_deadline`, domain.ApprovalStatusInReview, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overdue []OverdueReview
	for rows.Next() {
		var o OverdueReview
		if err := rows.Scan(&o.ApprovalID, &o.BookingID, &o.BookingCode, &o.CustomerID); err != nil {
			return nil, err
		}
		overdue = append(overdue, o)
	}
	return overdue, rows.Err()
}

func (r *PGBookingRepository) AdvanceOverdueReview(ctx context.Context, rev OverdueReview, now time.Time) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	// The guard is re-checked here, not at list time: a manual approve or
	// reject that committed in between wins and this becomes a no-op.
	cmd, err := tx.Exec(ctx, `UPDATE approvals SET
			status=$2, approved_at=$3, reviewed_at=$3, review_notes=$4, updated_at=now()
		WHERE id=$1 AND status=$5 AND review_deadline < $3`,
		rev.ApprovalID, domain.ApprovalStatusApproved, now, "auto-approved: timeout", domain.ApprovalStatusInReview)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() == 0 {
		return false, nil
	}

	cmd, err = tx.Exec(ctx, `UPDATE bookings SET status=$2, updated_at=now() WHERE id=$1 AND status=$3`,
		rev.BookingID, domain.BookingStatusInProgress, domain.BookingStatusInReview)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() == 0 {
		// Booking moved away from IN_REVIEW concurrently; let the rollback
		// undo the approval change too.
		return false, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
