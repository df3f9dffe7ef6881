package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/strandline/ferrybooking/internal/domain"
)

type SailingRepository interface {
	List(ctx context.Context) ([]domain.Sailing, error)
	GetByID(ctx context.Context, id int64) (*domain.Sailing, error)
	CapacityInfo(ctx context.Context, id int64) (*domain.CapacityInfo, error)
	ReleaseCapacity(ctx context.Context, sailingID int64, vehicles, passengers int) error
}

type PGSailingRepository struct {
	db *pgxpool.Pool
}

func NewSailingRepository(db *pgxpool.Pool) SailingRepository {
	return &PGSailingRepository{db: db}
}

const sailingColumns = `id, route_from, route_to, departure_time, arrival_time, status,
	total_vehicles, total_passengers, available_vehicles, available_passengers,
	booking_deadline, check_in_opens_at, check_in_closes_at, created_at, updated_at`

func scanSailing(row pgx.Row) (*domain.Sailing, error) {
	var s domain.Sailing
	err := row.Scan(&s.ID, &s.RouteFrom, &s.RouteTo, &s.DepartureTime, &s.ArrivalTime, &s.Status,
		&s.TotalVehicles, &s.TotalPassengers, &s.AvailableVehicles, &s.AvailablePassengers,
		&s.BookingDeadline, &s.CheckInOpensAt, &s.CheckInClosesAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGSailingRepository) List(ctx context.Context) ([]domain.Sailing, error) {
	rows, err := r.db.Query(ctx, `SELECT `+sailingColumns+` FROM sailings ORDER BY departure_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sailings := make([]domain.Sailing, 0)
	for rows.Next() {
		s, err := scanSailing(rows)
		if err != nil {
			return nil, err
		}
		sailings = append(sailings, *s)
	}
	return sailings, rows.Err()
}

func (r *PGSailingRepository) GetByID(ctx context.Context, id int64) (*domain.Sailing, error) {
	s, err := scanSailing(r.db.QueryRow(ctx, `SELECT `+sailingColumns+` FROM sailings WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("sailing %d: %w", id, domain.ErrNotFound)
	}
	return s, err
}

func (r *PGSailingRepository) CapacityInfo(ctx context.Context, id int64) (*domain.CapacityInfo, error) {
	row := r.db.QueryRow(ctx, `SELECT id, total_vehicles, total_passengers, available_vehicles, available_passengers FROM sailings WHERE id=$1`, id)
	var info domain.CapacityInfo
	err := row.Scan(&info.SailingID, &info.TotalVehicles, &info.TotalPassengers, &info.AvailableVehicles, &info.AvailablePassengers)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("sailing %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// ReleaseCapacity returns vehicle and passenger spaces to the ledger, clamped so
// available never exceeds total.
func (r *PGSailingRepository) ReleaseCapacity(ctx context.Context, sailingID int64, vehicles, passengers int) error {
	return releaseCapacity(ctx, r.db, sailingID, vehicles, passengers)
}

// execer is satisfied by both *pgxpool.Pool and pgx.Tx, so the two capacity
// statements can run standalone or inside the transaction of a booking change.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func releaseCapacity(ctx context.Context, q execer, sailingID int64, vehicles, passengers int) error {
	cmd, err := q.Exec(ctx, `UPDATE sailings SET
			available_vehicles = LEAST(total_vehicles, available_vehicles + $2),
			available_passengers = LEAST(total_passengers, available_passengers + $3),
			updated_at = now()
		WHERE id = $1`, sailingID, vehicles, passengers)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("sailing %d: %w", sailingID, domain.ErrNotFound)
	}
	return nil
}

// reserveCapacity decrements the ledger counters inside the caller's
// transaction. The WHERE clause is the only capacity check: zero rows with an
// existing sailing means insufficient space.
func reserveCapacity(ctx context.Context, q execer, sailingID int64, vehicles, passengers int) error {
	cmd, err := q.Exec(ctx, `UPDATE sailings SET
			available_vehicles = available_vehicles - $2,
			available_passengers = available_passengers - $3,
			updated_at = now()
		WHERE id = $1 AND available_vehicles >= $2 AND available_passengers >= $3`,
		sailingID, vehicles, passengers)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sailings WHERE id=$1)`, sailingID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("sailing %d: %w", sailingID, domain.ErrNotFound)
		}
		return &domain.CapacityError{SailingID: sailingID, Vehicles: vehicles, Passengers: passengers}
	}
	return nil
}

var _ SailingRepository = (*PGSailingRepository)(nil)
