package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/strandline/ferrybooking/internal/domain"
)

// Customer and vehicle lookups back the directory collaborators the lifecycle
// service resolves references through.

type CustomerRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
}

type VehicleRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Vehicle, error)
}

type PGCustomerRepository struct {
	db *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) CustomerRepository {
	return &PGCustomerRepository{db: db}
}

func (r *PGCustomerRepository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, email, phone, created_at FROM customers WHERE id=$1`, id)
	var c domain.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("customer %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type PGVehicleRepository struct {
	db *pgxpool.Pool
}

func NewVehicleRepository(db *pgxpool.Pool) VehicleRepository {
	return &PGVehicleRepository{db: db}
}

func (r *PGVehicleRepository) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	row := r.db.QueryRow(ctx, `SELECT id, owner_id, plate, vehicle_type, length_meters, created_at FROM vehicles WHERE id=$1`, id)
	var v domain.Vehicle
	err := row.Scan(&v.ID, &v.OwnerID, &v.Plate, &v.Type, &v.LengthMeters, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("vehicle %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *PGVehicleRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Vehicle, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id, owner_id, plate, vehicle_type, length_meters, created_at FROM vehicles WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]domain.Vehicle, len(ids))
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Plate, &v.Type, &v.LengthMeters, &v.CreatedAt); err != nil {
			return nil, err
		}
		byID[v.ID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	vehicles := make([]domain.Vehicle, 0, len(ids))
	for _, id := range ids {
		v, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("vehicle %d: %w", id, domain.ErrNotFound)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, nil
}

var (
	_ CustomerRepository = (*PGCustomerRepository)(nil)
	_ VehicleRepository  = (*PGVehicleRepository)(nil)
)
