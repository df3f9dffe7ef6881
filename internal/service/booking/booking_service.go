package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/strandline/ferrybooking/internal/domain"
	"github.com/strandline/ferrybooking/internal/kafka"
	"github.com/strandline/ferrybooking/internal/repository"
)

// BookingUseCase is the lifecycle engine's surface: every booking and approval
// state change in the system goes through one of these calls or the sweeper.
type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, code string, actor domain.Actor) (*domain.Booking, error)
	Approve(ctx context.Context, code string, actor domain.Actor, notes string) (*domain.Booking, error)
	Reject(ctx context.Context, code string, actor domain.Actor, reason string) (*domain.Booking, error)
	MarkPaid(ctx context.Context, code string, actor domain.Actor) (*domain.Booking, error)
	ApproveReview(ctx context.Context, code string, actor domain.Actor, notes string) (*domain.Booking, error)
	ConfirmArrival(ctx context.Context, code string, actor domain.Actor) (*domain.Booking, error)
	Complete(ctx context.Context, code string, actor domain.Actor) (*domain.Booking, error)
	Cancel(ctx context.Context, code string, actor domain.Actor, reason string) (*domain.Booking, error)
	RequestRefund(ctx context.Context, code string, actor domain.Actor, reason string) (*domain.Booking, error)
	DecideRefund(ctx context.Context, code string, actor domain.Actor, approved bool, notes string) (*domain.Booking, error)
	AddVehicle(ctx context.Context, code string, actor domain.Actor, vehicleID int64) (*domain.Booking, error)
	RemoveVehicle(ctx context.Context, code string, actor domain.Actor, vehicleID int64) (*domain.Booking, error)
	SweepOverdueReviews(ctx context.Context) (int, error)
}

type Cache interface {
	GetSailings(ctx context.Context) ([]domain.Sailing, error)
	SetSailings(ctx context.Context, sailings []domain.Sailing) error
	GetCapacity(ctx context.Context, sailingID int64) (*domain.CapacityInfo, error)
	SetCapacity(ctx context.Context, info *domain.CapacityInfo) error
	InvalidateSailing(ctx context.Context, sailingID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	sailings           repository.SailingRepository
	customers          repository.CustomerRepository
	vehicles           repository.VehicleRepository
	cache              Cache
	producer           Producer
	auditTopic         string
	notificationsTopic string
}

type CreateBookingInput struct {
	CustomerID  int64   `json:"customer_id"`
	SailingID   int64   `json:"sailing_id"`
	VehicleIDs  []int64 `json:"vehicle_ids"`
	Passengers  int     `json:"passengers"`
	AmountCents int64   `json:"amount_cents"`
	Note        string  `json:"note"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	sailings repository.SailingRepository,
	customers repository.CustomerRepository,
	vehicles repository.VehicleRepository,
	cache Cache,
	producer Producer,
	auditTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:   bookings,
		sailings:   sailings,
		customers:  customers,
		vehicles:   vehicles,
		cache:      cache,
		producer:   producer,
		auditTopic: auditTopic,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.Passengers <= 0 {
		return nil, errors.New("passenger count must be positive")
	}

	customer, err := s.customers.GetByID(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	sailing, err := s.sailings.GetByID(ctx, input.SailingID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if !sailing.OpenForBooking(now) {
		return nil, &domain.IneligibleError{Status: domain.BookingStatus(sailing.Status), Reason: "sailing is closed for booking"}
	}

	vehicles, err := s.vehicles.GetByIDs(ctx, input.VehicleIDs)
	if err != nil {
		return nil, err
	}
	allocations := make([]domain.VehicleAllocation, 0, len(vehicles))
	for _, v := range vehicles {
		if v.OwnerID != customer.ID {
			return nil, domain.ErrForbidden
		}
		allocations = append(allocations, domain.VehicleAllocation{VehicleID: v.ID, Type: v.Type, Quantity: 1})
	}

	booking := &domain.Booking{
		Code:        uuid.NewString(),
		CustomerID:  customer.ID,
		SailingID:   sailing.ID,
		Vehicles:    allocations,
		Passengers:  input.Passengers,
		AmountCents: input.AmountCents,
		Note:        input.Note,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}
	s.invalidateSailing(ctx, booking.SailingID)

	s.publishAudit(ctx, booking, domain.AuditEntry{Action: "booking_created", Description: "booking created"})
	s.publishNotification(ctx, booking, domain.Notification{
		Recipients: []int64{booking.CustomerID},
		EventKind:  "booking_created",
		Message:    "booking " + booking.Code + " created and awaiting approval",
	})
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, code string, actor domain.Actor) (*domain.Booking, error) {
	booking, err := s.bookings.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && actor.ID != booking.CustomerID {
		return nil, domain.ErrForbidden
	}
	return booking, nil
}

func (s *BookingService) Approve(ctx context.Context, code string, actor domain.Actor, notes string) (*domain.Booking, error) {
	return s.transition(ctx, code, domain.AccountantApprove{Actor: actor, Notes: notes})
}

func (s *BookingService) Reject(ctx context.Context, code string, actor domain.Actor, reason string) (*domain.Booking, error) {
	return s.transition(ctx, code, domain.AccountantReject{Actor: actor, Reason: reason})
}

func (s *BookingService) MarkPaid(ctx context.Context, code string, actor domain.Actor) (*domain.Booking, error) {
	return s.transition(ctx, code, domain.MarkPaid{Actor: actor})
}

func (s *BookingService) ApproveReview(ctx context.Context, code string, actor domain.Actor, notes string) (*domain.Booking, error) {
	return s.transition(ctx, code, domain.ApproveReview{Actor: actor, Notes: notes})
}

func (s *BookingService) ConfirmArrival(ctx context.Context, code string, actor domain.Actor) (*domain.Booking, error) {
	return s.transition(ctx, code, domain.ConfirmArrival{Actor: actor})
}

func (s *BookingService) Complete(ctx context.Context, code string, actor domain.Actor) (*domain.Booking, error) {
	return s.transition(ctx, code, domain.Complete{Actor: actor})
}

func (s *BookingService) Cancel(ctx context.Context, code string, actor domain.Actor, reason string) (*domain.Booking, error) {
	return s.transition(ctx, code, domain.Cancel{Actor: actor, Reason: reason})
}

func (s *BookingService) RequestRefund(ctx context.Context, code string, actor domain.Actor, reason string) (*domain.Booking, error) {
	return s.transition(ctx, code, domain.RequestRefund{Actor: actor, Reason: reason})
}

func (s *BookingService) DecideRefund(ctx context.Context, code string, actor domain.Actor, approved bool, notes string) (*domain.Booking, error) {
	return s.transition(ctx, code, domain.DecideRefund{Actor: actor, Approved: approved, Notes: notes})
}

// transition is the one path every command takes: load, apply the pure state
// machine, persist guarded by the status we started from, then dispatch effects.
// Audit and notification failures are logged and swallowed; they never fail or
// roll back the transition itself.
func (s *BookingService) transition(ctx context.Context, code string, cmd domain.Command) (*domain.Booking, error) {
	booking, err := s.bookings.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	expect := booking.Status
	fx, err := domain.Transition(booking, cmd, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Update(ctx, booking, expect, fx.CapacityReleased); err != nil {
		return nil, err
	}
	if fx.CapacityReleased {
		s.invalidateSailing(ctx, booking.SailingID)
	}

	for _, entry := range fx.Audit {
		s.publishAudit(ctx, booking, entry)
	}
	for _, n := range fx.Notifications {
		s.publishNotification(ctx, booking, n)
	}
	return booking, nil
}

// AddVehicle attaches another vehicle to a live booking, re-validating sailing
// capacity in the repository transaction.
func (s *BookingService) AddVehicle(ctx context.Context, code string, actor domain.Actor, vehicleID int64) (*domain.Booking, error) {
	booking, err := s.bookings.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && actor.ID != booking.CustomerID {
		return nil, domain.ErrForbidden
	}
	if booking.IsTerminal() || booking.Status == domain.BookingStatusInRefund {
		return nil, &domain.IneligibleError{Status: booking.Status, Reason: "cannot change vehicles on this booking"}
	}

	vehicle, err := s.vehicles.GetByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	if vehicle.OwnerID != booking.CustomerID {
		return nil, domain.ErrForbidden
	}
	for _, existing := range booking.Vehicles {
		if existing.VehicleID == vehicleID {
			return nil, &domain.IneligibleError{Status: booking.Status, Reason: "vehicle is already on this booking"}
		}
	}

	alloc := domain.VehicleAllocation{VehicleID: vehicle.ID, Type: vehicle.Type, Quantity: 1}
	if err := s.bookings.AddVehicle(ctx, booking, &alloc); err != nil {
		return nil, err
	}
	booking.Vehicles = append(booking.Vehicles, alloc)
	s.invalidateSailing(ctx, booking.SailingID)
	s.publishAudit(ctx, booking, domain.AuditEntry{Action: "vehicle_added", Actor: actor, Description: "vehicle added to booking"})
	return booking, nil
}

func (s *BookingService) RemoveVehicle(ctx context.Context, code string, actor domain.Actor, vehicleID int64) (*domain.Booking, error) {
	booking, err := s.bookings.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && actor.ID != booking.CustomerID {
		return nil, domain.ErrForbidden
	}
	if booking.IsTerminal() || booking.Status == domain.BookingStatusInRefund {
		return nil, &domain.IneligibleError{Status: booking.Status, Reason: "cannot change vehicles on this booking"}
	}

	if err := s.bookings.RemoveVehicle(ctx, booking, vehicleID); err != nil {
		return nil, err
	}
	kept := booking.Vehicles[:0]
	for _, v := range booking.Vehicles {
		if v.VehicleID != vehicleID {
			kept = append(kept, v)
		}
	}
	booking.Vehicles = kept
	s.invalidateSailing(ctx, booking.SailingID)
	s.publishAudit(ctx, booking, domain.AuditEntry{Action: "vehicle_removed", Actor: actor, Description: "vehicle removed from booking"})
	return booking, nil
}

// SweepOverdueReviews advances every review whose window has expired. Each
// record is handled in its own unit of work; one failure is logged and skipped
// so it never blocks the rest of the sweep. Safe to run concurrently with
// itself and with manual decisions.
func (s *BookingService) SweepOverdueReviews(ctx context.Context) (int, error) {
	now := time.Now()
	overdue, err := s.bookings.ListOverdueReviews(ctx, now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, rev := range overdue {
		advanced, err := s.bookings.AdvanceOverdueReview(ctx, rev, now)
		if err != nil {
			log.Printf("WARNING: sweep failed for booking %s: %v", rev.BookingCode, err)
			continue
		}
		if !advanced {
			// A manual decision landed between list and advance.
			continue
		}
		processed++

		snapshot := &domain.Booking{Code: rev.BookingCode, CustomerID: rev.CustomerID, Status: domain.BookingStatusInProgress}
		s.publishAudit(ctx, snapshot, domain.AuditEntry{
			Action:      "review_auto_approved",
			Actor:       domain.SystemActor(),
			Description: "auto-approved: timeout",
		})
		s.publishNotification(ctx, snapshot, domain.Notification{
			Recipients: []int64{rev.CustomerID},
			EventKind:  "booking_in_progress",
			Message:    "booking " + rev.BookingCode + " is now in progress",
		})
	}
	return processed, nil
}

func (s *BookingService) publishAudit(ctx context.Context, booking *domain.Booking, entry domain.AuditEntry) {
	if s.producer == nil || s.auditTopic == "" {
		return
	}
	event := kafka.AuditEvent{
		BookingCode: booking.Code,
		Action:      entry.Action,
		Actor:       entry.Actor.Label(),
		Description: entry.Description,
		Status:      string(booking.Status),
		At:          time.Now(),
	}
	if err := s.producer.Publish(ctx, s.auditTopic, booking.Code, event); err != nil {
		log.Printf("WARNING: failed to publish audit event %s for booking %s: %v", entry.Action, booking.Code, err)
	}
}

func (s *BookingService) publishNotification(ctx context.Context, booking *domain.Booking, n domain.Notification) {
	if s.producer == nil || s.notificationsTopic == "" {
		return
	}
	event := kafka.NotificationEvent{
		Recipients:  n.Recipients,
		EventKind:   n.EventKind,
		BookingCode: booking.Code,
		Message:     n.Message,
		At:          time.Now(),
	}
	if err := s.producer.Publish(ctx, s.notificationsTopic, booking.Code, event); err != nil {
		log.Printf("WARNING: failed to publish notification %s for booking %s: %v", n.EventKind, booking.Code, err)
	}
}

func (s *BookingService) invalidateSailing(ctx context.Context, sailingID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSailing(ctx, sailingID); err != nil {
		log.Printf("WARNING: failed to invalidate sailing %d cache: %v", sailingID, err)
	}
}

var _ BookingUseCase = (*BookingService)(nil)
