package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/strandline/ferrybooking/internal/auth"
	"github.com/strandline/ferrybooking/internal/domain"
	"github.com/strandline/ferrybooking/internal/service/booking"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase.
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, code string, actor domain.Actor) (*domain.Booking, error) {
	args := m.Called(ctx, code, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Approve(ctx context.Context, code string, actor domain.Actor, notes string) (*domain.Booking, error) {
	args := m.Called(ctx, code, actor, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Reject(ctx context.Context, code string, actor domain.Actor, reason string) (*domain.Booking, error) {
	args := m.Called(ctx, code, actor, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) MarkPaid(ctx context.Context, code string, actor domain.Actor) (*domain.Booking, error) {
	args := m.Called(ctx, code, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ApproveReview(ctx context.Context, code string, actor domain.Actor, notes string) (*domain.Booking, error) {
	args := m.Called(ctx, code, actor, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ConfirmArrival(ctx context.Context, code string, actor domain.Actor) (*domain.Booking, error) {
	args := m.Called(ctx, code, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Complete(ctx context.Context, code string, actor domain.Actor) (*domain.Booking, error) {
	args := m.Called(ctx, code, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Cancel(ctx context.Context, code string, actor domain.Actor, reason string) (*domain.Booking, error) {
	args := m.Called(ctx, code, actor, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) RequestRefund(ctx context.Context, code string, actor domain.Actor, reason string) (*domain.Booking, error) {
	args := m.Called(ctx, code, actor, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) DecideRefund(ctx context.Context, code string, actor domain.Actor, approved bool, notes string) (*domain.Booking, error) {
	args := m.Called(ctx, code, actor, approved, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) AddVehicle(ctx context.Context, code string, actor domain.Actor, vehicleID int64) (*domain.Booking, error) {
	args := m.Called(ctx, code, actor, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) RemoveVehicle(ctx context.Context, code string, actor domain.Actor, vehicleID int64) (*domain.Booking, error) {
	args := m.Called(ctx, code, actor, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) SweepOverdueReviews(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

var (
	testCustomer   = domain.Actor{ID: 42, Username: "mara", Role: domain.RoleCustomer}
	testAccountant = domain.Actor{ID: 10, Username: "ines", Role: domain.RoleAccountant}
)

func newBookingRouter(service booking.BookingUseCase, actor domain.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/bookings")
	group.Use(func(c *gin.Context) {
		auth.SetActor(c, actor)
		c.Next()
	})
	NewBookingHandler(service).Register(group)
	return router
}

func sampleBooking(status domain.BookingStatus) *domain.Booking {
	now := time.Now()
	return &domain.Booking{
		ID:         7,
		Code:       "code-7",
		CustomerID: 42,
		SailingID:  3,
		Passengers: 2,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestBookingHandler_Create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService, testCustomer)

	created := sampleBooking(domain.BookingStatusPending)
	mockService.On("CreateBooking", mock.Anything, booking.CreateBookingInput{
		CustomerID: 42, SailingID: 3, VehicleIDs: []int64{5}, Passengers: 2, AmountCents: 159000,
	}).Return(created, nil).Once()

	body, _ := json.Marshal(map[string]interface{}{
		"sailing_id": 3, "vehicle_ids": []int64{5}, "passengers": 2, "amount_cents": 159000,
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp bookingResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "code-7", resp.Code)
	assert.Equal(t, "PENDING", resp.Status)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_Create_CapacityConflict(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService, testCustomer)

	capErr := &domain.CapacityError{SailingID: 3, Vehicles: 2, Passengers: 2}
	mockService.On("CreateBooking", mock.Anything, mock.Anything).Return(nil, capErr).Once()

	body, _ := json.Marshal(map[string]interface{}{"sailing_id": 3, "passengers": 2})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "capacity_conflict")
}

func TestBookingHandler_Approve(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService, testAccountant)

	updated := sampleBooking(domain.BookingStatusInReview)
	mockService.On("Approve", mock.Anything, "code-7", testAccountant, "checked").Return(updated, nil).Once()

	body, _ := json.Marshal(map[string]string{"notes": "checked"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/bookings/code-7/approve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "IN_REVIEW")
	mockService.AssertExpectations(t)
}

func TestBookingHandler_Approve_WrongRole(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService, testCustomer)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/bookings/code-7/approve", bytes.NewReader([]byte("{}")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockService.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingHandler_Reject_RequiresBody(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService, testAccountant)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/bookings/code-7/reject", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandler_RequestRefund_Ineligible(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService, testCustomer)

	inel := &domain.IneligibleError{Status: domain.BookingStatusInReview, Reason: "review window has closed, refund no longer possible"}
	mockService.On("RequestRefund", mock.Anything, "code-7", testCustomer, "missed ferry").Return(nil, inel).Once()

	body, _ := json.Marshal(map[string]string{"reason": "missed ferry"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/bookings/code-7/refund", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ineligible")
	assert.Contains(t, w.Body.String(), "IN_REVIEW")
}

func TestBookingHandler_Get_NotFound(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService, testCustomer)

	mockService.On("GetBooking", mock.Anything, "missing", testCustomer).Return(nil, domain.ErrNotFound).Once()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/bookings/missing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandler_DecideRefund(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService, testAccountant)

	updated := sampleBooking(domain.BookingStatusRefunded)
	mockService.On("DecideRefund", mock.Anything, "code-7", testAccountant, true, "refund wired").Return(updated, nil).Once()

	body, _ := json.Marshal(map[string]interface{}{"approved": true, "notes": "refund wired"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/bookings/code-7/refund/decision", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "REFUNDED")
	mockService.AssertExpectations(t)
}

func TestBookingHandler_Cancel_StateConflict(t *testing.T) {
	mockService := &MockBookingUseCase{}
	router := newBookingRouter(mockService, testCustomer)

	conflict := &domain.StateConflictError{Entity: "booking code-7", Current: "COMPLETED", Requested: "CANCELLED"}
	mockService.On("Cancel", mock.Anything, "code-7", testCustomer, "too late").Return(nil, conflict).Once()

	body, _ := json.Marshal(map[string]string{"reason": "too late"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/bookings/code-7/cancel", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "state_conflict")
	assert.Contains(t, w.Body.String(), "COMPLETED")
}
