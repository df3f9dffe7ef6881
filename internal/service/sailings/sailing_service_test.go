package sailings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/strandline/ferrybooking/internal/domain"
)

type MockSailingRepository struct {
	mock.Mock
}

func (m *MockSailingRepository) List(ctx context.Context) ([]domain.Sailing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Sailing), args.Error(1)
}

func (m *MockSailingRepository) GetByID(ctx context.Context, id int64) (*domain.Sailing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sailing), args.Error(1)
}

func (m *MockSailingRepository) CapacityInfo(ctx context.Context, id int64) (*domain.CapacityInfo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CapacityInfo), args.Error(1)
}

func (m *MockSailingRepository) ReleaseCapacity(ctx context.Context, sailingID int64, vehicles, passengers int) error {
	args := m.Called(ctx, sailingID, vehicles, passengers)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetSailings(ctx context.Context) ([]domain.Sailing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Sailing), args.Error(1)
}

func (m *MockCache) SetSailings(ctx context.Context, sailings []domain.Sailing) error {
	args := m.Called(ctx, sailings)
	return args.Error(0)
}

func (m *MockCache) GetCapacity(ctx context.Context, sailingID int64) (*domain.CapacityInfo, error) {
	args := m.Called(ctx, sailingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CapacityInfo), args.Error(1)
}

func (m *MockCache) SetCapacity(ctx context.Context, info *domain.CapacityInfo) error {
	args := m.Called(ctx, info)
	return args.Error(0)
}

func (m *MockCache) InvalidateSailing(ctx context.Context, sailingID int64) error {
	args := m.Called(ctx, sailingID)
	return args.Error(0)
}

func TestSailingService_List_CacheMiss(t *testing.T) {
	mockRepo := &MockSailingRepository{}
	mockCache := &MockCache{}
	service := NewSailingService(mockRepo, mockCache)

	ctx := context.Background()
	sailings := []domain.Sailing{{ID: 1, RouteFrom: "Hirtshals", RouteTo: "Kristiansand", DepartureTime: time.Now()}}
	mockCache.On("GetSailings", ctx).Return(nil, nil).Once()
	mockRepo.On("List", ctx).Return(sailings, nil).Once()
	mockCache.On("SetSailings", ctx, sailings).Return(nil).Once()

	got, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, sailings, got)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestSailingService_List_CacheHit(t *testing.T) {
	mockRepo := &MockSailingRepository{}
	mockCache := &MockCache{}
	service := NewSailingService(mockRepo, mockCache)

	ctx := context.Background()
	cached := []domain.Sailing{{ID: 1}}
	mockCache.On("GetSailings", ctx).Return(cached, nil).Once()

	got, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, cached, got)
	mockRepo.AssertNotCalled(t, "List", mock.Anything)
}

func TestSailingService_GetCapacityInfo(t *testing.T) {
	mockRepo := &MockSailingRepository{}
	mockCache := &MockCache{}
	service := NewSailingService(mockRepo, mockCache)

	ctx := context.Background()
	info := &domain.CapacityInfo{SailingID: 3, TotalVehicles: 60, TotalPassengers: 400, AvailableVehicles: 12, AvailablePassengers: 250}
	mockCache.On("GetCapacity", ctx, int64(3)).Return(nil, nil).Once()
	mockRepo.On("CapacityInfo", ctx, int64(3)).Return(info, nil).Once()
	mockCache.On("SetCapacity", ctx, info).Return(nil).Once()

	got, err := service.GetCapacityInfo(ctx, 3)

	assert.NoError(t, err)
	assert.Equal(t, info, got)
	mockRepo.AssertExpectations(t)
}

func TestSailingService_GetCapacityInfo_NotFound(t *testing.T) {
	mockRepo := &MockSailingRepository{}
	mockCache := &MockCache{}
	service := NewSailingService(mockRepo, mockCache)

	ctx := context.Background()
	mockCache.On("GetCapacity", ctx, int64(99)).Return(nil, nil).Once()
	mockRepo.On("CapacityInfo", ctx, int64(99)).Return(nil, domain.ErrNotFound).Once()

	_, err := service.GetCapacityInfo(ctx, 99)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSailingService_List_CacheErrorFallsThrough(t *testing.T) {
	mockRepo := &MockSailingRepository{}
	mockCache := &MockCache{}
	service := NewSailingService(mockRepo, mockCache)

	ctx := context.Background()
	sailings := []domain.Sailing{{ID: 1}}
	mockCache.On("GetSailings", ctx).Return(nil, errors.New("redis down")).Once()
	mockRepo.On("List", ctx).Return(sailings, nil).Once()
	mockCache.On("SetSailings", ctx, sailings).Return(nil).Once()

	got, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, sailings, got)
}

func TestSailingService_NoCache(t *testing.T) {
	mockRepo := &MockSailingRepository{}
	service := NewSailingService(mockRepo, nil)

	ctx := context.Background()
	sailings := []domain.Sailing{{ID: 1}}
	mockRepo.On("List", ctx).Return(sailings, nil).Once()

	got, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, sailings, got)
}
