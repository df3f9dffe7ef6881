package sailings

import (
	"context"
	"log"

	"github.com/strandline/ferrybooking/internal/domain"
	"github.com/strandline/ferrybooking/internal/repository"
	"github.com/strandline/ferrybooking/internal/service/booking"
)

type SailingUseCase interface {
	List(ctx context.Context) ([]domain.Sailing, error)
	GetByID(ctx context.Context, id int64) (*domain.Sailing, error)
	GetCapacityInfo(ctx context.Context, sailingID int64) (*domain.CapacityInfo, error)
}

type SailingService struct {
	repo  repository.SailingRepository
	cache booking.Cache
}

func NewSailingService(repo repository.SailingRepository, cache booking.Cache) *SailingService {
	return &SailingService{repo: repo, cache: cache}
}

func (s *SailingService) List(ctx context.Context) ([]domain.Sailing, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetSailings(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	sailings, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetSailings(ctx, sailings); err != nil {
			log.Printf("WARNING: failed to cache sailings: %v", err)
		}
	}
	return sailings, nil
}

func (s *SailingService) GetByID(ctx context.Context, id int64) (*domain.Sailing, error) {
	return s.repo.GetByID(ctx, id)
}

// GetCapacityInfo returns the ledger snapshot for one sailing, cache-aside with
// invalidation on every reserve/release.
func (s *SailingService) GetCapacityInfo(ctx context.Context, sailingID int64) (*domain.CapacityInfo, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetCapacity(ctx, sailingID); err == nil && cached != nil {
			return cached, nil
		}
	}

	info, err := s.repo.CapacityInfo(ctx, sailingID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetCapacity(ctx, info); err != nil {
			log.Printf("WARNING: failed to cache capacity for sailing %d: %v", sailingID, err)
		}
	}
	return info, nil
}

var _ SailingUseCase = (*SailingService)(nil)
