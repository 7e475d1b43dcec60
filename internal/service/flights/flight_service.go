package flights

import (
	"context"

	"github.com/vkazmir/flightdesk/internal/domain"
	"github.com/vkazmir/flightdesk/internal/repository"
)

type FlightUseCase interface {
	Search(ctx context.Context, q domain.SearchQuery) ([]domain.FlightAvailability, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	AvailableSeats(ctx context.Context, flightID int64) (int, error)
}

// SearchCache holds recent search results. Search reads are best-effort and
// never gate a booking, so a slightly stale cache is acceptable.
type SearchCache interface {
	GetSearch(ctx context.Context, q domain.SearchQuery) ([]domain.FlightAvailability, error)
	SetSearch(ctx context.Context, q domain.SearchQuery, results []domain.FlightAvailability) error
}

type FlightService struct {
	repo  repository.FlightRepository
	cache SearchCache
}

func NewFlightService(repo repository.FlightRepository, cache SearchCache) *FlightService {
	return &FlightService{repo: repo, cache: cache}
}

func (s *FlightService) Search(ctx context.Context, q domain.SearchQuery) ([]domain.FlightAvailability, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetSearch(ctx, q); err == nil && cached != nil {
			return cached, nil
		}
	}

	results, err := s.repo.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetSearch(ctx, q, results)
	}
	return results, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FlightService) AvailableSeats(ctx context.Context, flightID int64) (int, error) {
	return s.repo.AvailableSeats(ctx, flightID)
}

var _ FlightUseCase = (*FlightService)(nil)
