package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sayvu/dispatch/module/core/domain"
	"github.com/sayvu/dispatch/module/core/geo"
	"github.com/sayvu/dispatch/module/core/internal/repository/database"
)

// cacheInvalidator is satisfied by the catalog service; a nil value
// disables invalidation.
type cacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// AreaService owns the dense priority ordering of each call center's
// coverage areas. Every mutation on one call center holds that center's
// lock so the priority read-modify-write never interleaves; different
// centers proceed in parallel.
type AreaService struct {
	areas database.AreaRepository
	cache cacheInvalidator

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewAreaService(areas database.AreaRepository, cache cacheInvalidator) *AreaService {
	return &AreaService{
		areas: areas,
		cache: cache,
		locks: make(map[int64]*sync.Mutex),
	}
}

func (s *AreaService) centerLock(callCenterID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[callCenterID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[callCenterID] = l
	}
	return l
}

func (s *AreaService) invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx)
	}
}

// Create appends a new coverage area at the tail of the center's priority
// sequence. The centroid hint and shoelace size are computed here; both are
// advisory display data.
func (s *AreaService) Create(ctx context.Context, callCenterID int64, polygon domain.Polygon, description string) (*domain.CoverageArea, error) {
	center, err := geo.Centroid(polygon)
	if err != nil {
		return nil, err
	}
	size, err := geo.PolygonArea(polygon)
	if err != nil {
		return nil, err
	}

	l := s.centerLock(callCenterID)
	l.Lock()
	defer l.Unlock()

	priorities, err := s.areas.Priorities(ctx, callCenterID)
	if err != nil {
		return nil, fmt.Errorf("load priorities: %w", err)
	}

	area := &domain.CoverageArea{
		CallCenterID: callCenterID,
		Description:  description,
		Center:       center,
		AreaSize:     size,
		Priority:     len(priorities) + 1,
		Polygon:      polygon,
	}

	id, err := s.areas.Insert(ctx, area)
	if err != nil {
		return nil, fmt.Errorf("insert area: %w", err)
	}
	area.ID = id

	s.invalidate(ctx)
	return area, nil
}

// Promote swaps the area with its higher-priority neighbour. Returns false
// without error when the area already holds rank 1, or when no area holds
// the target rank (priorities edited concurrently).
func (s *AreaService) Promote(ctx context.Context, areaID int64) (bool, error) {
	return s.swapWithNeighbour(ctx, areaID, -1)
}

// Demote swaps the area with its lower-priority neighbour. Returns false
// without error when the area already holds the last rank.
func (s *AreaService) Demote(ctx context.Context, areaID int64) (bool, error) {
	return s.swapWithNeighbour(ctx, areaID, +1)
}

func (s *AreaService) swapWithNeighbour(ctx context.Context, areaID int64, direction int) (bool, error) {
	area, err := s.areas.Get(ctx, areaID)
	if err != nil {
		return false, err
	}

	l := s.centerLock(area.CallCenterID)
	l.Lock()
	defer l.Unlock()

	// Re-read under the lock; the rank may have moved before we acquired it.
	area, err = s.areas.Get(ctx, areaID)
	if err != nil {
		return false, err
	}

	target := area.Priority + direction
	if target < 1 {
		return false, nil
	}

	err = s.areas.SwapPriorities(ctx, area.CallCenterID, area.Priority, target)
	if errors.Is(err, domain.ErrNotFound) {
		// Covers the last rank on demote and any transiently vacated rank.
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.invalidate(ctx)
	return true, nil
}

// SetDescription renames the area without touching its geometry or rank.
func (s *AreaService) SetDescription(ctx context.Context, areaID int64, description string) error {
	if err := s.areas.SetDescription(ctx, areaID, description); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Remove deletes the area; the repository closes the gap it leaves in the
// same transaction, keeping the sequence dense at 1..(N-1).
func (s *AreaService) Remove(ctx context.Context, areaID int64) error {
	area, err := s.areas.Get(ctx, areaID)
	if err != nil {
		return err
	}

	l := s.centerLock(area.CallCenterID)
	l.Lock()
	defer l.Unlock()

	if err := s.areas.Delete(ctx, areaID); err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

// OrderedAreas returns the center's areas ascending by priority, the order
// dispatch evaluates them in.
func (s *AreaService) OrderedAreas(ctx context.Context, callCenterID int64) ([]domain.CoverageArea, error) {
	return s.areas.ListOrdered(ctx, callCenterID)
}

// CheckDensity verifies the priority multiset is exactly {1..N}. A
// violation indicates a bug, not a state to repair.
func (s *AreaService) CheckDensity(ctx context.Context, callCenterID int64) error {
	priorities, err := s.areas.Priorities(ctx, callCenterID)
	if err != nil {
		return err
	}
	for i, p := range priorities {
		if p != i+1 {
			return &domain.InvariantViolation{CallCenterID: callCenterID, Priorities: priorities}
		}
	}
	return nil
}
