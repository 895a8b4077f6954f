package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sayvu/dispatch/module/core/domain"
	"github.com/sayvu/dispatch/module/core/internal/repository/database"
)

const catalogCacheKey = "dispatch:catalog"

// catalogCache is the byte-level cache the catalog reads through.
type catalogCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type redisCache struct {
	client *redis.Client
}

func (c redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	return c.client.Get(ctx, key).Bytes()
}

func (c redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c redisCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// CatalogService is the read-mostly view of call centers that dispatch
// evaluates against. Reads go through a redis cache with a short TTL; a nil
// client degrades to direct repository reads.
type CatalogService struct {
	centers database.CallCenterRepository
	cache   catalogCache
	ttl     time.Duration
}

func NewCatalogService(centers database.CallCenterRepository, cache *redis.Client, ttl time.Duration) *CatalogService {
	svc := &CatalogService{centers: centers, ttl: ttl}
	if cache != nil {
		svc.cache = redisCache{client: cache}
	}
	return svc
}

// ActiveCallCenters returns the centers dispatch should evaluate for a
// report in the given country; countryID 0 means all countries. The cache
// holds the full catalog and the country filter is applied locally.
func (s *CatalogService) ActiveCallCenters(ctx context.Context, countryID int64) ([]domain.CallCenter, error) {
	if s.cache == nil {
		return s.centers.FindCallCenters(ctx, countryID)
	}

	if data, err := s.cache.Get(ctx, catalogCacheKey); err == nil {
		var all []domain.CallCenter
		if json.Unmarshal(data, &all) == nil {
			return filterCountry(all, countryID), nil
		}
	}

	all, err := s.centers.FindCallCenters(ctx, 0)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(all); err == nil {
		// Best effort; a failed SET only costs the next read a DB trip.
		_ = s.cache.Set(ctx, catalogCacheKey, data, s.ttl)
	}

	return filterCountry(all, countryID), nil
}

// SetCategories replaces a center's supported category set; priorities run
// 1..M in list order and drive UI display only.
func (s *CatalogService) SetCategories(ctx context.Context, callCenterID int64, emergencyCatIDs []int64) error {
	if err := s.centers.ReplaceCategories(ctx, callCenterID, emergencyCatIDs); err != nil {
		return fmt.Errorf("replace categories: %w", err)
	}
	return s.Invalidate(ctx)
}

// Invalidate drops the cached catalog after any area or category mutation.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, catalogCacheKey)
}

func filterCountry(all []domain.CallCenter, countryID int64) []domain.CallCenter {
	if countryID == 0 {
		return all
	}
	var scoped []domain.CallCenter
	for _, cc := range all {
		if cc.CountryID == countryID {
			scoped = append(scoped, cc)
		}
	}
	return scoped
}
