package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/storage"
)

const (
	productsCacheKey = "catalog:products"
	coursesCacheKey  = "catalog:courses"
)

func productCacheKey(id int64) string { return fmt.Sprintf("catalog:product:%d", id) }
func courseCacheKey(id int64) string  { return fmt.Sprintf("catalog:course:%d", id) }

// Cache is satisfied by the redis-backed cache; a nil Cache disables caching
// (tests, local runs without redis).
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type catalogStorage interface {
	storage.ProductRepository
	storage.CourseRepository
}

// CatalogService serves public product/course reads through the cache and
// routes admin writes to the store, invalidating on the way.
type CatalogService struct {
	storage catalogStorage
	cache   Cache
	ttl     time.Duration
	log     *zap.SugaredLogger
}

func NewCatalogService(st catalogStorage, cache Cache, ttl time.Duration, log *zap.SugaredLogger) *CatalogService {
	return &CatalogService{storage: st, cache: cache, ttl: ttl, log: log}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	var cached []models.Product
	if s.cacheGet(ctx, productsCacheKey, &cached) {
		return cached, nil
	}

	products, err := s.storage.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, productsCacheKey, products)
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var cached models.Product
	if s.cacheGet(ctx, productCacheKey(id), &cached) {
		return &cached, nil
	}

	product, err := s.storage.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, productCacheKey(id), product)
	return product, nil
}

// ListProductsFresh reads the store directly, skipping the cache. Admin
// views use it so stock and price edits show up immediately.
func (s *CatalogService) ListProductsFresh(ctx context.Context) ([]models.Product, error) {
	return s.storage.ListProducts(ctx)
}

func (s *CatalogService) CreateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	created, err := s.storage.CreateProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	s.cacheInvalidate(ctx, productsCacheKey)
	return created, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, p models.Product) (*models.Product, error) {
	updated, err := s.storage.UpdateProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	s.cacheInvalidate(ctx, productsCacheKey, productCacheKey(p.ID))
	return updated, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.storage.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.cacheInvalidate(ctx, productsCacheKey, productCacheKey(id))
	return nil
}

func (s *CatalogService) ListCourses(ctx context.Context) ([]models.Course, error) {
	var cached []models.Course
	if s.cacheGet(ctx, coursesCacheKey, &cached) {
		return cached, nil
	}

	courses, err := s.storage.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, coursesCacheKey, courses)
	return courses, nil
}

func (s *CatalogService) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	var cached models.Course
	if s.cacheGet(ctx, courseCacheKey(id), &cached) {
		return &cached, nil
	}

	course, err := s.storage.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, courseCacheKey(id), course)
	return course, nil
}

// ListCoursesFresh is the admin counterpart of ListProductsFresh.
func (s *CatalogService) ListCoursesFresh(ctx context.Context) ([]models.Course, error) {
	return s.storage.ListCourses(ctx)
}

func (s *CatalogService) CreateCourse(ctx context.Context, title string, description, imageURL *string) (int64, error) {
	id, err := s.storage.CreateCourse(ctx, title, description, imageURL)
	if err != nil {
		return 0, err
	}
	s.cacheInvalidate(ctx, coursesCacheKey)
	return id, nil
}

func (s *CatalogService) UpdateCourse(ctx context.Context, c models.Course) error {
	if err := s.storage.UpdateCourse(ctx, c); err != nil {
		return err
	}
	s.cacheInvalidate(ctx, coursesCacheKey, courseCacheKey(c.ID))
	return nil
}

func (s *CatalogService) DeleteCourse(ctx context.Context, id int64) error {
	if err := s.storage.DeleteCourse(ctx, id); err != nil {
		return err
	}
	s.cacheInvalidate(ctx, coursesCacheKey, courseCacheKey(id))
	return nil
}

// Cache failures degrade to direct reads, they never fail the request.
func (s *CatalogService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		s.log.Warnw("cache read failed", "key", key, "error", err)
		return false
	}
	return hit
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, v, s.ttl); err != nil {
		s.log.Warnw("cache write failed", "key", key, "error", err)
	}
}

func (s *CatalogService) cacheInvalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warnw("cache invalidation failed", "keys", keys, "error", err)
	}
}
