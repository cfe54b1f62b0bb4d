package services

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"

	"foodwagen/models"
)

// FoodAPI is the remote Food collection. *FoodAPIClient implements it.
type FoodAPI interface {
	List(ctx context.Context, search string, serviceType models.ServiceType) ([]models.FoodItem, error)
	Create(ctx context.Context, payload models.FoodItemPayload) (*models.FoodItem, error)
	Update(ctx context.Context, id string, payload models.FoodItemPayload) (*models.FoodItem, error)
	Delete(ctx context.Context, id string) error
}

// FoodServiceConfig wires a FoodService. Activity and Hub are optional.
type FoodServiceConfig struct {
	API       FoodAPI
	Clock     clock.Clock
	StaleTime time.Duration
	GCTime    time.Duration
	Activity  *ActivityLogService
	Hub       *RealtimeHub
	Metrics   *Metrics
}

// FoodService is what the dashboard talks to: cached list queries plus
// mutations that invalidate the list they were made from.
type FoodService struct {
	api      FoodAPI
	cache    *FoodCache
	activity *ActivityLogService
	hub      *RealtimeHub
	clock    clock.Clock
}

func NewFoodService(cfg FoodServiceConfig) (*FoodService, error) {
	if cfg.API == nil {
		return nil, errors.NotValidf("nil API")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	api := cfg.API
	cache, err := NewFoodCache(FoodCacheConfig{
		Fetch: func(ctx context.Context, key ListKey) ([]models.FoodItem, error) {
			return api.List(ctx, key.Search, key.ServiceType)
		},
		Clock:     cfg.Clock,
		StaleTime: cfg.StaleTime,
		GCTime:    cfg.GCTime,
		Metrics:   cfg.Metrics,
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &FoodService{
		api:      api,
		cache:    cache,
		activity: cfg.Activity,
		hub:      cfg.Hub,
		clock:    cfg.Clock,
	}, nil
}

// Cache exposes the list cache for maintenance and tests.
func (s *FoodService) Cache() *FoodCache { return s.cache }

// Foods lists the food items for search and service type through the cache.
func (s *FoodService) Foods(ctx context.Context, search string, serviceType models.ServiceType) (ListResult, error) {
	return s.cache.Get(ctx, NewListKey(search, serviceType))
}

// Find looks id up in the list currently cached for search and service type.
func (s *FoodService) Find(ctx context.Context, search string, serviceType models.ServiceType, id string) (*models.FoodItem, error) {
	res, err := s.Foods(ctx, search, serviceType)
	if err != nil {
		return nil, errors.Trace(err)
	}
	for i := range res.Items {
		if res.Items[i].ID == id {
			item := res.Items[i]
			return &item, nil
		}
	}
	return nil, errors.NotFoundf("food %q", id)
}

// FindCurrent is Find, but an item missing from the cached list triggers a
// refetch before it is reported as not found.
func (s *FoodService) FindCurrent(ctx context.Context, search string, serviceType models.ServiceType, id string) (*models.FoodItem, error) {
	item, err := s.Find(ctx, search, serviceType, id)
	if !errors.Is(err, errors.NotFound) {
		return item, err
	}
	s.cache.Invalidate(search)
	return s.Find(ctx, search, serviceType, id)
}

func (s *FoodService) Create(ctx context.Context, search string, payload models.FoodItemPayload) (*models.FoodItem, error) {
	created, err := s.api.Create(ctx, payload)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, models.ActionCreated, created.ID, created.Name, search)
	return created, nil
}

func (s *FoodService) Update(ctx context.Context, search, id string, payload models.FoodItemPayload) (*models.FoodItem, error) {
	updated, err := s.api.Update(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, models.ActionUpdated, id, updated.Name, search)
	return updated, nil
}

// Delete removes id. name is only used for the activity log.
func (s *FoodService) Delete(ctx context.Context, search, id, name string) error {
	if err := s.api.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, models.ActionDeleted, id, name, search)
	return nil
}

// changed runs after the Food API confirmed a mutation.
func (s *FoodService) changed(ctx context.Context, action models.ActivityAction, id, name, search string) {
	s.cache.Invalidate(search)

	if s.activity != nil {
		if _, err := s.activity.Record(context.WithoutCancel(ctx), action, id, name, search); err != nil {
			logger.Errorf("food %q %s but not logged: %v", id, action, err)
		}
	}
	if s.hub != nil {
		s.hub.Publish(Event{
			Kind:   EventFoodsChanged,
			Action: action,
			FoodID: id,
			Search: search,
			At:     s.clock.Now(),
		})
	}
	logger.Infof("food %q %s", id, action)
}
