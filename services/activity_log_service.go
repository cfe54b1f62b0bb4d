package services

import (
	"context"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"gorm.io/gorm"

	"foodwagen/models"
)

const defaultActivityLimit = 50

// ActivityLogService keeps an audit trail of the mutations sent through
// FoodWagen. The Food API itself stays the only source of truth for food items.
type ActivityLogService struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewActivityLogService(db *gorm.DB, clk clock.Clock) *ActivityLogService {
	if clk == nil {
		clk = clock.WallClock
	}
	return &ActivityLogService{db: db, clock: clk}
}

func (s *ActivityLogService) Record(ctx context.Context, action models.ActivityAction, foodID, foodName, search string) (*models.ActivityLog, error) {
	entry := &models.ActivityLog{
		Action:   action,
		FoodID:   foodID,
		FoodName: foodName,
		Search:   search,
		At:       s.clock.Now(),
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, errors.Annotatef(err, "recording %s of food %q", action, foodID)
	}
	return entry, nil
}

// Recent returns the newest entries first. A non-positive limit uses the default.
func (s *ActivityLogService) Recent(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	var out []models.ActivityLog
	err := s.db.WithContext(ctx).
		Order("at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, errors.Annotate(err, "listing activity")
	}
	return out, nil
}

// ForFood lists the entries recorded for one food item, oldest first.
func (s *ActivityLogService) ForFood(ctx context.Context, foodID string) ([]models.ActivityLog, error) {
	var out []models.ActivityLog
	err := s.db.WithContext(ctx).
		Where("food_id = ?", foodID).
		Order("at ASC").
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, errors.Annotatef(err, "listing activity for food %q", foodID)
	}
	return out, nil
}
