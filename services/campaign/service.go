package campaign

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sharemeal-platform/pkg/errutil"
)

const totalsCacheTTL = 30 * time.Second

type Service struct {
	db    *gorm.DB
	node  *snowflake.Node
	cache *redis.Client
}

type ServiceParams struct {
	fx.In
	DB    *gorm.DB
	Node  *snowflake.Node
	Cache *redis.Client `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:    p.DB,
		node:  p.Node,
		cache: p.Cache,
	}
}

// WithTrx returns a copy of the service bound to the given transaction, so
// aggregate updates can join the caller's unit of work.
func (s *Service) WithTrx(tx *gorm.DB) *Service {
	return &Service{
		db:    tx,
		node:  s.node,
		cache: s.cache,
	}
}

func (s *Service) Create(ctx context.Context, title string, cfg Config) (*Campaign, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	c := &Campaign{
		ID:        s.node.Generate().String(),
		Title:     title,
		Status:    StatusActive,
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Campaign, error) {
	var c Campaign
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errutil.NotFound("campaign not found")
		}
		return nil, err
	}
	return &c, nil
}

func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Campaign{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ApplyDonation increments the campaign aggregates for one newly accepted
// donation. The increment is a single UPDATE relative to the stored value;
// concurrent donations to the same campaign cannot lose updates.
func (s *Service) ApplyDonation(ctx context.Context, campaignID string, amount, mealQty int64) error {
	updates := map[string]any{
		"raised_amount": gorm.Expr("raised_amount + ?", amount),
		"supporters":    gorm.Expr("supporters + ?", 1),
		"updated_at":    time.Now(),
	}
	if mealQty > 0 {
		updates["meal_received_qty"] = gorm.Expr("meal_received_qty + ?", mealQty)
	}

	res := s.db.WithContext(ctx).Model(&Campaign{}).Where("id = ?", campaignID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errutil.NotFound("campaign not found")
	}

	s.invalidateTotals(ctx, campaignID)
	return nil
}

// AddDeliveredMeals bumps the delivered counter when a delivery completes.
func (s *Service) AddDeliveredMeals(ctx context.Context, campaignID string, qty int64) error {
	if qty <= 0 {
		return nil
	}

	res := s.db.WithContext(ctx).Model(&Campaign{}).Where("id = ?", campaignID).Updates(map[string]any{
		"delivered_meals": gorm.Expr("delivered_meals + ?", qty),
		"updated_at":      time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errutil.NotFound("campaign not found")
	}

	s.invalidateTotals(ctx, campaignID)
	return nil
}

// Totals returns the aggregate view, read through the cache when available.
// The database row is always the source of truth.
func (s *Service) Totals(ctx context.Context, campaignID string) (*Totals, error) {
	key := totalsKey(campaignID)

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var t Totals
			if err := json.Unmarshal(raw, &t); err == nil {
				return &t, nil
			}
		}
	}

	c, err := s.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	t := &Totals{
		CampaignID:      c.ID,
		RaisedAmount:    c.RaisedAmount,
		Supporters:      c.Supporters,
		MealReceivedQty: c.MealReceivedQty,
		DeliveredMeals:  c.DeliveredMeals,
	}

	if s.cache != nil {
		if raw, err := json.Marshal(t); err == nil {
			if err := s.cache.Set(ctx, key, raw, totalsCacheTTL).Err(); err != nil {
				zap.L().Warn("failed to cache campaign totals", zap.String("campaign_id", campaignID), zap.Error(err))
			}
		}
	}

	return t, nil
}

func (s *Service) invalidateTotals(ctx context.Context, campaignID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, totalsKey(campaignID)).Err(); err != nil {
		zap.L().Warn("failed to invalidate campaign totals cache",
			zap.String("campaign_id", campaignID), zap.Error(err))
	}
}

func totalsKey(campaignID string) string {
	return fmt.Sprintf("campaign:totals:%s", campaignID)
}
