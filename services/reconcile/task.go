package reconcile

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sharemeal-platform/pkg/config"
	"sharemeal-platform/services/campaign"
	"sharemeal-platform/services/fulfillment"
	"sharemeal-platform/services/payment"
)

const (
	TypeBookings  = "reconcile:bookings"
	TypeDonations = "reconcile:donations"
)

// Service repairs the two places where state can lag behind the ledger:
// bookings whose delivery already reached delivered, and unmatched donations
// whose memo has since been corrected.
type Service struct {
	db        *gorm.DB
	campaigns *campaign.Service
	resolver  *payment.ReferenceResolver
}

type ServiceParams struct {
	fx.In
	DB        *gorm.DB
	Config    *config.Config
	Campaigns *campaign.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		campaigns: p.Campaigns,
		resolver:  payment.NewReferenceResolver(p.Config.Memo.Prefix),
	}
}

// HandleBookings completes bookings left pending after their delivery was
// delivered. The delivery status is authoritative.
func (s *Service) HandleBookings(ctx context.Context, t *asynq.Task) error {
	var deliveries []fulfillment.Delivery
	err := s.db.WithContext(ctx).
		Select("deliveries.*").
		Joins("JOIN bookings ON bookings.id = deliveries.booking_id").
		Where("deliveries.status = ? AND bookings.status = ?", fulfillment.DeliveryDelivered, fulfillment.BookingPending).
		Find(&deliveries).Error
	if err != nil {
		return err
	}

	var repaired int
	for _, d := range deliveries {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&fulfillment.Booking{}).
				Where("id = ? AND status = ?", d.BookingID, fulfillment.BookingPending).
				Updates(map[string]any{
					"status":     fulfillment.BookingCompleted,
					"updated_at": time.Now(),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil
			}

			var b fulfillment.Booking
			if err := tx.Where("id = ?", d.BookingID).First(&b).Error; err != nil {
				return err
			}

			repaired++
			return s.campaigns.WithTrx(tx).AddDeliveredMeals(ctx, b.CampaignID, d.Quantity)
		})
		if err != nil {
			zap.L().Error("failed to repair booking",
				zap.String("booking_id", d.BookingID),
				zap.String("delivery_id", d.ID),
				zap.Error(err),
			)
			return err
		}
	}

	if repaired > 0 {
		zap.L().Info("repaired diverged bookings", zap.Int("count", repaired))
	}
	return nil
}

// HandleDonations re-runs the reference resolver over unmatched successful
// donations. The aggregated_at NULL gate guarantees the campaign increment
// applies at most once per ledger row no matter how often the task runs.
func (s *Service) HandleDonations(ctx context.Context, t *asynq.Task) error {
	var donations []payment.Donation
	err := s.db.WithContext(ctx).
		Where("unmatched = ? AND status = ? AND aggregated_at IS NULL", true, payment.DonationSuccess).
		Find(&donations).Error
	if err != nil {
		return err
	}

	var resolved int
	for _, d := range donations {
		campaignID, ok := s.resolver.Resolve("", d.Memo)
		if !ok {
			continue
		}

		exists, err := s.campaigns.Exists(ctx, campaignID)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&payment.Donation{}).
				Where("id = ? AND aggregated_at IS NULL", d.ID).
				Updates(map[string]any{
					"campaign_id":   campaignID,
					"unmatched":     false,
					"aggregated_at": time.Now(),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil
			}

			resolved++
			return s.campaigns.WithTrx(tx).ApplyDonation(ctx, campaignID, d.Amount, d.Quantity)
		})
		if err != nil {
			zap.L().Error("failed to resolve unmatched donation",
				zap.String("donation_id", d.ID),
				zap.Error(err),
			)
			return err
		}
	}

	if resolved > 0 {
		zap.L().Info("resolved unmatched donations", zap.Int("count", resolved))
	}
	return nil
}
