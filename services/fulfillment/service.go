package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sharemeal-platform/pkg/actor"
	"sharemeal-platform/pkg/errutil"
	"sharemeal-platform/services/audit"
	"sharemeal-platform/services/campaign"
)

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	campaigns *campaign.Service
	audit     *audit.Recorder
}

type ServiceParams struct {
	fx.In
	DB        *gorm.DB
	Node      *snowflake.Node
	Campaigns *campaign.Service
	Audit     *audit.Recorder
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		node:      p.Node,
		campaigns: p.Campaigns,
		audit:     p.Audit,
	}
}

func (s *Service) CreateBooking(ctx context.Context, a actor.Actor, campaignID string, quantity int64) (*Booking, error) {
	if a.IsZero() {
		return nil, errutil.Unauthorized("booking requires an authenticated requester")
	}
	if quantity <= 0 {
		return nil, errutil.ValidationFailed("quantity must be positive")
	}

	exists, err := s.campaigns.Exists(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errutil.NotFound("campaign not found")
	}

	now := time.Now()
	b := &Booking{
		ID:          s.node.Generate().String(),
		CampaignID:  campaignID,
		RequesterID: a.ID,
		Quantity:    quantity,
		Status:      BookingPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return nil, err
	}

	s.audit.Record(ctx, a, "booking.created", "booking:"+b.ID, map[string]any{
		"campaign_id": campaignID,
		"quantity":    quantity,
	})

	return b, nil
}

// CancelBooking cancels a pending booking. Only the owner or an admin may
// cancel, and only while the booking is still pending.
func (s *Service) CancelBooking(ctx context.Context, a actor.Actor, bookingID string) (*Booking, error) {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !a.IsAdmin() && a.ID != b.RequesterID {
		s.audit.Record(ctx, a, "booking.cancel_denied", "booking:"+bookingID, nil)
		return nil, errutil.Forbidden("only the booking owner or an admin may cancel")
	}

	res := s.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status = ?", bookingID, BookingPending).
		Updates(map[string]any{
			"status":     BookingCancelled,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errutil.InvalidTransition(fmt.Sprintf("booking in state %q cannot be cancelled", b.Status))
	}

	s.audit.Record(ctx, a, "booking.cancelled", "booking:"+bookingID, nil)

	return s.getBooking(ctx, bookingID)
}

// AssignShipper creates a Delivery in the assigned state for a pending
// booking. Admin only.
func (s *Service) AssignShipper(ctx context.Context, a actor.Actor, bookingID, shipperID string) (*Delivery, error) {
	if !a.IsAdmin() {
		return nil, errutil.Forbidden("only an admin may assign a shipper")
	}
	if shipperID == "" {
		return nil, errutil.ValidationFailed("shipper_id is required")
	}

	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	d := &Delivery{
		ID:         s.node.Generate().String(),
		BookingID:  bookingID,
		ShipperID:  shipperID,
		Quantity:   b.Quantity,
		Status:     DeliveryAssigned,
		AssignedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Touching the row only while pending doubles as the atomic guard
		// against a concurrent cancellation.
		res := tx.Model(&Booking{}).
			Where("id = ? AND status = ?", bookingID, BookingPending).
			Update("updated_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errutil.InvalidTransition("booking is not pending")
		}

		var active int64
		if err := tx.Model(&Delivery{}).
			Where("booking_id = ? AND status IN ?", bookingID, []DeliveryStatus{DeliveryAssigned, DeliveryPicking}).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return errutil.Conflict("booking already has an active delivery")
		}

		return tx.Create(d).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, a, "delivery.assigned", "delivery:"+d.ID, map[string]any{
		"booking_id": bookingID,
		"shipper_id": shipperID,
	})

	return d, nil
}

// UpdateDeliveryStatus advances a delivery along the legal transition table.
// The check-and-write is a single conditional UPDATE keyed on the expected
// current state, so a double-submit can never advance twice.
func (s *Service) UpdateDeliveryStatus(ctx context.Context, a actor.Actor, deliveryID string, next DeliveryStatus) (*Delivery, error) {
	d, err := s.GetDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}

	if next == DeliveryCancelled {
		if !a.IsAdmin() {
			s.audit.Record(ctx, a, "delivery.transition_denied", "delivery:"+deliveryID, map[string]any{"to": next})
			return nil, errutil.Forbidden("only an admin may cancel a delivery")
		}
	} else if !a.IsAdmin() && a.ID != d.ShipperID {
		s.audit.Record(ctx, a, "delivery.transition_denied", "delivery:"+deliveryID, map[string]any{"to": next})
		return nil, errutil.Forbidden("only the assigned shipper may update this delivery")
	}

	if !canTransition(d.Status, next) {
		s.audit.Record(ctx, a, "delivery.transition_rejected", "delivery:"+deliveryID, map[string]any{
			"from": d.Status,
			"to":   next,
		})
		return nil, errutil.InvalidTransition(fmt.Sprintf("cannot move delivery from %q to %q", d.Status, next))
	}

	now := time.Now()
	updates := map[string]any{
		"status":     next,
		"updated_at": now,
	}
	switch next {
	case DeliveryPicking:
		updates["picked_at"] = now
	case DeliveryDelivered:
		updates["completed_at"] = now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Delivery{}).
			Where("id = ? AND status = ?", deliveryID, d.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race against a concurrent transition.
			return errutil.InvalidTransition("delivery state changed concurrently")
		}

		if next != DeliveryDelivered {
			return nil
		}

		return s.completeBooking(ctx, tx, d)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, a, "delivery.status_changed", "delivery:"+deliveryID, map[string]any{
		"from": d.Status,
		"to":   next,
	})

	return s.GetDelivery(ctx, deliveryID)
}

// completeBooking marks the parent booking completed and credits delivered
// meals, inside the caller's transaction so the pair commits as one unit.
func (s *Service) completeBooking(ctx context.Context, tx *gorm.DB, d *Delivery) error {
	res := tx.Model(&Booking{}).
		Where("id = ? AND status = ?", d.BookingID, BookingPending).
		Updates(map[string]any{
			"status":     BookingCompleted,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// The delivery outcome is authoritative; a booking already out of
		// pending is left to the reconciliation pass.
		zap.L().Warn("delivered delivery had no pending booking to complete",
			zap.String("delivery_id", d.ID),
			zap.String("booking_id", d.BookingID),
		)
		return nil
	}

	var b Booking
	if err := tx.Where("id = ?", d.BookingID).First(&b).Error; err != nil {
		return err
	}

	return s.campaigns.WithTrx(tx).AddDeliveredMeals(ctx, b.CampaignID, d.Quantity)
}

// OverrideShipper reassigns an active delivery to a different shipper.
// Admin only.
func (s *Service) OverrideShipper(ctx context.Context, a actor.Actor, deliveryID, shipperID string) (*Delivery, error) {
	if !a.IsAdmin() {
		return nil, errutil.Forbidden("only an admin may override the shipper")
	}
	if shipperID == "" {
		return nil, errutil.ValidationFailed("shipper_id is required")
	}

	res := s.db.WithContext(ctx).Model(&Delivery{}).
		Where("id = ? AND status IN ?", deliveryID, []DeliveryStatus{DeliveryAssigned, DeliveryPicking}).
		Updates(map[string]any{
			"shipper_id": shipperID,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errutil.InvalidTransition("delivery is not active")
	}

	s.audit.Record(ctx, a, "delivery.shipper_overridden", "delivery:"+deliveryID, map[string]any{
		"shipper_id": shipperID,
	})

	return s.GetDelivery(ctx, deliveryID)
}

func (s *Service) GetDelivery(ctx context.Context, id string) (*Delivery, error) {
	var d Delivery
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errutil.NotFound("delivery not found")
		}
		return nil, err
	}
	return &d, nil
}

func (s *Service) getBooking(ctx context.Context, id string) (*Booking, error) {
	var b Booking
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errutil.NotFound("booking not found")
		}
		return nil, err
	}
	return &b, nil
}
