package payment

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sharemeal-platform/pkg/actor"
	"sharemeal-platform/pkg/config"
	"sharemeal-platform/pkg/errutil"
	"sharemeal-platform/services/audit"
	"sharemeal-platform/services/campaign"
)

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	verifiers map[Provider]Verifier
	resolver  *ReferenceResolver
	campaigns *campaign.Service
	audit     *audit.Recorder
}

type ServiceParams struct {
	fx.In
	DB        *gorm.DB
	Node      *snowflake.Node
	Config    *config.Config
	Campaigns *campaign.Service
	Audit     *audit.Recorder
}

func NewService(p ServiceParams) *Service {
	wallet := NewWalletVerifier(p.Config.WalletGateway.PartnerCode, p.Config.WalletGateway.SecretKey)
	bank := NewBankVerifier()

	return &Service{
		db:   p.DB,
		node: p.Node,
		verifiers: map[Provider]Verifier{
			wallet.Provider(): wallet,
			bank.Provider():   bank,
		},
		resolver:  NewReferenceResolver(p.Config.Memo.Prefix),
		campaigns: p.Campaigns,
		audit:     p.Audit,
	}
}

type Result struct {
	Donation *Donation
	// Created reports whether a new ledger row was written. A redelivered
	// notification yields Created=false and is an idempotent success.
	Created bool
}

// Ingest runs the full notification pipeline: authenticate, resolve the
// campaign reference, write the ledger row, and apply aggregates for a newly
// created row. Replays of the same notification converge on the same state.
func (s *Service) Ingest(ctx context.Context, provider Provider, payload []byte) (*Result, error) {
	span := trace.SpanFromContext(ctx)
	fields := []zap.Field{
		zap.String("provider", string(provider)),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	}

	v, ok := s.verifiers[provider]
	if !ok {
		return nil, errutil.Internal("no verifier registered for provider")
	}

	n, err := v.Verify(payload)
	if err != nil {
		zap.L().Warn("rejected payment notification", append(fields, zap.Error(err))...)
		return nil, err
	}
	fields = append(fields, zap.String("transaction_id", n.TransactionID))

	campaignID, matched := s.resolver.Resolve(n.OrderRef, n.Memo)
	if matched {
		exists, err := s.campaigns.Exists(ctx, campaignID)
		if err != nil {
			return nil, err
		}
		if !exists {
			zap.L().Warn("resolved reference does not match a known campaign",
				append(fields, zap.String("campaign_id", campaignID))...)
			matched = false
		}
	}

	now := time.Now()
	d := &Donation{
		ID:            s.node.Generate().String(),
		Provider:      string(provider),
		TransactionID: n.TransactionID,
		Amount:        n.Amount,
		Currency:      "VND",
		Status:        DonationSuccess,
		Memo:          n.Memo,
		Unmatched:     !matched,
		RawPayload:    datatypes.JSON(n.Raw),
		CreatedAt:     now,
	}
	if matched {
		id := campaignID
		d.CampaignID = &id
	}
	if n.Failed {
		d.Status = DonationFailed
	} else {
		paidAt := n.PaidAt
		d.PaidAt = &paidAt
	}

	apply := !n.Failed && matched && n.Amount > 0
	if apply {
		d.AggregatedAt = &now
	}

	var created bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "transaction_id"}},
			DoNothing: true,
		}).Create(d)
		if res.Error != nil {
			return res.Error
		}

		created = res.RowsAffected > 0
		if !created || !apply {
			return nil
		}

		// Only the request that actually created the row applies the
		// aggregate increment; this is what makes redelivery safe end to end.
		return s.campaigns.WithTrx(tx).ApplyDonation(ctx, campaignID, n.Amount, d.Quantity)
	})
	if err != nil {
		zap.L().Error("failed to record donation", append(fields, zap.Error(err))...)
		return nil, err
	}

	if !created {
		existing, err := s.FindByTransaction(ctx, provider, n.TransactionID)
		if err != nil {
			return nil, err
		}
		zap.L().Info("duplicate payment notification absorbed", fields...)
		return &Result{Donation: existing, Created: false}, nil
	}

	s.audit.Record(ctx, actor.Actor{ID: "gateway:" + string(provider)}, "donation.recorded", "donation:"+d.ID, map[string]any{
		"transaction_id": d.TransactionID,
		"amount":         d.Amount,
		"status":         d.Status,
		"unmatched":      d.Unmatched,
	})

	zap.L().Info("donation recorded",
		append(fields,
			zap.String("donation_id", d.ID),
			zap.Int64("amount", d.Amount),
			zap.Bool("unmatched", d.Unmatched),
		)...)

	return &Result{Donation: d, Created: true}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Donation, error) {
	var d Donation
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errutil.NotFound("donation not found")
		}
		return nil, err
	}
	return &d, nil
}

func (s *Service) FindByTransaction(ctx context.Context, provider Provider, transactionID string) (*Donation, error) {
	var d Donation
	err := s.db.WithContext(ctx).
		Where("provider = ? AND transaction_id = ?", string(provider), transactionID).
		First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errutil.NotFound("donation not found")
		}
		return nil, err
	}
	return &d, nil
}

func (s *Service) ListByCampaign(ctx context.Context, campaignID string, limit int) ([]Donation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var donations []Donation
	err := s.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at DESC").
		Limit(limit).
		Find(&donations).Error
	if err != nil {
		return nil, err
	}
	return donations, nil
}
