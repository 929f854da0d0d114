package payment

import (
	"time"

	"gorm.io/datatypes"
)

type Provider string

const (
	ProviderWallet Provider = "wallet"
	ProviderBank   Provider = "bank"
)

type DonationStatus string

const (
	DonationPending DonationStatus = "pending"
	DonationSuccess DonationStatus = "success"
	DonationFailed  DonationStatus = "failed"
)

// Donation is one row of the payment ledger. Rows are never deleted and a
// status never moves backwards. The composite unique index over
// (provider, transaction_id) is the idempotency boundary for webhook
// redelivery: at most one row can ever exist per provider transaction.
type Donation struct {
	ID         string  `gorm:"column:id;primaryKey" json:"id"`
	CampaignID *string `gorm:"column:campaign_id;index" json:"campaign_id,omitempty"`
	DonorID    *string `gorm:"column:donor_id;index" json:"donor_id,omitempty"`

	Provider      string `gorm:"column:provider;uniqueIndex:ux_donations_provider_txn,priority:1" json:"provider"`
	TransactionID string `gorm:"column:transaction_id;uniqueIndex:ux_donations_provider_txn,priority:2" json:"transaction_id"`

	Amount   int64  `gorm:"column:amount" json:"amount"`
	Quantity int64  `gorm:"column:quantity" json:"quantity"`
	Currency string `gorm:"column:currency" json:"currency"`

	Status DonationStatus `gorm:"column:status;index" json:"status"`
	Memo   string         `gorm:"column:memo" json:"memo"`

	// Unmatched marks a ledger row whose campaign reference could not be
	// resolved. The row stays visible for manual reconciliation and is
	// excluded from aggregates until resolved.
	Unmatched bool `gorm:"column:unmatched;index" json:"unmatched"`

	// AggregatedAt records when the campaign aggregates were incremented for
	// this row. NULL means the increment has not been applied; it is the
	// applied-exactly-once gate used by the reconciliation pass.
	AggregatedAt *time.Time `gorm:"column:aggregated_at" json:"aggregated_at,omitempty"`

	RawPayload datatypes.JSON `gorm:"column:raw_payload" json:"-"`

	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	PaidAt    *time.Time `gorm:"column:paid_at" json:"paid_at,omitempty"`
}

func (Donation) TableName() string {
	return "donations"
}
