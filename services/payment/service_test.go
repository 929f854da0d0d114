package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"

	"sharemeal-platform/pkg/config"
	"sharemeal-platform/pkg/errutil"
	"sharemeal-platform/services/audit"
	"sharemeal-platform/services/campaign"
	"sharemeal-platform/services/testutil"
)

func newTestService(t *testing.T) (*Service, *campaign.Service) {
	t.Helper()

	db := testutil.NewTestDB(t, &campaign.Campaign{}, &Donation{}, &audit.Log{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.WalletGateway.PartnerCode = "SHAREMEAL"
	cfg.WalletGateway.SecretKey = "test-secret"
	cfg.Memo.Prefix = "BXA"

	campaigns := campaign.NewService(campaign.ServiceParams{DB: db, Node: node})
	recorder := audit.NewRecorder(audit.Params{DB: db, Node: node})

	svc := NewService(ServiceParams{
		DB:        db,
		Node:      node,
		Config:    cfg,
		Campaigns: campaigns,
		Audit:     recorder,
	})

	return svc, campaigns
}

func seedCampaign(t *testing.T, svc *Service, id string) {
	t.Helper()
	c := &campaign.Campaign{
		ID:     id,
		Title:  "Bua an cho em " + id,
		Status: campaign.StatusActive,
		Config: campaign.Config{GoalAmount: 10_000_000, MealPrice: 25_000},
	}
	require.NoError(t, svc.db.Create(c).Error)
}

func bankBody(txnID string, amount int64, memo string) []byte {
	b, _ := json.Marshal(map[string]any{
		"bank_txn_id": txnID,
		"amount":      amount,
		"memo":        memo,
	})
	return b
}

func TestIngestBankDonation(t *testing.T) {
	svc, campaigns := newTestService(t)
	seedCampaign(t, svc, "42")
	ctx := context.Background()

	res, err := svc.Ingest(ctx, ProviderBank, bankBody("FT26001", 70000, "BXA#42 Ung ho"))
	require.NoError(t, err)
	require.True(t, res.Created)

	d := res.Donation
	require.Equal(t, DonationSuccess, d.Status)
	require.NotNil(t, d.CampaignID)
	require.Equal(t, "42", *d.CampaignID)
	require.False(t, d.Unmatched)
	require.NotNil(t, d.AggregatedAt)

	c, err := campaigns.Get(ctx, "42")
	require.NoError(t, err)
	require.Equal(t, int64(70000), c.RaisedAmount)
	require.Equal(t, int64(1), c.Supporters)
}

func TestIngestReplayIsIdempotent(t *testing.T) {
	svc, campaigns := newTestService(t)
	seedCampaign(t, svc, "42")
	ctx := context.Background()

	body := bankBody("FT26001", 70000, "BXA#42 Ung ho")

	first, err := svc.Ingest(ctx, ProviderBank, body)
	require.NoError(t, err)
	require.True(t, first.Created)

	for i := 0; i < 3; i++ {
		res, err := svc.Ingest(ctx, ProviderBank, body)
		require.NoError(t, err)
		require.False(t, res.Created)
		require.Equal(t, first.Donation.ID, res.Donation.ID)
	}

	var count int64
	require.NoError(t, svc.db.Model(&Donation{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	c, err := campaigns.Get(ctx, "42")
	require.NoError(t, err)
	require.Equal(t, int64(70000), c.RaisedAmount)
	require.Equal(t, int64(1), c.Supporters)
}

func TestIngestSameTransactionDifferentProvider(t *testing.T) {
	svc, _ := newTestService(t)
	seedCampaign(t, svc, "42")
	ctx := context.Background()

	res, err := svc.Ingest(ctx, ProviderBank, bankBody("TXN-1", 10000, "BXA#42"))
	require.NoError(t, err)
	require.True(t, res.Created)

	v := svc.verifiers[ProviderWallet].(*WalletVerifier)
	p := walletFixture()
	p.TransID = "TXN-1"
	wres, err := svc.Ingest(ctx, ProviderWallet, signedWalletBody(t, v, p))
	require.NoError(t, err)
	require.True(t, wres.Created, "identical transaction ids from different providers are distinct rows")
}

func TestIngestUnmatchedMemo(t *testing.T) {
	svc, _ := newTestService(t)
	seedCampaign(t, svc, "42")
	ctx := context.Background()

	res, err := svc.Ingest(ctx, ProviderBank, bankBody("FT26002", 30000, "cam on nhieu"))
	require.NoError(t, err)
	require.True(t, res.Created)

	d := res.Donation
	require.True(t, d.Unmatched)
	require.Nil(t, d.CampaignID)
	require.Nil(t, d.AggregatedAt)
	require.Equal(t, DonationSuccess, d.Status)

	var c campaign.Campaign
	require.NoError(t, svc.db.Where("id = ?", "42").First(&c).Error)
	require.Zero(t, c.RaisedAmount)
	require.Zero(t, c.Supporters)
}

func TestIngestUnknownCampaignReference(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Ingest(ctx, ProviderBank, bankBody("FT26003", 30000, "BXA#999"))
	require.NoError(t, err)
	require.True(t, res.Created)
	require.True(t, res.Donation.Unmatched)
	require.Nil(t, res.Donation.CampaignID)
}

func TestIngestWalletSuccess(t *testing.T) {
	svc, campaigns := newTestService(t)
	seedCampaign(t, svc, "42")
	ctx := context.Background()

	v := svc.verifiers[ProviderWallet].(*WalletVerifier)
	body := signedWalletBody(t, v, walletFixture())

	res, err := svc.Ingest(ctx, ProviderWallet, body)
	require.NoError(t, err)
	require.True(t, res.Created)
	require.Equal(t, DonationSuccess, res.Donation.Status)
	require.NotNil(t, res.Donation.PaidAt)

	c, err := campaigns.Get(ctx, "42")
	require.NoError(t, err)
	require.Equal(t, int64(70000), c.RaisedAmount)
}

func TestIngestWalletFailedResult(t *testing.T) {
	svc, campaigns := newTestService(t)
	seedCampaign(t, svc, "42")
	ctx := context.Background()

	v := svc.verifiers[ProviderWallet].(*WalletVerifier)
	p := walletFixture()
	p.ResultCode = 1006
	body := signedWalletBody(t, v, p)

	res, err := svc.Ingest(ctx, ProviderWallet, body)
	require.NoError(t, err)
	require.True(t, res.Created)
	require.Equal(t, DonationFailed, res.Donation.Status)
	require.Nil(t, res.Donation.PaidAt)
	require.Nil(t, res.Donation.AggregatedAt)

	c, err := campaigns.Get(ctx, "42")
	require.NoError(t, err)
	require.Zero(t, c.RaisedAmount)
	require.Zero(t, c.Supporters)
}

func TestIngestWalletInvalidSignatureWritesNothing(t *testing.T) {
	svc, _ := newTestService(t)
	seedCampaign(t, svc, "42")
	ctx := context.Background()

	v := svc.verifiers[ProviderWallet].(*WalletVerifier)
	p := walletFixture()
	p.Signature = v.sign(&p)
	p.Amount = 999999
	body, err := json.Marshal(p)
	require.NoError(t, err)

	_, err = svc.Ingest(ctx, ProviderWallet, body)
	requireCode(t, err, errutil.StatusInvalidSignature)

	var donations int64
	require.NoError(t, svc.db.Model(&Donation{}).Count(&donations).Error)
	require.Zero(t, donations)

	var c campaign.Campaign
	require.NoError(t, svc.db.Where("id = ?", "42").First(&c).Error)
	require.Zero(t, c.RaisedAmount)
}

func TestIngestConcurrentDistinctDonations(t *testing.T) {
	svc, campaigns := newTestService(t)
	seedCampaign(t, svc, "42")
	ctx := context.Background()

	const n = 50

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Ingest(ctx, ProviderBank, bankBody(fmt.Sprintf("FT-%04d", i), 1000, "BXA#42"))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	c, err := campaigns.Get(ctx, "42")
	require.NoError(t, err)
	require.Equal(t, int64(n*1000), c.RaisedAmount)
	require.Equal(t, int64(n), c.Supporters)
}

func TestListByCampaign(t *testing.T) {
	svc, _ := newTestService(t)
	seedCampaign(t, svc, "42")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Ingest(ctx, ProviderBank, bankBody(fmt.Sprintf("FT-%d", i), 5000, "BXA#42"))
		require.NoError(t, err)
	}

	donations, err := svc.ListByCampaign(ctx, "42", 0)
	require.NoError(t, err)
	require.Len(t, donations, 3)
}

func TestGetNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "missing")
	requireCode(t, err, errutil.StatusNotFound)
}
