package campaign

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sharemeal-platform/pkg/errutil"
	"sharemeal-platform/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Campaign{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node})
}

func TestConfigValidate(t *testing.T) {
	valid := Config{GoalAmount: 1_000_000, MealPrice: 25_000, TargetQty: 40}
	require.NoError(t, valid.Validate())

	cases := map[string]Config{
		"zero goal":          {GoalAmount: 0},
		"negative goal":      {GoalAmount: -1},
		"negative meal cost": {GoalAmount: 1000, MealPrice: -5},
		"negative target":    {GoalAmount: 1000, TargetQty: -1},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			err := cfg.Validate()
			require.Error(t, err)
			var be errutil.BaseError
			require.ErrorAs(t, err, &be)
			require.Equal(t, errutil.StatusValidationFailed, be.Code)
		})
	}
}

func TestCreateAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "Bua trua cho tre em vung cao", Config{GoalAmount: 5_000_000, MealPrice: 25_000})
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)
	require.Equal(t, StatusActive, c.Status)

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, c.ID, got.ID)
	require.Zero(t, got.RaisedAmount)

	_, err = svc.Get(ctx, "missing")
	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, errutil.StatusNotFound, be.Code)
}

func TestCreateRejectsInvalidConfig(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), "broken", Config{GoalAmount: 0})
	require.Error(t, err)
}

func TestApplyDonation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "test", Config{GoalAmount: 1_000_000})
	require.NoError(t, err)

	require.NoError(t, svc.ApplyDonation(ctx, c.ID, 70000, 0))
	require.NoError(t, svc.ApplyDonation(ctx, c.ID, 30000, 4))

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, int64(100000), got.RaisedAmount)
	require.Equal(t, int64(2), got.Supporters)
	require.Equal(t, int64(4), got.MealReceivedQty)
}

func TestApplyDonationUnknownCampaign(t *testing.T) {
	svc := newTestService(t)

	err := svc.ApplyDonation(context.Background(), "missing", 1000, 0)
	var be errutil.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, errutil.StatusNotFound, be.Code)
}

func TestAddDeliveredMeals(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "test", Config{GoalAmount: 1_000_000})
	require.NoError(t, err)

	require.NoError(t, svc.AddDeliveredMeals(ctx, c.ID, 10))
	require.NoError(t, svc.AddDeliveredMeals(ctx, c.ID, 0))

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, int64(10), got.DeliveredMeals)
}

func TestExists(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "test", Config{GoalAmount: 1_000_000})
	require.NoError(t, err)

	ok, err := svc.Exists(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Exists(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTotalsWithoutCache(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, "test", Config{GoalAmount: 1_000_000})
	require.NoError(t, err)
	require.NoError(t, svc.ApplyDonation(ctx, c.ID, 25000, 1))

	totals, err := svc.Totals(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, c.ID, totals.CampaignID)
	require.Equal(t, int64(25000), totals.RaisedAmount)
	require.Equal(t, int64(1), totals.Supporters)
	require.Equal(t, int64(1), totals.MealReceivedQty)
}
