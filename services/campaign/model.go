package campaign

import (
	"time"

	"sharemeal-platform/pkg/errutil"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusClosed  Status = "closed"
)

// Config is the typed campaign configuration. It is validated once when a
// campaign is created or updated, never re-parsed per request.
type Config struct {
	GoalAmount int64 `gorm:"column:goal_amount" json:"goal_amount"`
	// MealPrice is the unit price per meal; zero means the campaign is not
	// meal-denominated.
	MealPrice int64 `gorm:"column:meal_price" json:"meal_price"`
	TargetQty int64 `gorm:"column:target_qty" json:"target_qty"`
}

func (c *Config) Validate() error {
	if c.GoalAmount <= 0 {
		return errutil.ValidationFailed("goal_amount must be positive")
	}
	if c.MealPrice < 0 {
		return errutil.ValidationFailed("meal_price must not be negative")
	}
	if c.TargetQty < 0 {
		return errutil.ValidationFailed("target_qty must not be negative")
	}
	return nil
}

type Campaign struct {
	ID     string `gorm:"column:id;primaryKey" json:"id"`
	Title  string `gorm:"column:title" json:"title"`
	Status Status `gorm:"column:status;index" json:"status"`

	Config Config `gorm:"embedded" json:"config"`

	// Running aggregates. Monotonically non-decreasing; mutated only through
	// atomic increments relative to the stored value.
	RaisedAmount    int64 `gorm:"column:raised_amount" json:"raised_amount"`
	Supporters      int64 `gorm:"column:supporters" json:"supporters"`
	MealReceivedQty int64 `gorm:"column:meal_received_qty" json:"meal_received_qty"`
	DeliveredMeals  int64 `gorm:"column:delivered_meals" json:"delivered_meals"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

// Totals is the cached aggregate view of a campaign.
type Totals struct {
	CampaignID      string `json:"campaign_id"`
	RaisedAmount    int64  `json:"raised_amount"`
	Supporters      int64  `json:"supporters"`
	MealReceivedQty int64  `json:"meal_received_qty"`
	DeliveredMeals  int64  `json:"delivered_meals"`
}
