package fulfillment

import (
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

type DeliveryStatus string

const (
	DeliveryAssigned  DeliveryStatus = "assigned"
	DeliveryPicking   DeliveryStatus = "picking"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliveryCancelled DeliveryStatus = "cancelled"
)

// deliveryTransitions is the full set of legal forward edges. Anything not
// listed is rejected; delivered, failed and cancelled are terminal.
var deliveryTransitions = map[DeliveryStatus]map[DeliveryStatus]bool{
	DeliveryAssigned: {
		DeliveryPicking:   true,
		DeliveryFailed:    true,
		DeliveryCancelled: true,
	},
	DeliveryPicking: {
		DeliveryDelivered: true,
		DeliveryFailed:    true,
		DeliveryCancelled: true,
	},
}

func canTransition(from, to DeliveryStatus) bool {
	return deliveryTransitions[from][to]
}

func isTerminal(s DeliveryStatus) bool {
	return len(deliveryTransitions[s]) == 0
}

type Booking struct {
	ID          string        `gorm:"column:id;primaryKey" json:"id"`
	CampaignID  string        `gorm:"column:campaign_id;index" json:"campaign_id"`
	RequesterID string        `gorm:"column:requester_id;index" json:"requester_id"`
	Quantity    int64         `gorm:"column:quantity" json:"quantity"`
	Status      BookingStatus `gorm:"column:status;index" json:"status"`
	CreatedAt   time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"column:updated_at" json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

type Delivery struct {
	ID        string         `gorm:"column:id;primaryKey" json:"id"`
	BookingID string         `gorm:"column:booking_id;index" json:"booking_id"`
	ShipperID string         `gorm:"column:shipper_id;index" json:"shipper_id"`
	Quantity  int64          `gorm:"column:quantity" json:"quantity"`
	Status    DeliveryStatus `gorm:"column:status;index" json:"status"`

	AssignedAt  time.Time  `gorm:"column:assigned_at" json:"assigned_at"`
	PickedAt    *time.Time `gorm:"column:picked_at" json:"picked_at,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Delivery) TableName() string {
	return "deliveries"
}
