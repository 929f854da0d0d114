package fulfillment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sharemeal-platform/pkg/middleware"
)

type createBookingRequest struct {
	CampaignID string `json:"campaign_id" binding:"required"`
	Quantity   int64  `json:"quantity" binding:"required"`
}

type assignRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	ShipperID string `json:"shipper_id" binding:"required"`
}

type statusRequest struct {
	Status DeliveryStatus `json:"status" binding:"required"`
}

type overrideRequest struct {
	ShipperID string `json:"shipper_id" binding:"required"`
}

func registerRoutes(r *gin.Engine, svc *Service) {
	r.POST("/bookings", func(c *gin.Context) {
		var req createBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "bad_request", "message": err.Error()}})
			return
		}

		b, err := svc.CreateBooking(c.Request.Context(), middleware.ActorFrom(c), req.CampaignID, req.Quantity)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, b)
	})

	r.DELETE("/bookings/:id", func(c *gin.Context) {
		b, err := svc.CancelBooking(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, b)
	})

	r.POST("/deliveries", func(c *gin.Context) {
		var req assignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "bad_request", "message": err.Error()}})
			return
		}

		d, err := svc.AssignShipper(c.Request.Context(), middleware.ActorFrom(c), req.BookingID, req.ShipperID)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, d)
	})

	r.PATCH("/deliveries/:id/status", func(c *gin.Context) {
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "bad_request", "message": err.Error()}})
			return
		}

		d, err := svc.UpdateDeliveryStatus(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req.Status)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, d)
	})

	r.PATCH("/deliveries/:id/shipper", func(c *gin.Context) {
		var req overrideRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "bad_request", "message": err.Error()}})
			return
		}

		d, err := svc.OverrideShipper(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req.ShipperID)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, d)
	})

	r.GET("/deliveries/:id", func(c *gin.Context) {
		d, err := svc.GetDelivery(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, d)
	})
}
