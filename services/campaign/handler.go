package campaign

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createRequest struct {
	Title      string `json:"title" binding:"required"`
	GoalAmount int64  `json:"goal_amount"`
	MealPrice  int64  `json:"meal_price"`
	TargetQty  int64  `json:"target_qty"`
}

func registerRoutes(r *gin.Engine, svc *Service) {
	r.POST("/campaigns", func(c *gin.Context) {
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "bad_request", "message": err.Error()}})
			return
		}

		created, err := svc.Create(c.Request.Context(), req.Title, Config{
			GoalAmount: req.GoalAmount,
			MealPrice:  req.MealPrice,
			TargetQty:  req.TargetQty,
		})
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusCreated, created)
	})

	r.GET("/campaigns/:id", func(c *gin.Context) {
		found, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, found)
	})

	r.GET("/campaigns/:id/totals", func(c *gin.Context) {
		totals, err := svc.Totals(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, totals)
	})
}
