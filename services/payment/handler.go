package payment

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sharemeal-platform/pkg/errutil"
)

func registerRoutes(r *gin.Engine, svc *Service) {
	r.POST("/webhooks/wallet", webhookHandler(svc, ProviderWallet, func(c *gin.Context, res *Result) {
		c.JSON(http.StatusOK, gin.H{
			"message":   "acknowledged",
			"duplicate": !res.Created,
		})
	}))

	r.POST("/webhooks/bank", webhookHandler(svc, ProviderBank, func(c *gin.Context, res *Result) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}))

	r.GET("/donations/:id", func(c *gin.Context) {
		d, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, d)
	})

	r.GET("/campaigns/:id/donations", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		donations, err := svc.ListByCampaign(c.Request.Context(), c.Param("id"), limit)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": donations})
	})
}

func webhookHandler(svc *Service, provider Provider, ack func(*gin.Context, *Result)) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Error(errutil.InvalidPayload("unreadable request body", errutil.WithErr(err)))
			return
		}

		res, err := svc.Ingest(c.Request.Context(), provider, payload)
		if err != nil {
			c.Error(err)
			return
		}

		ack(c, res)
	}
}
