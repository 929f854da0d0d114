package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sharemeal-platform/pkg/config"
	"sharemeal-platform/pkg/db"
	"sharemeal-platform/pkg/gen"
	"sharemeal-platform/pkg/health"
	"sharemeal-platform/pkg/logger"
	"sharemeal-platform/pkg/redis"
	"sharemeal-platform/pkg/server"
	"sharemeal-platform/services/audit"
	"sharemeal-platform/services/campaign"
	"sharemeal-platform/services/fulfillment"
	"sharemeal-platform/services/payment"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		gen.Module,
		server.Module,
		health.Module,
		audit.Module,
		campaign.Module,
		payment.Module,
		fulfillment.Module,
		fx.Invoke(
			db.RegisterPlugins,
			autoMigrate,
		),
		fxLogger,
	)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func autoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&campaign.Campaign{},
		&payment.Donation{},
		&fulfillment.Booking{},
		&fulfillment.Delivery{},
		&audit.Log{},
	)
}
