package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"sharemeal-platform/pkg/config"
	"sharemeal-platform/pkg/db"
	"sharemeal-platform/pkg/gen"
	"sharemeal-platform/pkg/logger"
	"sharemeal-platform/pkg/redis"
	"sharemeal-platform/pkg/task"
	"sharemeal-platform/services/campaign"
	"sharemeal-platform/services/reconcile"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		gen.Module,
		task.Client,
		task.Server,
		fx.Provide(campaign.NewService),
		reconcile.Module,
		fxLogger,
	)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})
