package reconcile

import (
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
)

var Module = fx.Module("reconcile.service",
	fx.Provide(NewService, NewScheduler),
	fx.Invoke(
		registerHandlers,
		StartScheduler,
	),
)

func registerHandlers(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(TypeBookings, svc.HandleBookings)
	mux.HandleFunc(TypeDonations, svc.HandleDonations)
}
