package summary

import (
	"github.com/smallbiznis/backoffice/internal/summary/repository"
	"github.com/smallbiznis/backoffice/internal/summary/service"
	"go.uber.org/fx"
)

var Module = fx.Module("summary.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.ProvideOptions),
	fx.Provide(service.New),
	fx.Provide(service.NewOrderService),
)
