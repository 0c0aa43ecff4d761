package taxonomy

import (
	"github.com/smallbiznis/backoffice/internal/taxonomy/repository"
	"github.com/smallbiznis/backoffice/internal/taxonomy/service"
	"go.uber.org/fx"
)

var Module = fx.Module("taxonomy.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewCache),
	fx.Provide(service.NewSource),
	fx.Provide(service.New),
)
