package billing

import (
	"github.com/billingbridge/usagebridge/internal/billing/repository"
	"github.com/billingbridge/usagebridge/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
