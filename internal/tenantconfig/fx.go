package tenantconfig

import (
	"github.com/billingbridge/usagebridge/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func provideStore(cfg config.Config, log *zap.Logger) (*Store, error) {
	return NewStore(cfg.TenantConfigFile, log)
}

// Module wires the tenant credentials store.
var Module = fx.Module("tenantconfig",
	fx.Provide(provideStore),
)
