package usagesync

import (
	"go.uber.org/fx"
)

var Module = fx.Module("usagesync.service",
	fx.Provide(New),
)
