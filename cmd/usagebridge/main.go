package main

import (
	"github.com/billingbridge/usagebridge/internal/config"
	"github.com/billingbridge/usagebridge/internal/observability"
	"github.com/billingbridge/usagebridge/internal/server"
	"github.com/billingbridge/usagebridge/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		db.Module,
		server.Module,
	)
	app.Run()
}
