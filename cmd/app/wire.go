//go:build wireinject
// +build wireinject

package main

import (
	"toolhub/config"
	"toolhub/internal/command"
	"toolhub/internal/cron"
	"toolhub/internal/database"
	"toolhub/internal/handler"
	"toolhub/internal/middleware"
	"toolhub/internal/router"
	"toolhub/internal/service"
	"toolhub/internal/telemetry"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// wireApp init application.
func wireApp(*config.Configuration, *zap.Logger) (*App, func(), error) {
	panic(
		wire.Build(
			database.ProviderSet,
			service.ProviderSet,
			handler.ProviderSet,
			middleware.ProviderSet,
			router.ProviderSet,
			cron.ProviderSet,
			newHttpServer,
			telemetry.ProviderSet,
			newApp,
		),
	)
}

// wireCommand init application.
func wireCommand(*config.Configuration, *zap.Logger) (*command.Command, func(), error) {
	panic(
		wire.Build(
			database.ProviderSet,
			telemetry.ProviderSet,
			service.ProviderSet,
			command.ProviderSet,
		),
	)
}
