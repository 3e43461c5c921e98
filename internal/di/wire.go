//go:build wireinject
// +build wireinject

package di

import (
	"StockCast/pkg/config"
	"StockCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideHTTPClient,
		ProvideJournal,
		ProvidePublisher,
		ProvideLimiter,

		// Domain services
		ProvidePriceProvider,
		ProvidePredictor,

		// Use cases
		ProvideForecastUseCase,
		ProvideQuickStatsUseCase,

		// Handlers
		ProvideForecastHandler,
		ProvideHealthHandler,
		ProvidePagesHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
