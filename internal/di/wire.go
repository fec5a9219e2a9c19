//go:build wireinject
// +build wireinject

package di

import (
	"finbot/pkg/config"
	"finbot/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideSnapshotStore,
		ProvideTickBus,
		ProvideMarketStream,

		// Use cases
		ProvideTickCollector,
		ProvideAnalysisEngine,
		ProvideHub,
		ProvideBroadcaster,

		// HTTP surface
		ProvideHandlers,

		ProvideApp,
	)
	return nil, nil
}
