//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"graph-engine/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideAWSConfig,
	ProvideXRay,
	ProvideTracer,
	ProvideCollector,
	ProvideCloudWatchRecorder,
	ProvideRecorder,
	ProvideBaseStore,
	ProvideBreakerStore,
	ProvideEntityStore,
	ProvideReadiness,
	ProvideGraphLoader,
	ProvideEventPublisher,
	ProvideAnalyzeGraphHandler,
	ProvideQueryBus,
	ProvideErrorHandler,
	ProvideUserResolver,
	ProvideTraversalHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
