package di

import (
	"go.uber.org/zap"

	querybus "graph-engine/application/queries/bus"
	"graph-engine/infrastructure/config"
	"graph-engine/infrastructure/persistence/decorators"
	"graph-engine/interfaces/http/rest"
	"graph-engine/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	LogLevel   zap.AtomicLevel
	Router     *rest.Router
	QueryBus   *querybus.QueryBus
	Breaker    *decorators.BreakerStore
	CloudWatch *observability.CloudWatchRecorder
}
