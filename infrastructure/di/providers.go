package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"graph-engine/application/loaders"
	"graph-engine/application/ports"
	"graph-engine/application/queries"
	querybus "graph-engine/application/queries/bus"
	queryhandlers "graph-engine/application/queries/handlers"
	"graph-engine/infrastructure/auth"
	"graph-engine/infrastructure/config"
	"graph-engine/infrastructure/messaging/eventbridge"
	"graph-engine/infrastructure/persistence/decorators"
	"graph-engine/infrastructure/persistence/dynamodb"
	"graph-engine/infrastructure/persistence/memory"
	"graph-engine/infrastructure/persistence/supabase"
	"graph-engine/interfaces/http/rest"
	"graph-engine/interfaces/http/rest/handlers"
	"graph-engine/interfaces/http/rest/middleware"
	pkgauth "graph-engine/pkg/auth"
	pkgerrors "graph-engine/pkg/errors"
	"graph-engine/pkg/observability"
)

const (
	serviceName      = "graph-engine"
	metricsNamespace = "graph_engine"
	devJWTSecret     = "development-secret-change-in-production"
)

// PingableStore is an entity store that can report its own health.
type PingableStore interface {
	ports.EntityStore
	Ping(ctx context.Context) error
}

// ProvideAWSConfig loads AWS configuration. In Lambda with tracing on, every SDK call is
// recorded as an X-Ray subsegment.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.IsLambda && cfg.EnableTracing {
		observability.InstrumentAWSConfig(&awsCfg)
	}
	return awsCfg, nil
}

// ProvideXRay enables X-Ray subsegments in Lambda only, where the runtime supplies the segment.
func ProvideXRay(cfg *config.Config) *observability.XRay {
	return observability.NewXRay(cfg.IsLambda && cfg.EnableTracing)
}

// ProvideTracer starts the OTLP exporter for long-running servers. The cleanup flushes spans.
func ProvideTracer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (trace.Tracer, func(), error) {
	if !cfg.EnableTracing || cfg.IsLambda {
		return observability.NoopTracer(), func() {}, nil
	}

	tp, err := observability.InitTracing(ctx, serviceName, cfg.Environment, cfg.OTLPEndpoint, cfg.OTLPInsecure)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to shut down tracer provider", zap.Error(err))
		}
	}
	return tp.Tracer(), cleanup, nil
}

// ProvideCollector creates the Prometheus collector served at /metrics. Nil when metrics are
// disabled or when running in Lambda, where nothing would scrape it.
func ProvideCollector(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics || cfg.IsLambda {
		return nil
	}
	return observability.NewCollector(metricsNamespace)
}

// ProvideCloudWatchRecorder creates the buffered CloudWatch recorder used in Lambda.
func ProvideCloudWatchRecorder(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) *observability.CloudWatchRecorder {
	if !cfg.EnableMetrics || !cfg.IsLambda {
		return nil
	}
	namespace := fmt.Sprintf("GraphEngine/%s", cfg.Environment)
	return observability.NewCloudWatchRecorder(namespace, awscloudwatch.NewFromConfig(awsCfg), logger)
}

// ProvideRecorder picks whichever metrics backend is active.
func ProvideRecorder(collector *observability.Collector, cloudwatch *observability.CloudWatchRecorder) observability.Recorder {
	switch {
	case collector != nil:
		return collector
	case cloudwatch != nil:
		return cloudwatch
	default:
		return observability.NopRecorder{}
	}
}

// ProvideBaseStore creates the configured entity store backend.
func ProvideBaseStore(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) (PingableStore, error) {
	switch cfg.StoreProvider {
	case config.StoreDynamoDB:
		logger.Info("Using DynamoDB entity store", zap.String("table", cfg.DynamoDBTable))
		return dynamodb.NewStore(awsdynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable, logger), nil

	case config.StoreSupabase:
		querier, err := supabase.NewClientQuerier(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			return nil, err
		}
		logger.Info("Using Supabase entity store",
			zap.String("nodes_table", cfg.SupabaseNodesTable),
			zap.String("relationships_table", cfg.SupabaseRelationshipsTable),
		)
		return supabase.NewStore(querier, cfg.SupabaseNodesTable, cfg.SupabaseRelationshipsTable, logger), nil

	default:
		if cfg.SeedFile == "" {
			logger.Warn("Using empty in-memory entity store; set SEED_FILE to load fixtures")
			return memory.NewStore(), nil
		}
		store, err := memory.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		logger.Info("Using in-memory entity store", zap.String("seed_file", cfg.SeedFile))
		return store, nil
	}
}

// ProvideBreakerStore wraps the backend in a circuit breaker.
func ProvideBreakerStore(base PingableStore, cfg *config.Config, logger *zap.Logger) *decorators.BreakerStore {
	return decorators.NewBreakerStore(base, decorators.BreakerSettings{
		Name:         "entity-store",
		MaxRequests:  cfg.BreakerMaxRequests,
		Interval:     cfg.BreakerInterval,
		Timeout:      cfg.BreakerTimeout,
		MinRequests:  cfg.BreakerMinRequests,
		FailureRatio: cfg.BreakerFailureRatio,
	}, logger)
}

// ProvideEntityStore is the store the loader reads from: instrumented, then breaker, then backend.
func ProvideEntityStore(breaker *decorators.BreakerStore, cfg *config.Config, recorder observability.Recorder, tracer trace.Tracer) ports.EntityStore {
	return decorators.NewInstrumentedStore(breaker, cfg.StoreProvider, recorder, tracer)
}

// ProvideReadiness reports not ready while the breaker is open or the backend fails a ping.
func ProvideReadiness(base PingableStore, breaker *decorators.BreakerStore) rest.ReadinessCheck {
	return func(ctx context.Context) error {
		if breaker.State() == gobreaker.StateOpen {
			return errors.New("entity store circuit breaker is open")
		}
		return base.Ping(ctx)
	}
}

// ProvideGraphLoader creates the per-request graph loader.
func ProvideGraphLoader(store ports.EntityStore, cfg *config.Config, logger *zap.Logger) *loaders.GraphLoader {
	return loaders.NewGraphLoader(store, cfg.StoreFetchTimeout, logger)
}

// ProvideEventPublisher returns nil when events are disabled.
func ProvideEventPublisher(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) ports.EventPublisher {
	if !cfg.EnableEvents {
		return nil
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideAnalyzeGraphHandler creates the analysis query handler.
func ProvideAnalyzeGraphHandler(
	loader *loaders.GraphLoader,
	publisher ports.EventPublisher,
	recorder observability.Recorder,
	tracer trace.Tracer,
	xray *observability.XRay,
	logger *zap.Logger,
) *queryhandlers.AnalyzeGraphHandler {
	return queryhandlers.NewAnalyzeGraphHandler(loader, publisher, recorder, tracer, xray, logger)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(analyze *queryhandlers.AnalyzeGraphHandler, recorder observability.Recorder, tracer trace.Tracer, logger *zap.Logger) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(
		querybus.WithTracing(tracer),
		querybus.WithMetrics(recorder),
	)

	if err := queryBus.Register(queries.AnalyzeGraphQuery{}, analyze); err != nil {
		return nil, err
	}
	logger.Debug("Query bus ready", zap.Strings("queries", queryBus.Queries()))
	return queryBus, nil
}

// ProvideErrorHandler creates the HTTP error handler.
func ProvideErrorHandler(logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger)
}

// ProvideUserResolver creates the configured authentication provider.
func ProvideUserResolver(cfg *config.Config, logger *zap.Logger) (middleware.UserResolver, error) {
	switch cfg.AuthProvider {
	case config.AuthSupabase:
		return auth.NewSupabaseResolver(cfg.SupabaseURL, cfg.SupabaseKey)
	case config.AuthGateway:
		return auth.NewGatewayResolver(), nil
	default:
		jwtConfig := pkgauth.JWTConfig{
			PublicKey: cfg.JWTPublicKey,
			SecretKey: cfg.JWTSecret,
			Issuer:    cfg.JWTIssuer,
			Audience:  cfg.JWTAudience,
			Leeway:    cfg.JWTLeeway,
		}
		if jwtConfig.PublicKey == "" && jwtConfig.SecretKey == "" {
			logger.Warn("JWT_SECRET not set; using the development secret")
			jwtConfig.SecretKey = devJWTSecret
		}
		return auth.NewJWTResolver(jwtConfig)
	}
}

// ProvideTraversalHandler creates the HTTP traversal handler.
func ProvideTraversalHandler(queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, cfg *config.Config, logger *zap.Logger) *handlers.TraversalHandler {
	return handlers.NewTraversalHandler(queryBus, errorHandler, handlers.TraversalLimits{
		DefaultMaxDepth: cfg.DefaultMaxDepth,
		MaxDepthLimit:   cfg.MaxDepthLimit,
	}, logger)
}

// ProvideRouter creates the HTTP router.
func ProvideRouter(
	traversal *handlers.TraversalHandler,
	resolver middleware.UserResolver,
	errorHandler *pkgerrors.ErrorHandler,
	recorder observability.Recorder,
	collector *observability.Collector,
	readiness rest.ReadinessCheck,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	var metricsHandler http.Handler
	if collector != nil {
		metricsHandler = collector.Handler()
	}

	return rest.NewRouter(traversal, resolver, errorHandler, recorder, rest.RouterOptions{
		EnableCORS:     cfg.EnableCORS,
		CORSOrigins:    cfg.CORSOrigins,
		MetricsHandler: metricsHandler,
		Readiness:      readiness,
	}, logger)
}
