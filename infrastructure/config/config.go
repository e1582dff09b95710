package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory   = "memory"
	StoreDynamoDB = "dynamodb"
	StoreSupabase = "supabase"

	AuthJWT      = "jwt"
	AuthSupabase = "supabase"
	AuthGateway  = "gateway"
)

// Config holds all application configuration.
// Sources, lowest priority first: defaults, CONFIG_FILE (YAML), .env (outside production), environment.
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// Entity store
	StoreProvider     string        `yaml:"store_provider"`
	StoreFetchTimeout time.Duration `yaml:"store_fetch_timeout"`
	SeedFile          string        `yaml:"seed_file"`

	// AWS configuration
	AWSRegion     string `yaml:"aws_region"`
	DynamoDBTable string `yaml:"dynamodb_table"`
	EventBusName  string `yaml:"event_bus_name"`

	// Supabase configuration
	SupabaseURL                string `yaml:"supabase_url"`
	SupabaseKey                string `yaml:"-"`
	SupabaseNodesTable         string `yaml:"supabase_nodes_table"`
	SupabaseRelationshipsTable string `yaml:"supabase_relationships_table"`

	// Lambda configuration
	IsLambda           bool   `yaml:"is_lambda"`
	LambdaFunctionName string `yaml:"-"`

	// Traversal limits. A MaxDepthLimit of zero leaves request depth unbounded.
	DefaultMaxDepth int `yaml:"default_max_depth"`
	MaxDepthLimit   int `yaml:"max_depth_limit"`

	// Circuit breaker around the entity store
	BreakerMaxRequests  uint32        `yaml:"breaker_max_requests"`
	BreakerInterval     time.Duration `yaml:"breaker_interval"`
	BreakerTimeout      time.Duration `yaml:"breaker_timeout"`
	BreakerMinRequests  uint32        `yaml:"breaker_min_requests"`
	BreakerFailureRatio float64       `yaml:"breaker_failure_ratio"`

	// Logging
	LogLevel      string `yaml:"log_level"`
	LogFile       string `yaml:"log_file"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`

	// Authentication
	AuthProvider string        `yaml:"auth_provider"`
	JWTSecret    string        `yaml:"-"`
	JWTPublicKey string        `yaml:"-"`
	JWTIssuer    string        `yaml:"jwt_issuer"`
	JWTAudience  []string      `yaml:"jwt_audience"`
	JWTLeeway    time.Duration `yaml:"jwt_leeway"`

	// Observability
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`

	// Feature flags
	EnableMetrics bool     `yaml:"enable_metrics"`
	EnableTracing bool     `yaml:"enable_tracing"`
	EnableCORS    bool     `yaml:"enable_cors"`
	EnableEvents  bool     `yaml:"enable_events"`
	CORSOrigins   []string `yaml:"cors_origins"`

	// ConfigFile is the YAML file the configuration was read from, if any.
	ConfigFile string `yaml:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		ServerAddress:              ":8080",
		Environment:                "development",
		StoreProvider:              StoreMemory,
		StoreFetchTimeout:          10 * time.Second,
		AWSRegion:                  "us-west-2",
		DynamoDBTable:              "graph-entities",
		EventBusName:               "graph-engine-events",
		SupabaseNodesTable:         "nodes",
		SupabaseRelationshipsTable: "relationships",
		DefaultMaxDepth:            5,
		BreakerMaxRequests:         3,
		BreakerInterval:            60 * time.Second,
		BreakerTimeout:             30 * time.Second,
		BreakerMinRequests:         5,
		BreakerFailureRatio:        0.6,
		LogLevel:                   "info",
		LogMaxSizeMB:               100,
		LogMaxBackups:              5,
		LogMaxAgeDays:              28,
		AuthProvider:               AuthJWT,
		JWTIssuer:                  "graph-engine",
		JWTLeeway:                  30 * time.Second,
		OTLPEndpoint:               "localhost:4317",
		OTLPInsecure:               true,
		EnableCORS:                 true,
		CORSOrigins:                []string{"*"},
	}
}

// LoadConfig loads configuration from CONFIG_FILE, .env and environment variables
func LoadConfig() (*Config, error) {
	if getEnv("ENVIRONMENT", "development") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}
	return Load(os.Getenv("CONFIG_FILE"))
}

// Load builds a configuration from defaults, the YAML file at path (optional) and the environment.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	c.StoreProvider = getEnv("STORE_PROVIDER", c.StoreProvider)
	c.StoreFetchTimeout = getEnvDuration("STORE_FETCH_TIMEOUT", c.StoreFetchTimeout)
	c.SeedFile = getEnv("SEED_FILE", c.SeedFile)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	c.SupabaseURL = getEnv("SUPABASE_URL", c.SupabaseURL)
	c.SupabaseKey = getEnv("SUPABASE_SERVICE_ROLE_KEY", c.SupabaseKey)
	c.SupabaseNodesTable = getEnv("SUPABASE_NODES_TABLE", c.SupabaseNodesTable)
	c.SupabaseRelationshipsTable = getEnv("SUPABASE_RELATIONSHIPS_TABLE", c.SupabaseRelationshipsTable)

	c.IsLambda = getEnvBool("IS_LAMBDA", c.IsLambda || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "")
	c.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", c.LambdaFunctionName)

	c.DefaultMaxDepth = getEnvInt("DEFAULT_MAX_DEPTH", c.DefaultMaxDepth)
	c.MaxDepthLimit = getEnvInt("MAX_DEPTH_LIMIT", c.MaxDepthLimit)

	c.BreakerMaxRequests = uint32(getEnvInt("BREAKER_MAX_REQUESTS", int(c.BreakerMaxRequests)))
	c.BreakerInterval = getEnvDuration("BREAKER_INTERVAL", c.BreakerInterval)
	c.BreakerTimeout = getEnvDuration("BREAKER_TIMEOUT", c.BreakerTimeout)
	c.BreakerMinRequests = uint32(getEnvInt("BREAKER_MIN_REQUESTS", int(c.BreakerMinRequests)))
	c.BreakerFailureRatio = getEnvFloat("BREAKER_FAILURE_RATIO", c.BreakerFailureRatio)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.LogMaxSizeMB = getEnvInt("LOG_MAX_SIZE_MB", c.LogMaxSizeMB)
	c.LogMaxBackups = getEnvInt("LOG_MAX_BACKUPS", c.LogMaxBackups)
	c.LogMaxAgeDays = getEnvInt("LOG_MAX_AGE_DAYS", c.LogMaxAgeDays)

	c.AuthProvider = getEnv("AUTH_PROVIDER", c.AuthProvider)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTPublicKey = getEnv("JWT_PUBLIC_KEY", c.JWTPublicKey)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.JWTAudience = getEnvList("JWT_AUDIENCE", c.JWTAudience)
	c.JWTLeeway = getEnvDuration("JWT_LEEWAY", c.JWTLeeway)

	c.OTLPEndpoint = getEnv("OTLP_ENDPOINT", c.OTLPEndpoint)
	c.OTLPInsecure = getEnvBool("OTLP_INSECURE", c.OTLPInsecure)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.EnableEvents = getEnvBool("ENABLE_EVENTS", c.EnableEvents)
	c.CORSOrigins = getEnvList("CORS_ORIGINS", c.CORSOrigins)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreProvider {
	case StoreMemory, StoreDynamoDB:
	case StoreSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for the supabase store")
		}
	default:
		return fmt.Errorf("unknown STORE_PROVIDER %q", c.StoreProvider)
	}

	switch c.AuthProvider {
	case AuthJWT:
		if c.IsProduction() && c.JWTSecret == "" && c.JWTPublicKey == "" {
			return fmt.Errorf("JWT_SECRET or JWT_PUBLIC_KEY is required in production")
		}
	case AuthSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required for supabase auth")
		}
	case AuthGateway:
		if !c.IsLambda {
			return fmt.Errorf("gateway auth is only valid behind API Gateway (IS_LAMBDA)")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}

	if c.MaxDepthLimit < 0 {
		return fmt.Errorf("MAX_DEPTH_LIMIT must not be negative")
	}
	if c.DefaultMaxDepth < 0 {
		return fmt.Errorf("DEFAULT_MAX_DEPTH must not be negative")
	}
	if c.MaxDepthLimit > 0 && c.DefaultMaxDepth > c.MaxDepthLimit {
		return fmt.Errorf("DEFAULT_MAX_DEPTH must not exceed MAX_DEPTH_LIMIT (%d)", c.MaxDepthLimit)
	}
	if c.StoreFetchTimeout <= 0 {
		return fmt.Errorf("STORE_FETCH_TIMEOUT must be positive")
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		return fmt.Errorf("BREAKER_FAILURE_RATIO must be in (0, 1]")
	}
	if c.EnableEvents && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("750ms", "10s").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
