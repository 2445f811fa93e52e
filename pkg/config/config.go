package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Env var names referenced outside struct tags (tests, error messages).
const (
	EnvPrefix             = "STOREFRONT"
	EnvAppEnv             = "STOREFRONT_APP_ENV"
	EnvPort               = "STOREFRONT_APP_PORT"
	EnvDBDriver           = "STOREFRONT_DB_DRIVER"
	EnvDBDSN              = "STOREFRONT_DB_DSN"
	EnvDBBusyRetryDelays  = "STOREFRONT_DB_BUSY_RETRY_DELAYS"
	EnvRedisURL           = "STOREFRONT_REDIS_URL"
	EnvShopifyURL         = "STOREFRONT_SHOPIFY_STOREFRONT_URL"
	EnvShopifyToken       = "STOREFRONT_SHOPIFY_ACCESS_TOKEN"
	EnvSyncInterval       = "STOREFRONT_SYNC_INTERVAL"
	EnvSupportedCatsPath  = "STOREFRONT_SUPPORTED_CATEGORIES_PATH"
	EnvCatalogMaxPageSize = "STOREFRONT_CATALOG_MAX_PAGE_SIZE"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Shopify ShopifyConfig
	Sync    SyncConfig
	Catalog CatalogConfig
	API     APIConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if strings.TrimSpace(cfg.App.Env) == "" {
		return nil, fmt.Errorf("%s must not be blank", EnvAppEnv)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"STOREFRONT_DB_DSN" default:"data.sqlite"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// BusyRetryDelays is the wait before each retry of a statement that hit
	// a busy/locked store. Its length is the number of retries.
	BusyRetryDelays []time.Duration `envconfig:"STOREFRONT_DB_BUSY_RETRY_DELAYS" default:"10ms,100ms,500ms,1s,2s,3s,4s,5s"`
	AutoMigrate     bool            `envconfig:"STOREFRONT_DB_AUTO_MIGRATE" default:"true"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

func (db DBConfig) validate() error {
	switch strings.ToLower(db.Driver) {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvDBDriver, DriverSQLite, DriverPostgres, db.Driver)
	}
	if strings.TrimSpace(db.DSN) == "" {
		return fmt.Errorf("%s is required", EnvDBDSN)
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type ShopifyConfig struct {
	StorefrontURL string        `envconfig:"STOREFRONT_SHOPIFY_STOREFRONT_URL" default:"https://scooters-n-chairs.myshopify.com/api/2021-10/graphql.json"`
	AccessToken   string        `envconfig:"STOREFRONT_SHOPIFY_ACCESS_TOKEN"`
	PageSize      int           `envconfig:"STOREFRONT_SHOPIFY_PAGE_SIZE" default:"100"`
	Timeout       time.Duration `envconfig:"STOREFRONT_SHOPIFY_TIMEOUT" default:"30s"`
}

type SyncConfig struct {
	Interval time.Duration `envconfig:"STOREFRONT_SYNC_INTERVAL" default:"15m"`
	LockKey  string        `envconfig:"STOREFRONT_SYNC_LOCK_KEY" default:"storefront:catalog-sync:lock"`
	LockTTL  time.Duration `envconfig:"STOREFRONT_SYNC_LOCK_TTL" default:"1h"`
}

type CatalogConfig struct {
	SupportedCategoriesPath string `envconfig:"STOREFRONT_SUPPORTED_CATEGORIES_PATH" default:"supported_categories.yaml"`
	DefaultPageSize         int    `envconfig:"STOREFRONT_CATALOG_DEFAULT_PAGE_SIZE" default:"24"`
	MaxPageSize             int    `envconfig:"STOREFRONT_CATALOG_MAX_PAGE_SIZE" default:"100"`
	RelatedProductsCount    int    `envconfig:"STOREFRONT_CATALOG_RELATED_COUNT" default:"4"`

	FacetCacheTTL time.Duration `envconfig:"STOREFRONT_CATALOG_FACET_CACHE_TTL" default:"1h"`
}

type APIConfig struct {
	CORSOrigins []string `envconfig:"STOREFRONT_API_CORS_ORIGINS" default:"http://localhost:3000"`
	// RateLimitRequests per client IP per window; zero disables limiting.
	RateLimitRequests int           `envconfig:"STOREFRONT_API_RATE_LIMIT_REQUESTS" default:"300"`
	RateLimitWindow   time.Duration `envconfig:"STOREFRONT_API_RATE_LIMIT_WINDOW" default:"1m"`
}
