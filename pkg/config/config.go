package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Backend      BackendConfig
	State        StateConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Pricing      PricingConfig
	Sync         SyncConfig
	Catalog      CatalogConfig
	Coupon       CouponConfig
	Orders       OrdersConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.State.validate(); err != nil {
		return nil, err
	}
	if cfg.State.UsesSQL() {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"HOMEPLAST_APP_ENV" required:"true"`
	Port         string   `envconfig:"HOMEPLAST_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"HOMEPLAST_LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"HOMEPLAST_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"HOMEPLAST_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"HOMEPLAST_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig points at the shop REST API the storefront mirrors.
type BackendConfig struct {
	BaseURL            string        `envconfig:"HOMEPLAST_BACKEND_BASE_URL" required:"true"`
	Timeout            time.Duration `envconfig:"HOMEPLAST_BACKEND_TIMEOUT" default:"10s"`
	BreakerMaxFailures uint32        `envconfig:"HOMEPLAST_BACKEND_BREAKER_MAX_FAILURES" default:"5"`
	BreakerInterval    time.Duration `envconfig:"HOMEPLAST_BACKEND_BREAKER_INTERVAL" default:"60s"`
	BreakerOpenTimeout time.Duration `envconfig:"HOMEPLAST_BACKEND_BREAKER_OPEN_TIMEOUT" default:"30s"`
}

// StateConfig selects where per-session application state is persisted.
type StateConfig struct {
	Driver string        `envconfig:"HOMEPLAST_STATE_DRIVER" default:"redis"`
	TTL    time.Duration `envconfig:"HOMEPLAST_STATE_TTL" default:"720h"`
}

// UsesSQL reports whether session state lives in the SQL database.
func (s StateConfig) UsesSQL() bool {
	return strings.EqualFold(strings.TrimSpace(s.Driver), StateDriverSQL)
}

func (s StateConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Driver)) {
	case StateDriverRedis, StateDriverSQL:
		return nil
	}
	return fmt.Errorf("%s must be %q or %q, got %q", EnvStateDriver, StateDriverRedis, StateDriverSQL, s.Driver)
}

type DBConfig struct {
	DSN    string `envconfig:"HOMEPLAST_DB_DSN"`
	Driver string `envconfig:"HOMEPLAST_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"HOMEPLAST_DB_HOST"`
	Port     int    `envconfig:"HOMEPLAST_DB_PORT" default:"5432"`
	User     string `envconfig:"HOMEPLAST_DB_USER"`
	Password string `envconfig:"HOMEPLAST_DB_PASSWORD"`
	Name     string `envconfig:"HOMEPLAST_DB_NAME"`
	SSLMode  string `envconfig:"HOMEPLAST_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HOMEPLAST_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"HOMEPLAST_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"HOMEPLAST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HOMEPLAST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"HOMEPLAST_DB_SLOW_QUERY" default:"200ms"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite engine.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"HOMEPLAST_REDIS_URL"`
	Address      string        `envconfig:"HOMEPLAST_REDIS_ADDR"`
	Password     string        `envconfig:"HOMEPLAST_REDIS_PASSWORD"`
	DB           int           `envconfig:"HOMEPLAST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HOMEPLAST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HOMEPLAST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HOMEPLAST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HOMEPLAST_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"HOMEPLAST_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// JWTConfig verifies bearer tokens minted by the shop back end.
type JWTConfig struct {
	Secret string        `envconfig:"HOMEPLAST_JWT_SECRET" required:"true"`
	Issuer string        `envconfig:"HOMEPLAST_JWT_ISSUER" required:"true"`
	Leeway time.Duration `envconfig:"HOMEPLAST_JWT_LEEWAY" default:"30s"`
}

// PricingConfig carries the business constants used by the order pricing evaluator.
type PricingConfig struct {
	VolumeDiscountThreshold decimal.Decimal `envconfig:"HOMEPLAST_PRICING_VOLUME_DISCOUNT_THRESHOLD" default:"2000"`
	VolumeDiscountRate      decimal.Decimal `envconfig:"HOMEPLAST_PRICING_VOLUME_DISCOUNT_RATE" default:"0.10"`
	FreeDeliveryThreshold   decimal.Decimal `envconfig:"HOMEPLAST_PRICING_FREE_DELIVERY_THRESHOLD" default:"1000"`
	FlatDeliveryFee         decimal.Decimal `envconfig:"HOMEPLAST_PRICING_FLAT_DELIVERY_FEE" default:"50"`
	TaxRate                 decimal.Decimal `envconfig:"HOMEPLAST_PRICING_TAX_RATE" default:"18"`
}

func (p PricingConfig) validate() error {
	fields := map[string]decimal.Decimal{
		"volume discount threshold": p.VolumeDiscountThreshold,
		"volume discount rate":      p.VolumeDiscountRate,
		"free delivery threshold":   p.FreeDeliveryThreshold,
		"flat delivery fee":         p.FlatDeliveryFee,
		"tax rate":                  p.TaxRate,
	}
	for name, value := range fields {
		if value.IsNegative() {
			return fmt.Errorf("pricing %s must be non-negative", name)
		}
	}
	if p.VolumeDiscountRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("pricing volume discount rate must be at most 1")
	}
	return nil
}

// SyncConfig tunes the best-effort cart mirroring to the back end.
type SyncConfig struct {
	DebounceWindow time.Duration `envconfig:"HOMEPLAST_SYNC_DEBOUNCE_WINDOW" default:"500ms"`
	Workers        int           `envconfig:"HOMEPLAST_SYNC_WORKERS" default:"4"`
	QueueSize      int           `envconfig:"HOMEPLAST_SYNC_QUEUE_SIZE" default:"256"`
}

type CatalogConfig struct {
	TTL         time.Duration `envconfig:"HOMEPLAST_CATALOG_TTL" default:"5m"`
	LoadTimeout time.Duration `envconfig:"HOMEPLAST_CATALOG_LOAD_TIMEOUT" default:"15s"`
}

type CouponConfig struct {
	Precheck         bool          `envconfig:"HOMEPLAST_COUPON_PRECHECK" default:"true"`
	RateLimitWindow  time.Duration `envconfig:"HOMEPLAST_COUPON_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitPerUser int           `envconfig:"HOMEPLAST_COUPON_RATE_LIMIT" default:"10"`
}

type OrdersConfig struct {
	IdempotencyTTL time.Duration `envconfig:"HOMEPLAST_ORDER_IDEMPOTENCY_TTL" default:"168h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HOMEPLAST_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbHostEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
