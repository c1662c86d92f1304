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
	CORS         CORSConfig
	DB           DBConfig
	Redis        RedisConfig
	Cart         CartConfig
	Session      SessionConfig
	Checkout     CheckoutConfig
	Catalog      CatalogConfig
	Payments     PaymentsConfig
	Stripe       StripeConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Cart.validate(cfg.Redis); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MigrateConfig is the subset of settings the migration CLI needs.
type MigrateConfig struct {
	App AppConfig
	DB  DBConfig
}

// LoadMigrate reads only the app and database sections.
func LoadMigrate() (*MigrateConfig, error) {
	var cfg MigrateConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MORI_APP_ENV" required:"true"`
	Port         string `envconfig:"MORI_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MORI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MORI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"MORI_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

type DBConfig struct {
	DSN    string `envconfig:"MORI_DB_DSN"`
	Driver string `envconfig:"MORI_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MORI_DB_HOST"`
	LegacyPort     int    `envconfig:"MORI_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MORI_DB_USER"`
	LegacyPassword string `envconfig:"MORI_DB_PASSWORD"`
	LegacyName     string `envconfig:"MORI_DB_NAME"`
	LegacySSLMode  string `envconfig:"MORI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MORI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MORI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MORI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MORI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"MORI_REDIS_URL"`
	Address      string        `envconfig:"MORI_REDIS_ADDR"`
	Password     string        `envconfig:"MORI_REDIS_PASSWORD"`
	DB           int           `envconfig:"MORI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MORI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MORI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MORI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MORI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MORI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether any redis endpoint was provided.
func (r RedisConfig) Configured() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type CartConfig struct {
	Backend       string        `envconfig:"MORI_CART_BACKEND" default:"redis"`
	SlotName      string        `envconfig:"MORI_CART_SLOT_NAME" default:"tea-store-cart"`
	SlotTTL       time.Duration `envconfig:"MORI_CART_SLOT_TTL" default:"720h"`
	IdleTTL       time.Duration `envconfig:"MORI_CART_IDLE_TTL" default:"30m"`
	SweepInterval time.Duration `envconfig:"MORI_CART_SWEEP_INTERVAL" default:"1m"`
}

// BackendKind returns the normalized backend name.
func (c CartConfig) BackendKind() string {
	return strings.ToLower(strings.TrimSpace(c.Backend))
}

func (c CartConfig) validate(redis RedisConfig) error {
	switch c.BackendKind() {
	case CartBackendRedis:
		if !redis.Configured() {
			return fmt.Errorf("%s=%s requires %s or %s", EnvCartBackend, CartBackendRedis, EnvRedisURL, EnvRedisAddr)
		}
	case CartBackendDB, CartBackendMemory:
	default:
		return fmt.Errorf("%s must be one of %s|%s|%s, got %q", EnvCartBackend, CartBackendRedis, CartBackendDB, CartBackendMemory, c.Backend)
	}
	if strings.TrimSpace(c.SlotName) == "" {
		return fmt.Errorf("%s is required", EnvCartSlotName)
	}
	return nil
}

type SessionConfig struct {
	Secret string        `envconfig:"MORI_SESSION_SECRET" required:"true"`
	Issuer string        `envconfig:"MORI_SESSION_ISSUER" default:"mori-storefront"`
	TTL    time.Duration `envconfig:"MORI_SESSION_TTL" default:"720h"`
}

type CheckoutConfig struct {
	Currency         string          `envconfig:"MORI_CHECKOUT_CURRENCY" default:"eur"`
	FreeShippingOver decimal.Decimal `envconfig:"MORI_CHECKOUT_FREE_SHIPPING_OVER" default:"50"`
	ShippingFee      decimal.Decimal `envconfig:"MORI_CHECKOUT_SHIPPING_FEE" default:"5"`
	DefaultCountry   string          `envconfig:"MORI_CHECKOUT_DEFAULT_COUNTRY" default:"Azerbaijan"`
}

func (c CheckoutConfig) validate() error {
	if strings.TrimSpace(c.Currency) == "" {
		return fmt.Errorf("%s is required", EnvCheckoutCurrency)
	}
	if c.ShippingFee.IsNegative() || c.FreeShippingOver.IsNegative() {
		return fmt.Errorf("shipping fee and free shipping threshold must be non-negative")
	}
	return nil
}

type CatalogConfig struct {
	FileBaseURL string `envconfig:"MORI_CATALOG_FILE_BASE_URL"`
}

type PaymentsConfig struct {
	Provider string `envconfig:"MORI_PAYMENTS_PROVIDER" default:"stripe"`
}

// ProviderKind returns the normalized provider name.
func (p PaymentsConfig) ProviderKind() string {
	return strings.ToLower(strings.TrimSpace(p.Provider))
}

type StripeConfig struct {
	APIKey string `envconfig:"MORI_STRIPE_API_KEY"`
	Env    string `envconfig:"MORI_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type GCPConfig struct {
	ProjectID string `envconfig:"MORI_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"MORI_PUBSUB_ORDERS_TOPIC" default:"mori-order-events"`
}

type OutboxConfig struct {
	Enabled      bool          `envconfig:"MORI_OUTBOX_ENABLED" default:"false"`
	BatchSize    int           `envconfig:"MORI_OUTBOX_BATCH_SIZE" default:"50"`
	PollInterval time.Duration `envconfig:"MORI_OUTBOX_POLL_INTERVAL" default:"500ms"`
	MaxAttempts  int           `envconfig:"MORI_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MORI_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
