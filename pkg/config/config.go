package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "ECOM"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "ECOM_DB_DSN"
	EnvDBHost = "ECOM_DB_HOST"
	EnvDBUser = "ECOM_DB_USER"
	EnvDBName = "ECOM_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Pricing      PricingConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ECOM_APP_ENV" required:"true"`
	Port         string `envconfig:"ECOM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ECOM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ECOM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ECOM_DB_DSN"`
	Driver string `envconfig:"ECOM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ECOM_DB_HOST"`
	LegacyPort     int    `envconfig:"ECOM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ECOM_DB_USER"`
	LegacyPassword string `envconfig:"ECOM_DB_PASSWORD"`
	LegacyName     string `envconfig:"ECOM_DB_NAME"`
	LegacySSLMode  string `envconfig:"ECOM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ECOM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ECOM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ECOM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ECOM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ECOM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ECOM_REDIS_ADDR"`
	Password     string        `envconfig:"ECOM_REDIS_PASSWORD"`
	DB           int           `envconfig:"ECOM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ECOM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ECOM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ECOM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ECOM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ECOM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ECOM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ECOM_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ECOM_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ECOM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ECOM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ECOM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ECOM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ECOM_ARGON_KEY_LEN" default:"32"`
}

// PricingConfig feeds the order pricing policy. TaxRate is a decimal string
// such as "0.05" so operators never reason about basis points.
type PricingConfig struct {
	TaxRate                 string `envconfig:"ECOM_PRICING_TAX_RATE" default:"0.05"`
	ShippingStandardCents   int64  `envconfig:"ECOM_PRICING_SHIPPING_STANDARD_CENTS" default:"500"`
	ShippingExpressCents    int64  `envconfig:"ECOM_PRICING_SHIPPING_EXPRESS_CENTS" default:"1500"`
	ShippingPickupFeeCents  int64  `envconfig:"ECOM_PRICING_SHIPPING_PICKUP_CENTS" default:"0"`
	FreeShippingOverCents   int64  `envconfig:"ECOM_PRICING_FREE_SHIPPING_OVER_CENTS" default:"0"`
	IdempotencyRetentionTTL string `envconfig:"ECOM_PRICING_IDEMPOTENCY_TTL" default:"168h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ECOM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ECOM_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ECOM_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"ECOM_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ECOM_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"ECOM_PUBSUB_ORDERS_TOPIC" default:"ecom-order-events"`
	OrdersSubscription string `envconfig:"ECOM_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ECOM_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ECOM_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ECOM_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// CronConfig tunes the maintenance worker cadence and job windows.
type CronConfig struct {
	IntervalHours       int `envconfig:"ECOM_CRON_INTERVAL_HOURS" default:"24"`
	OutboxRetentionDays int `envconfig:"ECOM_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	OutboxMinAttempts   int `envconfig:"ECOM_CRON_OUTBOX_MIN_ATTEMPTS" default:"10"`
	CartAbandonHours    int `envconfig:"ECOM_CRON_CART_ABANDON_HOURS" default:"72"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
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
