package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "MOLDOPS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "MOLDOPS_DB_DSN"
	EnvDBHost = "MOLDOPS_DB_HOST"
	EnvDBUser = "MOLDOPS_DB_USER"
	EnvDBName = "MOLDOPS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
	Stock         StockConfig
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
	Env          string `envconfig:"MOLDOPS_APP_ENV" required:"true"`
	Port         string `envconfig:"MOLDOPS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MOLDOPS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MOLDOPS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MOLDOPS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MOLDOPS_DB_DSN"`
	Driver string `envconfig:"MOLDOPS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MOLDOPS_DB_HOST"`
	LegacyPort     int    `envconfig:"MOLDOPS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MOLDOPS_DB_USER"`
	LegacyPassword string `envconfig:"MOLDOPS_DB_PASSWORD"`
	LegacyName     string `envconfig:"MOLDOPS_DB_NAME"`
	LegacySSLMode  string `envconfig:"MOLDOPS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MOLDOPS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MOLDOPS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MOLDOPS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MOLDOPS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MOLDOPS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MOLDOPS_REDIS_ADDR"`
	Password     string        `envconfig:"MOLDOPS_REDIS_PASSWORD"`
	DB           int           `envconfig:"MOLDOPS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MOLDOPS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MOLDOPS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MOLDOPS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MOLDOPS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MOLDOPS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"MOLDOPS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"MOLDOPS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"MOLDOPS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"MOLDOPS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MOLDOPS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MOLDOPS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MOLDOPS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MOLDOPS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MOLDOPS_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MOLDOPS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MOLDOPS_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	ConsumerIdempotencyTTL time.Duration `envconfig:"MOLDOPS_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MOLDOPS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"MOLDOPS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MOLDOPS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName      string        `envconfig:"MOLDOPS_GCS_BUCKET_NAME" required:"true"`
	UploadURLExpiry time.Duration `envconfig:"MOLDOPS_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"MOLDOPS_PUBSUB_NOTIFICATION_TOPIC" default:"moldops-notification-events"`
	NotificationSubscription string `envconfig:"MOLDOPS_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MOLDOPS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MOLDOPS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MOLDOPS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"MOLDOPS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"MOLDOPS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"MOLDOPS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type CronConfig struct {
	TickInterval          time.Duration `envconfig:"MOLDOPS_CRON_TICK_INTERVAL" default:"1m"`
	LockTTL               time.Duration `envconfig:"MOLDOPS_CRON_LOCK_TTL" default:"5m"`
	NotificationRetention time.Duration `envconfig:"MOLDOPS_CRON_NOTIFICATION_RETENTION" default:"2160h"`
}

type StockConfig struct {
	LowStockScanHourUTC int `envconfig:"MOLDOPS_LOW_STOCK_SCAN_HOUR_UTC" default:"6"`
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
