package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Engine       EngineConfig
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
	Env          string `envconfig:"BEACON_APP_ENV" required:"true"`
	Port         string `envconfig:"BEACON_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BEACON_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BEACON_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BEACON_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BEACON_DB_DSN"`
	Driver string `envconfig:"BEACON_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BEACON_DB_HOST"`
	LegacyPort     int    `envconfig:"BEACON_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BEACON_DB_USER"`
	LegacyPassword string `envconfig:"BEACON_DB_PASSWORD"`
	LegacyName     string `envconfig:"BEACON_DB_NAME"`
	LegacySSLMode  string `envconfig:"BEACON_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BEACON_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BEACON_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BEACON_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BEACON_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BEACON_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BEACON_REDIS_ADDR"`
	Password     string        `envconfig:"BEACON_REDIS_PASSWORD"`
	DB           int           `envconfig:"BEACON_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BEACON_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BEACON_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BEACON_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BEACON_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BEACON_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BEACON_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BEACON_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BEACON_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BEACON_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"BEACON_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"BEACON_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	EventsTopic        string `envconfig:"BEACON_PUBSUB_EVENTS_TOPIC" default:"beacon-business-events"`
	EventsSubscription string `envconfig:"BEACON_PUBSUB_EVENTS_SUBSCRIPTION"`
}

// EngineConfig tunes the trigger pipeline and the step advancement worker.
type EngineConfig struct {
	StepBatchSize           int `envconfig:"BEACON_ENGINE_STEP_BATCH_SIZE" default:"100"`
	MessageRetentionDays    int `envconfig:"BEACON_ENGINE_MESSAGE_RETENTION_DAYS" default:"90"`
	EnrollmentRetentionDays int `envconfig:"BEACON_ENGINE_ENROLLMENT_RETENTION_DAYS" default:"180"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"BEACON_CRON_INTERVAL" default:"1m"`
	LockTTL  time.Duration `envconfig:"BEACON_CRON_LOCK_TTL" default:"5m"`
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
