package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "sitestock"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SITESTOCK_DB_DSN"
	EnvDBHost = "SITESTOCK_DB_HOST"
	EnvDBUser = "SITESTOCK_DB_USER"
	EnvDBName = "SITESTOCK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Media        MediaConfig
	Passcode     PasscodeConfig
	Movements    MovementsConfig
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
	if err := cfg.Redis.ensureTarget(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SITESTOCK_APP_ENV" required:"true"`
	Port         string `envconfig:"SITESTOCK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SITESTOCK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SITESTOCK_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"SITESTOCK_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SITESTOCK_DB_DSN"`
	Driver string `envconfig:"SITESTOCK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SITESTOCK_DB_HOST"`
	LegacyPort     int    `envconfig:"SITESTOCK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SITESTOCK_DB_USER"`
	LegacyPassword string `envconfig:"SITESTOCK_DB_PASSWORD"`
	LegacyName     string `envconfig:"SITESTOCK_DB_NAME"`
	LegacySSLMode  string `envconfig:"SITESTOCK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SITESTOCK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SITESTOCK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SITESTOCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SITESTOCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SITESTOCK_REDIS_URL"`
	Address      string        `envconfig:"SITESTOCK_REDIS_ADDR"`
	Password     string        `envconfig:"SITESTOCK_REDIS_PASSWORD"`
	DB           int           `envconfig:"SITESTOCK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SITESTOCK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SITESTOCK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SITESTOCK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SITESTOCK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SITESTOCK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ensureTarget rejects configs that name neither a redis URL nor a
// plain address. envconfig's required tag only catches unset
// variables, not ones exported empty.
func (r RedisConfig) ensureTarget() error {
	if r.URL == "" && r.Address == "" {
		return fmt.Errorf("either SITESTOCK_REDIS_URL or SITESTOCK_REDIS_ADDR is required")
	}
	return nil
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SITESTOCK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SITESTOCK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SITESTOCK_GCP_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"SITESTOCK_GCS_BUCKET_NAME" required:"true"`
	PublicBase string `envconfig:"SITESTOCK_GCS_PUBLIC_BASE" default:"https://storage.googleapis.com"`
}

type MediaConfig struct {
	MaxUploadBytes    int64 `envconfig:"SITESTOCK_MEDIA_MAX_UPLOAD_BYTES" default:"5242880"`
	CompressThreshold int64 `envconfig:"SITESTOCK_MEDIA_COMPRESS_THRESHOLD" default:"512000"`
	MaxStoredBytes    int64 `envconfig:"SITESTOCK_MEDIA_MAX_STORED_BYTES" default:"2097152"`
	ImageMaxWidth     int   `envconfig:"SITESTOCK_MEDIA_IMAGE_MAX_WIDTH" default:"1200"`
	ImageMaxHeight    int   `envconfig:"SITESTOCK_MEDIA_IMAGE_MAX_HEIGHT" default:"1200"`
	ImageQuality      int   `envconfig:"SITESTOCK_MEDIA_IMAGE_QUALITY" default:"80"`
}

// PasscodeConfig gates entry movements behind a shared numeric passcode list.
type PasscodeConfig struct {
	Allowlist     []string      `envconfig:"SITESTOCK_PASSCODE_ALLOWLIST" default:"455126032,454946123,1002199809"`
	MaxAttempts   int           `envconfig:"SITESTOCK_PASSCODE_MAX_ATTEMPTS" default:"3"`
	LockoutWindow time.Duration `envconfig:"SITESTOCK_PASSCODE_LOCKOUT_WINDOW" default:"5m"`
}

type MovementsConfig struct {
	MaxPerOperation int `envconfig:"SITESTOCK_MOVEMENTS_MAX_PER_OPERATION" default:"50"`
	RecentLimit     int `envconfig:"SITESTOCK_MOVEMENTS_RECENT_LIMIT" default:"50"`

	SubmitRateLimit  int           `envconfig:"SITESTOCK_MOVEMENTS_SUBMIT_RATE_LIMIT" default:"30"`
	SubmitRateWindow time.Duration `envconfig:"SITESTOCK_MOVEMENTS_SUBMIT_RATE_WINDOW" default:"1m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SITESTOCK_AUTO_MIGRATE" default:"false"`
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
