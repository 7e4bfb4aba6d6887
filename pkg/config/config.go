package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Cart          CartConfig
	Metrics       MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"TIRESTORE_APP_ENV" required:"true"`
	Port         string   `envconfig:"TIRESTORE_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"TIRESTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"TIRESTORE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"TIRESTORE_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TIRESTORE_DB_DSN"`
	Driver string `envconfig:"TIRESTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TIRESTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"TIRESTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TIRESTORE_DB_USER"`
	LegacyPassword string `envconfig:"TIRESTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"TIRESTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"TIRESTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TIRESTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TIRESTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TIRESTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TIRESTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TIRESTORE_REDIS_URL"`
	Address      string        `envconfig:"TIRESTORE_REDIS_ADDR"`
	Password     string        `envconfig:"TIRESTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"TIRESTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TIRESTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TIRESTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TIRESTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TIRESTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TIRESTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"TIRESTORE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"TIRESTORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"TIRESTORE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"TIRESTORE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TIRESTORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TIRESTORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TIRESTORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TIRESTORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TIRESTORE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"TIRESTORE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"TIRESTORE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"TIRESTORE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"TIRESTORE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"TIRESTORE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"TIRESTORE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TIRESTORE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TIRESTORE_AUTO_MIGRATE" default:"false"`
}

type CartConfig struct {
	SnapshotTTL time.Duration `envconfig:"TIRESTORE_CART_SNAPSHOT_TTL" default:"720h"`
	IdleTTL     time.Duration `envconfig:"TIRESTORE_CART_IDLE_TTL" default:"15m"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"TIRESTORE_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"TIRESTORE_METRICS_PATH" default:"/metrics"`
}

func (db *DBConfig) ensureDSN(sqlite bool) error {
	if sqlite {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = DefaultSQLiteDSN
		}
		return nil
	}
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
