package config

// EnvPrefix is left empty because every field carries its full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultSQLiteDSN = "file:tirestore.db?_foreign_keys=on"
)

const (
	EnvAppEnv     = "TIRESTORE_APP_ENV"
	EnvPort       = "TIRESTORE_APP_PORT"
	EnvLogLevel   = "TIRESTORE_LOG_LEVEL"
	EnvDBDSN      = "TIRESTORE_DB_DSN"
	EnvDBHost     = "TIRESTORE_DB_HOST"
	EnvDBUser     = "TIRESTORE_DB_USER"
	EnvDBName     = "TIRESTORE_DB_NAME"
	EnvRedisURL   = "TIRESTORE_REDIS_URL"
	EnvJWTSecret  = "TIRESTORE_JWT_SECRET"
	EnvJWTIssuer  = "TIRESTORE_JWT_ISSUER"
	EnvJWTExpMins = "TIRESTORE_JWT_EXPIRATION_MINUTES"
	EnvUseSQLite  = "TIRESTORE_USE_SQLITE"
	EnvCartTTL    = "TIRESTORE_CART_SNAPSHOT_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
