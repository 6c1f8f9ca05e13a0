package config

const EnvPrefix = "MERCATO"

const defaultSQLiteDSN = "file:mercato.db?_foreign_keys=on"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "MERCATO_APP_ENV"
	EnvPort     = "MERCATO_APP_PORT"
	EnvLogLevel = "MERCATO_LOG_LEVEL"

	EnvDBDSN  = "MERCATO_DB_DSN"
	EnvDBHost = "MERCATO_DB_HOST"
	EnvDBPort = "MERCATO_DB_PORT"
	EnvDBUser = "MERCATO_DB_USER"
	EnvDBPass = "MERCATO_DB_PASSWORD"
	EnvDBName = "MERCATO_DB_NAME"

	EnvRedisURL = "MERCATO_REDIS_URL"

	EnvUseSQLite = "MERCATO_USE_SQLITE"

	EnvJWTSecret  = "MERCATO_JWT_SECRET"
	EnvJWTIssuer  = "MERCATO_JWT_ISSUER"
	EnvJWTExpMins = "MERCATO_JWT_EXPIRATION_MINUTES"

	EnvCORSAllowedOrigins = "MERCATO_CORS_ALLOWED_ORIGINS"
	EnvCronInterval       = "MERCATO_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
