package config

const EnvPrefix = "SHOPEASY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "SHOPEASY_APP_ENV"
	EnvPort                   = "SHOPEASY_APP_PORT"
	EnvLogLevel               = "SHOPEASY_LOG_LEVEL"
	EnvDBDSN                  = "SHOPEASY_DB_DSN"
	EnvDBHost                 = "SHOPEASY_DB_HOST"
	EnvDBPort                 = "SHOPEASY_DB_PORT"
	EnvDBUser                 = "SHOPEASY_DB_USER"
	EnvDBPassword             = "SHOPEASY_DB_PASSWORD"
	EnvDBName                 = "SHOPEASY_DB_NAME"
	EnvDBSSLMode              = "SHOPEASY_DB_SSLMODE"
	EnvRedisURL               = "SHOPEASY_REDIS_URL"
	EnvJWTSecret              = "SHOPEASY_JWT_SECRET"
	EnvJWTIssuer              = "SHOPEASY_JWT_ISSUER"
	EnvJWTExpMins             = "SHOPEASY_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "SHOPEASY_REFRESH_TOKEN_TTL_MINUTES"
	EnvMediaURLPrefix         = "SHOPEASY_MEDIA_URL_PREFIX"
	EnvAutoMigrate            = "SHOPEASY_AUTO_MIGRATE"
)

var componentDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
