package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv       = "STOREFRONT_APP_ENV"
	EnvPort         = "STOREFRONT_APP_PORT"
	EnvLogLevel     = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat    = "STOREFRONT_LOG_FORMAT"
	EnvLogWarnStack = "STOREFRONT_LOG_WARN_STACK"

	EnvDBDSN      = "STOREFRONT_DB_DSN"
	EnvDBDriver   = "STOREFRONT_DB_DRIVER"
	EnvDBHost     = "STOREFRONT_DB_HOST"
	EnvDBPort     = "STOREFRONT_DB_PORT"
	EnvDBUser     = "STOREFRONT_DB_USER"
	EnvDBPassword = "STOREFRONT_DB_PASSWORD"
	EnvDBName     = "STOREFRONT_DB_NAME"
	EnvDBSSLMode  = "STOREFRONT_DB_SSLMODE"

	EnvRedisURL  = "STOREFRONT_REDIS_URL"
	EnvRedisAddr = "STOREFRONT_REDIS_ADDR"

	// EnvWebhookSecret keeps the name the Clerk dashboard docs use.
	EnvWebhookSecret = "WEBHOOK_SECRET"
	EnvWebhookPath   = "STOREFRONT_WEBHOOK_PATH"

	EnvClerkSecretKey = "CLERK_SECRET_KEY"
	EnvClerkJWKSURL   = "STOREFRONT_CLERK_JWKS_URL"
	EnvClerkIssuer    = "STOREFRONT_CLERK_ISSUER"
	EnvClerkAudience  = "STOREFRONT_CLERK_AUDIENCE"
	EnvClerkAPIURL    = "STOREFRONT_CLERK_API_URL"

	EnvRoleCacheTTL = "STOREFRONT_GUARD_ROLE_CACHE_TTL"
	EnvUpstreamURL  = "STOREFRONT_UPSTREAM_URL"

	EnvUseSQLite   = "STOREFRONT_USE_SQLITE"
	EnvAutoMigrate = "STOREFRONT_AUTO_MIGRATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
