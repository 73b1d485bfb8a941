package config

const (
	EnvPrefix = "HOMEPLAST"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StateDriverRedis = "redis"
	StateDriverSQL   = "sql"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv         = "HOMEPLAST_APP_ENV"
	EnvPort           = "HOMEPLAST_APP_PORT"
	EnvBackendBaseURL = "HOMEPLAST_BACKEND_BASE_URL"
	EnvStateDriver    = "HOMEPLAST_STATE_DRIVER"
	EnvRedisURL       = "HOMEPLAST_REDIS_URL"
	EnvJWTSecret      = "HOMEPLAST_JWT_SECRET"
	EnvJWTIssuer      = "HOMEPLAST_JWT_ISSUER"
	EnvDBDSN          = "HOMEPLAST_DB_DSN"
	EnvDBDriver       = "HOMEPLAST_DB_DRIVER"
	EnvDBHost         = "HOMEPLAST_DB_HOST"
	EnvDBUser         = "HOMEPLAST_DB_USER"
	EnvDBName         = "HOMEPLAST_DB_NAME"
	EnvPricingTaxRate = "HOMEPLAST_PRICING_TAX_RATE"
)

var dbHostEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
