package config

const EnvPrefix = "ILIFT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:ilift.db?cache=shared"
)

const (
	EnvAppEnv         = "ILIFT_APP_ENV"
	EnvPort           = "ILIFT_APP_PORT"
	EnvLogLevel       = "ILIFT_LOG_LEVEL"
	EnvCORSOrigins    = "ILIFT_CORS_ORIGINS"
	EnvDBDSN          = "ILIFT_DB_DSN"
	EnvDBHost         = "ILIFT_DB_HOST"
	EnvDBPort         = "ILIFT_DB_PORT"
	EnvDBUser         = "ILIFT_DB_USER"
	EnvDBPassword     = "ILIFT_DB_PASSWORD"
	EnvDBName         = "ILIFT_DB_NAME"
	EnvUseSQLite      = "ILIFT_USE_SQLITE"
	EnvRedisURL       = "ILIFT_REDIS_URL"
	EnvVisitorSecret  = "ILIFT_VISITOR_SECRET"
	EnvCartTTL        = "ILIFT_ENQUIRY_CART_TTL"
	EnvSMTPHost       = "ILIFT_SMTP_HOST"
	EnvSMTPPort       = "ILIFT_SMTP_PORT"
	EnvMailFrom       = "ILIFT_MAIL_FROM"
	EnvLeadRecipients = "ILIFT_MAIL_LEAD_RECIPIENTS"
	EnvGCPProjectID   = "ILIFT_GCP_PROJECT_ID"
	EnvLeadsTopic     = "ILIFT_PUBSUB_LEADS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
