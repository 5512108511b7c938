package config

// EnvPrefix namespaces every environment variable read by the service.
const EnvPrefix = "BEACON"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "BEACON_APP_ENV"
	EnvPort     = "BEACON_APP_PORT"
	EnvDBDSN    = "BEACON_DB_DSN"
	EnvDBHost   = "BEACON_DB_HOST"
	EnvDBUser   = "BEACON_DB_USER"
	EnvDBName   = "BEACON_DB_NAME"
	EnvRedisURL = "BEACON_REDIS_URL"

	EnvJWTSecret = "BEACON_JWT_SECRET"
	EnvJWTIssuer = "BEACON_JWT_ISSUER"

	EnvGCPProjectID = "BEACON_GCP_PROJECT_ID"
	EnvPubSubSub    = "BEACON_PUBSUB_EVENTS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
