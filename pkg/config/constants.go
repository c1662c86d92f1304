package config

const EnvPrefix = "MORI"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	CartBackendRedis  = "redis"
	CartBackendDB     = "db"
	CartBackendMemory = "memory"
)

const (
	PaymentsProviderStripe = "stripe"
	PaymentsProviderMock   = "mock"
)

const (
	EnvAppEnv           = "MORI_APP_ENV"
	EnvPort             = "MORI_APP_PORT"
	EnvDBDSN            = "MORI_DB_DSN"
	EnvDBDriver         = "MORI_DB_DRIVER"
	EnvDBHost           = "MORI_DB_HOST"
	EnvDBUser           = "MORI_DB_USER"
	EnvDBName           = "MORI_DB_NAME"
	EnvRedisURL         = "MORI_REDIS_URL"
	EnvRedisAddr        = "MORI_REDIS_ADDR"
	EnvCartBackend      = "MORI_CART_BACKEND"
	EnvCartSlotName     = "MORI_CART_SLOT_NAME"
	EnvSessionSecret    = "MORI_SESSION_SECRET"
	EnvCheckoutCurrency = "MORI_CHECKOUT_CURRENCY"
	EnvShippingFee      = "MORI_CHECKOUT_SHIPPING_FEE"
	EnvFreeShippingOver = "MORI_CHECKOUT_FREE_SHIPPING_OVER"
	EnvPaymentsProvider = "MORI_PAYMENTS_PROVIDER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
