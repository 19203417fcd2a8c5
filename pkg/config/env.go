package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvJWTSecret      = "JWT_SECRET"
	EnvAllowedOrigins = "ALLOWED_ORIGINS"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"
	EnvRedisURL       = "REDIS_URL"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvBookingWindowDays = "BOOKING_WINDOW_DAYS"
	EnvBookingLockTTL    = "BOOKING_LOCK_TTL"
	EnvCurrency          = "CURRENCY"

	EnvStripeSecretKey     = "STRIPE_SECRET_KEY"
	EnvStripeClientID      = "STRIPE_CLIENT_ID"
	EnvStripeFeeBasisPoint = "STRIPE_FEE_BASIS_POINTS"

	EnvS3Endpoint  = "S3_ENDPOINT"
	EnvS3AccessKey = "S3_ACCESS_KEY"
	EnvS3SecretKey = "S3_SECRET_KEY"
	EnvS3Bucket    = "S3_BUCKET"
	EnvS3UseSSL    = "S3_USE_SSL"
	EnvS3PublicURL = "S3_PUBLIC_URL"

	EnvBookingsTopic       = "KAFKA_BOOKINGS_TOPIC"
	EnvReconciliationTopic = "KAFKA_RECONCILIATION_TOPIC"
)
