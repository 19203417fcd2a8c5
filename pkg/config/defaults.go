package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "abclisting"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultAllowedOrigins = "http://localhost:3000"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 8 * 1024 * 1024 // 8MB, listing images travel base64-encoded

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultBookingWindowDays = 90
	DefaultBookingLockTTL    = 30 * time.Second
	DefaultCurrency          = "usd"

	// 5% platform fee
	DefaultStripeFeeBasisPoints = 500

	DefaultS3Bucket = "listing-assets"

	DefaultBookingsTopic       = "bookings.events"
	DefaultReconciliationTopic = "bookings.reconciliation"

	DefaultPaginationLimit = 50
)
