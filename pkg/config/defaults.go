package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "slotbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultSlotStride     = 30 * time.Minute
	DefaultBookingLockTTL = 10 * time.Second

	DefaultNotifyTopic    = "slotbook.notifications"
	DefaultNotifyDLQTopic = "slotbook.notifications.dlq"

	DefaultPaginationLimit = 100

	// Window bounds used when an exception marks a full day available
	// without explicit hours.
	DayStart = "00:00"
	DayEnd   = "23:59"
)
