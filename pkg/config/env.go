package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvJWTSecret = "JWT_SECRET"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvMinReservationDuration = "MIN_RESERVATION_DURATION"
	EnvMaxReservationDuration = "MAX_RESERVATION_DURATION"
	EnvLockTTL                = "RESERVATION_LOCK_TTL"

	EnvEventsBroker        = "EVENTS_BROKER"
	EnvEventsTopic         = "EVENTS_TOPIC"
	EnvEventPublishTimeout = "EVENT_PUBLISH_TIMEOUT"
	EnvRabbitMQURL         = "RABBITMQ_URL"
	EnvNotifierGroupID     = "NOTIFIER_GROUP_ID"

	EnvReminderInterval = "REMINDER_INTERVAL"
	EnvReminderLeadMin  = "REMINDER_LEAD_MIN"
	EnvReminderLeadMax  = "REMINDER_LEAD_MAX"

	EnvGmailClientID     = "GMAIL_CLIENT_ID"
	EnvGmailClientSecret = "GMAIL_CLIENT_SECRET"
	EnvGmailRefreshToken = "GMAIL_REFRESH_TOKEN"
	EnvMailFrom          = "MAIL_FROM"
)
