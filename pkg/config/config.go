package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"roomreserve/pkg/client"
	"roomreserve/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	JWTSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	MinReservationDuration time.Duration
	MaxReservationDuration time.Duration
	LockTTL                time.Duration

	EventsBroker        string
	EventsTopic         string
	EventPublishTimeout time.Duration
	RabbitMQURL         string
	NotifierGroupID     string

	ReminderInterval time.Duration
	ReminderLeadMin  time.Duration
	ReminderLeadMax  time.Duration

	GmailClientID     string
	GmailClientSecret string
	GmailRefreshToken string
	MailFrom          string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	// a missing .env file is fine, the process environment still applies
	_ = godotenv.Load()

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		JWTSecret: getEnvStr(EnvJWTSecret, ""),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		MinReservationDuration: getEnvDuration(EnvMinReservationDuration, DefaultMinReservationDuration),
		MaxReservationDuration: getEnvDuration(EnvMaxReservationDuration, DefaultMaxReservationDuration),
		LockTTL:                getEnvDuration(EnvLockTTL, DefaultLockTTL),

		EventsBroker:        getEnvStr(EnvEventsBroker, DefaultEventsBroker),
		EventsTopic:         getEnvStr(EnvEventsTopic, DefaultEventsTopic),
		EventPublishTimeout: getEnvDuration(EnvEventPublishTimeout, DefaultEventPublishTimeout),
		RabbitMQURL:         getEnvStr(EnvRabbitMQURL, DefaultRabbitMQURL),
		NotifierGroupID:     getEnvStr(EnvNotifierGroupID, DefaultNotifierGroupID),

		ReminderInterval: getEnvDuration(EnvReminderInterval, DefaultReminderInterval),
		ReminderLeadMin:  getEnvDuration(EnvReminderLeadMin, DefaultReminderLeadMin),
		ReminderLeadMax:  getEnvDuration(EnvReminderLeadMax, DefaultReminderLeadMax),

		GmailClientID:     getEnvStr(EnvGmailClientID, ""),
		GmailClientSecret: getEnvStr(EnvGmailClientSecret, ""),
		GmailRefreshToken: getEnvStr(EnvGmailRefreshToken, ""),
		MailFrom:          getEnvStr(EnvMailFrom, DefaultMailFrom),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.Format(getEnvStr(EnvLogFormat, DefaultLogFormat)),
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis is a no-op when no Redis address is configured.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

func (cfg *Config) GmailConfigured() bool {
	return cfg.GmailClientID != "" && cfg.GmailClientSecret != "" && cfg.GmailRefreshToken != ""
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}

	if cfg.MinReservationDuration < 0 {
		errors = append(errors, fmt.Sprintf("MinReservationDuration cannot be negative, got: %s", cfg.MinReservationDuration))
	}
	if cfg.MaxReservationDuration <= cfg.MinReservationDuration {
		errors = append(errors, fmt.Sprintf("MaxReservationDuration must exceed MinReservationDuration, got: %s", cfg.MaxReservationDuration))
	}
	if cfg.LockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("LockTTL must be positive, got: %s", cfg.LockTTL))
	}

	switch cfg.EventsBroker {
	case BrokerKafka, BrokerRabbitMQ, BrokerNone:
	default:
		errors = append(errors, fmt.Sprintf("EventsBroker must be one of [kafka, rabbitmq, none], got: %s", cfg.EventsBroker))
	}
	if cfg.EventsBroker != BrokerNone && cfg.EventsTopic == "" {
		errors = append(errors, "EventsTopic cannot be empty when an events broker is enabled")
	}
	if cfg.EventPublishTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("EventPublishTimeout must be positive, got: %s", cfg.EventPublishTimeout))
	}

	if cfg.ReminderInterval <= 0 {
		errors = append(errors, fmt.Sprintf("ReminderInterval must be positive, got: %s", cfg.ReminderInterval))
	}
	if cfg.ReminderLeadMin < 0 || cfg.ReminderLeadMax <= cfg.ReminderLeadMin {
		errors = append(errors, fmt.Sprintf("ReminderLeadMax (%s) must be greater than ReminderLeadMin (%s)", cfg.ReminderLeadMax, cfg.ReminderLeadMin))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"redis_addr", cfg.RedisAddr,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"min_reservation_duration", cfg.MinReservationDuration,
		"max_reservation_duration", cfg.MaxReservationDuration,
		"lock_ttl", cfg.LockTTL,
		"events_broker", cfg.EventsBroker,
		"events_topic", cfg.EventsTopic,
		"event_publish_timeout", cfg.EventPublishTimeout,
		"reminder_interval", cfg.ReminderInterval,
		"reminder_lead_min", cfg.ReminderLeadMin,
		"reminder_lead_max", cfg.ReminderLeadMax,
		"gmail_configured", cfg.GmailConfigured(),
		"mail_from", cfg.MailFrom,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = DefaultPageSize
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
