package kafka_config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"roomreserve/pkg/logger"

	"github.com/segmentio/kafka-go"
)

const (
	OffsetNewest = "newest"
	OffsetOldest = "oldest"
)

// Config is shared by the reservation event producer and the notifier consumer.
type Config struct {
	Brokers []string

	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerRequireAcks  int    // -1 all replicas, 0 none, 1 leader
	ProducerCompression  string // none, gzip, snappy, lz4, zstd

	ConsumerStartOffset       int64
	ConsumerMinBytes          int
	ConsumerMaxBytes          int
	ConsumerMaxWait           time.Duration
	ConsumerCommitInterval    time.Duration
	ConsumerHeartbeatInterval time.Duration
	ConsumerSessionTimeout    time.Duration
	ConsumerRebalanceTimeout  time.Duration
	ConsumerMaxRetries        int
	ConsumerRetryBackoff      time.Duration

	// Dead letter topics are named <topic><DLQSuffix>; an empty suffix disables them
	DLQSuffix string
}

func Load() (*Config, error) {
	var brokers []string
	for _, b := range strings.Split(envOr(EnvKafkaBrokers, DefaultKafkaBrokers, parseString), ",") {
		brokers = append(brokers, strings.TrimSpace(b))
	}

	offset, err := ParseStartOffset(envOr(EnvKafkaConsumerStartOffset, DefaultConsumerStartOffset, parseString))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Brokers: brokers,

		ProducerMaxAttempts:  envOr(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts, strconv.Atoi),
		ProducerBatchTimeout: envOr(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout, time.ParseDuration),
		ProducerRequireAcks:  envOr(EnvKafkaProducerRequireAcks, DefaultProducerRequireAcks, strconv.Atoi),
		ProducerCompression:  strings.ToLower(envOr(EnvKafkaProducerCompression, DefaultProducerCompression, parseString)),

		ConsumerStartOffset:       offset,
		ConsumerMinBytes:          envOr(EnvKafkaConsumerMinBytes, DefaultConsumerMinBytes, strconv.Atoi),
		ConsumerMaxBytes:          envOr(EnvKafkaConsumerMaxBytes, DefaultConsumerMaxBytes, strconv.Atoi),
		ConsumerMaxWait:           envOr(EnvKafkaConsumerMaxWait, DefaultConsumerMaxWait, time.ParseDuration),
		ConsumerCommitInterval:    envOr(EnvKafkaConsumerCommitInterval, DefaultConsumerCommitInterval, time.ParseDuration),
		ConsumerHeartbeatInterval: envOr(EnvKafkaConsumerHeartbeatInterval, DefaultConsumerHeartbeatInterval, time.ParseDuration),
		ConsumerSessionTimeout:    envOr(EnvKafkaConsumerSessionTimeout, DefaultConsumerSessionTimeout, time.ParseDuration),
		ConsumerRebalanceTimeout:  envOr(EnvKafkaConsumerRebalanceTimeout, DefaultConsumerRebalanceTimeout, time.ParseDuration),
		ConsumerMaxRetries:        envOr(EnvKafkaConsumerMaxRetries, DefaultConsumerMaxRetries, strconv.Atoi),
		ConsumerRetryBackoff:      envOr(EnvKafkaConsumerRetryBackoff, DefaultConsumerRetryBackoff, time.ParseDuration),
	}

	// an explicitly empty suffix disables dead lettering
	cfg.DLQSuffix = DefaultDLQSuffix
	if v, ok := os.LookupEnv(EnvKafkaDLQSuffix); ok {
		cfg.DLQSuffix = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseStartOffset maps "newest" and "oldest" onto kafka-go's sentinels and accepts absolute offsets.
func ParseStartOffset(s string) (int64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case OffsetNewest:
		return kafka.LastOffset, nil
	case OffsetOldest, "":
		return kafka.FirstOffset, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || (n < 0 && n != kafka.LastOffset && n != kafka.FirstOffset) {
		return 0, fmt.Errorf("invalid %s %q: want newest, oldest or an offset", EnvKafkaConsumerStartOffset, s)
	}
	return n, nil
}

func (cfg *Config) DLQTopic(topic string) string {
	if cfg.DLQSuffix == "" {
		return ""
	}
	return topic + cfg.DLQSuffix
}

func (cfg *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(len(cfg.Brokers) > 0, "At least one Kafka broker is required")
	for i, broker := range cfg.Brokers {
		check(broker != "", "Broker %d cannot be empty", i)
	}

	check(cfg.ProducerMaxAttempts > 0, "ProducerMaxAttempts must be positive, got: %d", cfg.ProducerMaxAttempts)
	check(cfg.ProducerBatchTimeout > 0, "ProducerBatchTimeout must be positive, got: %s", cfg.ProducerBatchTimeout)
	switch cfg.ProducerCompression {
	case "none", "gzip", "snappy", "lz4", "zstd":
	default:
		check(false, "ProducerCompression must be one of [none, gzip, snappy, lz4, zstd], got: %s", cfg.ProducerCompression)
	}
	check(cfg.ProducerRequireAcks >= -1 && cfg.ProducerRequireAcks <= 1,
		"ProducerRequireAcks must be -1, 0, or 1, got: %d", cfg.ProducerRequireAcks)

	check(cfg.ConsumerMinBytes > 0, "ConsumerMinBytes must be positive, got: %d", cfg.ConsumerMinBytes)
	check(cfg.ConsumerMaxBytes >= cfg.ConsumerMinBytes,
		"ConsumerMaxBytes must be at least ConsumerMinBytes, got: %d", cfg.ConsumerMaxBytes)
	for name, d := range map[string]time.Duration{
		"ConsumerMaxWait":           cfg.ConsumerMaxWait,
		"ConsumerCommitInterval":    cfg.ConsumerCommitInterval,
		"ConsumerHeartbeatInterval": cfg.ConsumerHeartbeatInterval,
		"ConsumerSessionTimeout":    cfg.ConsumerSessionTimeout,
		"ConsumerRebalanceTimeout":  cfg.ConsumerRebalanceTimeout,
	} {
		check(d > 0, "%s must be positive, got: %s", name, d)
	}
	check(cfg.ConsumerMaxRetries >= 0, "ConsumerMaxRetries cannot be negative, got: %d", cfg.ConsumerMaxRetries)
	check(cfg.ConsumerRetryBackoff >= 0, "ConsumerRetryBackoff cannot be negative, got: %s", cfg.ConsumerRetryBackoff)

	if len(problems) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("Kafka configuration validation failed:\n")
	for i, p := range problems {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, p)
	}
	return fmt.Errorf("%s", b.String())
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"producer_max_attempts", cfg.ProducerMaxAttempts,
		"producer_require_acks", cfg.ProducerRequireAcks,
		"producer_compression", cfg.ProducerCompression,
		"consumer_start_offset", cfg.ConsumerStartOffset,
		"consumer_max_retries", cfg.ConsumerMaxRetries,
		"consumer_retry_backoff", cfg.ConsumerRetryBackoff,
		"dlq_suffix", cfg.DLQSuffix,
	)
}

func parseString(s string) (string, error) {
	return s, nil
}

// envOr parses the variable when it is set and non-empty, falling back on a parse error.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	v, err := parse(value)
	if err != nil {
		return def
	}
	return v
}
