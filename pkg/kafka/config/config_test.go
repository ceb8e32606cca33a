package kafka_config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "broker-1:9092, broker-2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "broker-2:9092" {
		t.Errorf("expected trimmed brokers, got %v", cfg.Brokers)
	}
	if cfg.ConsumerRetryBackoff != DefaultConsumerRetryBackoff {
		t.Errorf("expected default retry backoff, got %s", cfg.ConsumerRetryBackoff)
	}
	if got := cfg.DLQTopic("reservations.events"); got != "reservations.events.dlq" {
		t.Errorf("expected dlq topic, got %s", got)
	}
}

func TestDLQTopic_Disabled(t *testing.T) {
	t.Setenv(EnvKafkaDLQSuffix, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := cfg.DLQTopic("reservations.events"); got != "" {
		t.Errorf("expected DLQ disabled, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Brokers:                   []string{"localhost:9092", ""},
		ProducerMaxAttempts:       0,
		ProducerBatchTimeout:      time.Millisecond,
		ProducerRequireAcks:       2,
		ProducerCompression:       "brotli",
		ConsumerStartOffset:       -1,
		ConsumerMinBytes:          1,
		ConsumerMaxBytes:          1,
		ConsumerMaxWait:           time.Second,
		ConsumerCommitInterval:    time.Second,
		ConsumerHeartbeatInterval: time.Second,
		ConsumerSessionTimeout:    time.Second,
		ConsumerRebalanceTimeout:  time.Second,
		ConsumerRetryBackoff:      -time.Second,
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}

	for _, want := range []string{"Broker 1", "ProducerMaxAttempts", "ProducerCompression", "ProducerRequireAcks", "ConsumerRetryBackoff"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %s, got:\n%s", want, err)
		}
	}
}

func TestParseStartOffset(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"newest", -1, false},
		{"OLDEST", -2, false},
		{"", -2, false},
		{"42", 42, false},
		{"-1", -1, false},
		{"-5", 0, true},
		{"latest", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStartOffset(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseStartOffset(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestLoad_StartOffsetDefaultsToOldest(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ConsumerStartOffset != -2 {
		t.Errorf("expected oldest offset, got %d", cfg.ConsumerStartOffset)
	}

	t.Setenv(EnvKafkaConsumerStartOffset, "sometimes")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid start offset")
	}
}
