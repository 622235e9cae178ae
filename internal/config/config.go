// Package config provides configuration structures and validation for the application.
// It handles environment-based configuration for the HTTP service, the background
// reconciler and the operator CLI: server settings, stores, messaging, the payment
// provider and the voting rules.
package config

import (
	"errors"
	"strings"
	"time"
)

// Stats policies accepted by VOTING_STATS_POLICY
const (
	StatsPolicySnapshot     = "snapshot"
	StatsPolicyCurrentPrice = "current_price"
)

// Config holds the complete application configuration with settings for all components.
// Each field represents a major subsystem's configuration and is validated during
// application startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	Paystack    PaystackConfig
	Voting      VotingConfig
	Guard       GuardConfig
	Sweeper     SweeperConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Metrics     MetricsConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	ReconcileTopic    string // Reconcile requests produced by the sweeper
	VoteEventsTopic   string // Committed votes relayed from the outbox
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string
}

// PostgresConfig contains PostgreSQL configuration for the member directory
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// RedisConfig contains the optional Redis connection used by the distributed guard.
// An empty URL disables it.
type RedisConfig struct {
	URL string
}

// PaystackConfig contains the payment provider client settings
type PaystackConfig struct {
	BaseURL         string
	SecretKey       string
	Timeout         time.Duration
	VerifySignature bool          // Reject webhooks without a valid x-paystack-signature
	PollRetries     int           // Extra attempts on provider 5xx for the verification poll
	PollRetryDelay  time.Duration // Fixed delay between those attempts
}

// VotingConfig contains the vote pricing and statistics rules
type VotingConfig struct {
	DefaultPricePerVote int64
	TallyLogLimit       int
	StatsPolicy         string
	MemberEmailDomain   string // Emails on this domain carry the member username as local part
	RecentVotesLimit    int
}

// GuardConfig contains in-flight guard settings
type GuardConfig struct {
	LockTTL   time.Duration
	KeyPrefix string
}

// SweeperConfig contains the pending-verification sweeper settings
type SweeperConfig struct {
	Schedule    string
	MinAge      time.Duration
	BatchSize   int
	MaxAttempts int
}

// OutboxConfig contains outbox pattern configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int
}

// MetricsConfig contains Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool
	Path    string
	Port    int // Standalone listener for binaries without an HTTP API
}

// validate performs validation of all configuration values, collecting every
// violation into a single error.
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Validate Kafka config
	if c.Kafka.Brokers == "" {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.ReconcileTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_RECONCILE_TOPIC is required")
	}
	if c.Kafka.VoteEventsTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_VOTE_EVENTS_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.Kafka.MaxBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.Kafka.MaxWait <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}
	if c.Kafka.DLQTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_DLQ_TOPIC is required")
	}

	// Validate PostgreSQL config
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}

	// Validate MongoDB config
	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}

	// Validate Paystack config
	if c.Paystack.BaseURL == "" {
		validationErrors = append(validationErrors, "PAYSTACK_BASE_URL is required")
	}
	if c.Paystack.SecretKey == "" {
		validationErrors = append(validationErrors, "PAYSTACK_SECRET_KEY is required")
	}
	if c.Paystack.Timeout <= 0 {
		validationErrors = append(validationErrors, "PAYSTACK_TIMEOUT must be greater than 0")
	}
	if c.Paystack.PollRetries < 0 {
		validationErrors = append(validationErrors, "PAYSTACK_POLL_RETRIES must not be negative")
	}

	// Validate Voting config
	if c.Voting.DefaultPricePerVote <= 0 {
		validationErrors = append(validationErrors, "VOTING_DEFAULT_PRICE_PER_VOTE must be greater than 0")
	}
	if c.Voting.TallyLogLimit <= 0 {
		validationErrors = append(validationErrors, "VOTING_TALLY_LOG_LIMIT must be greater than 0")
	}
	if c.Voting.StatsPolicy != StatsPolicySnapshot && c.Voting.StatsPolicy != StatsPolicyCurrentPrice {
		validationErrors = append(validationErrors, "VOTING_STATS_POLICY must be one of snapshot, current_price")
	}

	// Validate Guard config
	if c.Guard.LockTTL <= 0 {
		validationErrors = append(validationErrors, "GUARD_LOCK_TTL must be greater than 0")
	}

	// Validate Sweeper config
	if c.Sweeper.Schedule == "" {
		validationErrors = append(validationErrors, "SWEEPER_SCHEDULE is required")
	}
	if c.Sweeper.BatchSize <= 0 {
		validationErrors = append(validationErrors, "SWEEPER_BATCH_SIZE must be greater than 0")
	}
	if c.Sweeper.MaxAttempts <= 0 {
		validationErrors = append(validationErrors, "SWEEPER_MAX_ATTEMPTS must be greater than 0")
	}

	// Validate Outbox config
	if c.Outbox.PollingInterval <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	}
	if c.Outbox.BatchSize <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_BATCH_SIZE must be greater than 0")
	}
	if c.Outbox.MaxRetryAttempts <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")
	}

	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
