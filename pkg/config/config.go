package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string
	LogLevel  string
	LogFormat string
	ActorID   string
	ActorRole string

	// Database. An empty URL selects the local SQLite file.
	DatabaseURL string
	SQLitePath  string

	// Redis. Empty disables Redis and keeps locks and cache in process.
	RedisURL string

	// RabbitMQ
	RabbitMQURL string

	// Booking rules
	BookingTimezone          string
	BookingMinAdvanceMinutes int
	BookingMaxAdvanceDays    int
	BookingSlotStepMinutes   int

	// Slot locks
	LockWaitTimeout   time.Duration
	LockLease         time.Duration
	LockRetryInterval time.Duration

	// Availability cache
	CacheTTL             time.Duration
	CacheBreakerFailures int
	CacheBreakerTimeout  time.Duration

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxStatsInterval    time.Duration
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// Worker
	WorkerHealthAddr string
}

// BookingPolicy is the typed view of the booking and concurrency settings.
type BookingPolicy struct {
	Location          *time.Location
	MinAdvance        time.Duration
	MaxAdvance        time.Duration
	SlotStep          time.Duration
	LockWaitTimeout   time.Duration
	LockLease         time.Duration
	LockRetryInterval time.Duration
	CacheTTL          time.Duration
}

// Load loads configuration from environment variables, reading a .env file
// first when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", ""),
		ActorID:   getEnv("STATIONBOOK_ACTOR_ID", "00000000-0000-0000-0000-000000000001"),
		ActorRole: getEnv("STATIONBOOK_ACTOR_ROLE", "admin"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		BookingTimezone:          getEnv("BOOKING_TIMEZONE", "UTC"),
		BookingMinAdvanceMinutes: getIntEnv("BOOKING_MIN_ADVANCE_MINUTES", 60),
		BookingMaxAdvanceDays:    getIntEnv("BOOKING_MAX_ADVANCE_DAYS", 60),
		BookingSlotStepMinutes:   getIntEnv("BOOKING_SLOT_STEP_MINUTES", 15),

		LockWaitTimeout:   getDurationEnv("LOCK_WAIT_TIMEOUT", 10*time.Second),
		LockLease:         getDurationEnv("LOCK_LEASE", 30*time.Second),
		LockRetryInterval: getDurationEnv("LOCK_RETRY_INTERVAL", 200*time.Millisecond),

		CacheTTL:             getDurationEnv("CACHE_TTL", 5*time.Minute),
		CacheBreakerFailures: getIntEnv("CACHE_BREAKER_FAILURES", 5),
		CacheBreakerTimeout:  getDurationEnv("CACHE_BREAKER_TIMEOUT", 30*time.Second),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxStatsInterval:    getDurationEnv("OUTBOX_STATS_INTERVAL", 30*time.Second),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval:  getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail deep inside a
// booking request.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.BookingTimezone); err != nil {
		return fmt.Errorf("invalid BOOKING_TIMEZONE %q: %w", c.BookingTimezone, err)
	}
	if c.BookingMinAdvanceMinutes < 0 {
		return fmt.Errorf("BOOKING_MIN_ADVANCE_MINUTES must not be negative")
	}
	if c.BookingMaxAdvanceDays <= 0 {
		return fmt.Errorf("BOOKING_MAX_ADVANCE_DAYS must be positive")
	}
	if c.BookingSlotStepMinutes <= 0 || 60%c.BookingSlotStepMinutes != 0 {
		return fmt.Errorf("BOOKING_SLOT_STEP_MINUTES must divide an hour, got %d", c.BookingSlotStepMinutes)
	}
	if c.LockLease <= 0 || c.LockWaitTimeout < 0 {
		return fmt.Errorf("lock lease must be positive and wait timeout non-negative")
	}
	return nil
}

// BookingPolicy returns the typed booking settings. Call Validate first.
func (c *Config) BookingPolicy() BookingPolicy {
	loc, err := time.LoadLocation(c.BookingTimezone)
	if err != nil {
		loc = time.UTC
	}
	return BookingPolicy{
		Location:          loc,
		MinAdvance:        time.Duration(c.BookingMinAdvanceMinutes) * time.Minute,
		MaxAdvance:        time.Duration(c.BookingMaxAdvanceDays) * 24 * time.Hour,
		SlotStep:          time.Duration(c.BookingSlotStepMinutes) * time.Minute,
		LockWaitTimeout:   c.LockWaitTimeout,
		LockLease:         c.LockLease,
		LockRetryInterval: c.LockRetryInterval,
		CacheTTL:          c.CacheTTL,
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
