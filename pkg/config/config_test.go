package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"APP_ENV", "LOG_LEVEL", "LOG_FORMAT", "STATIONBOOK_ACTOR_ID", "STATIONBOOK_ACTOR_ROLE",
	"DATABASE_URL", "SQLITE_PATH", "REDIS_URL", "RABBITMQ_URL",
	"BOOKING_TIMEZONE", "BOOKING_MIN_ADVANCE_MINUTES", "BOOKING_MAX_ADVANCE_DAYS", "BOOKING_SLOT_STEP_MINUTES",
	"LOCK_WAIT_TIMEOUT", "LOCK_LEASE", "LOCK_RETRY_INTERVAL",
	"CACHE_TTL", "CACHE_BREAKER_FAILURES", "CACHE_BREAKER_TIMEOUT",
	"OUTBOX_POLL_INTERVAL", "OUTBOX_BATCH_SIZE", "OUTBOX_MAX_RETRIES",
	"OUTBOX_STATS_INTERVAL", "OUTBOX_RETENTION_DAYS", "OUTBOX_CLEANUP_INTERVAL",
	"OUTBOX_PROCESSOR_ENABLED", "WORKER_HEALTH_ADDR",
}

// clearEnv blanks every variable Load reads; t.Setenv restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range configEnvVars {
		t.Setenv(v, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "admin", cfg.ActorRole)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.RedisURL)

	assert.Equal(t, "UTC", cfg.BookingTimezone)
	assert.Equal(t, 60, cfg.BookingMinAdvanceMinutes)
	assert.Equal(t, 60, cfg.BookingMaxAdvanceDays)
	assert.Equal(t, 15, cfg.BookingSlotStepMinutes)

	assert.Equal(t, 10*time.Second, cfg.LockWaitTimeout)
	assert.Equal(t, 30*time.Second, cfg.LockLease)
	assert.Equal(t, 200*time.Millisecond, cfg.LockRetryInterval)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)

	assert.Equal(t, 5, cfg.OutboxMaxRetries)
	assert.True(t, cfg.OutboxProcessorEnabled)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://booking@db:5432/stationbook")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("BOOKING_TIMEZONE", "Europe/Berlin")
	t.Setenv("BOOKING_MIN_ADVANCE_MINUTES", "120")
	t.Setenv("LOCK_WAIT_TIMEOUT", "3s")
	t.Setenv("OUTBOX_PROCESSOR_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://booking@db:5432/stationbook", cfg.DatabaseURL)
	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.Equal(t, 120, cfg.BookingMinAdvanceMinutes)
	assert.Equal(t, 3*time.Second, cfg.LockWaitTimeout)
	assert.False(t, cfg.OutboxProcessorEnabled)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOOKING_MAX_ADVANCE_DAYS", "soon")
	t.Setenv("LOCK_LEASE", "forever")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.BookingMaxAdvanceDays)
	assert.Equal(t, 30*time.Second, cfg.LockLease)
}

func TestLoad_RejectsBadSettings(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown timezone", key: "BOOKING_TIMEZONE", value: "Mars/Olympus"},
		{name: "negative advance notice", key: "BOOKING_MIN_ADVANCE_MINUTES", value: "-5"},
		{name: "step not dividing an hour", key: "BOOKING_SLOT_STEP_MINUTES", value: "25"},
		{name: "zero horizon", key: "BOOKING_MAX_ADVANCE_DAYS", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestBookingPolicy(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOOKING_TIMEZONE", "America/New_York")
	t.Setenv("BOOKING_MAX_ADVANCE_DAYS", "30")

	cfg, err := Load()
	require.NoError(t, err)
	policy := cfg.BookingPolicy()

	assert.Equal(t, "America/New_York", policy.Location.String())
	assert.Equal(t, time.Hour, policy.MinAdvance)
	assert.Equal(t, 30*24*time.Hour, policy.MaxAdvance)
	assert.Equal(t, 15*time.Minute, policy.SlotStep)
	assert.Equal(t, 10*time.Second, policy.LockWaitTimeout)
	assert.Equal(t, 5*time.Minute, policy.CacheTTL)
}
