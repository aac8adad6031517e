package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDBConfigPoolLimits(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/app_test")

	cfg := NewDBConfig()
	assert.Equal(t, defaultMaxOpenConns, cfg.MaxOpenConns)
	assert.Equal(t, defaultMaxIdleConns, cfg.MaxIdleConns)

	t.Setenv("DB_MAX_OPEN_CONNS", "4")
	t.Setenv("DB_MAX_IDLE_CONNS", "2")
	cfg = NewDBConfig()
	assert.Equal(t, 4, cfg.MaxOpenConns)
	assert.Equal(t, 2, cfg.MaxIdleConns)
}

func TestParseIntOrDefault(t *testing.T) {
	t.Setenv("SOME_COUNT", "not-a-number")
	assert.Equal(t, 7, parseIntOrDefault("SOME_COUNT", 7))

	t.Setenv("SOME_COUNT", "12")
	assert.Equal(t, 12, parseIntOrDefault("SOME_COUNT", 7))
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Setenv("SOME_TIMEOUT", "250ms")
	assert.Equal(t, 250*time.Millisecond, parseDurationOrDefault("SOME_TIMEOUT", time.Second))

	t.Setenv("SOME_TIMEOUT", "nonsense")
	assert.Equal(t, time.Second, parseDurationOrDefault("SOME_TIMEOUT", time.Second))
}
