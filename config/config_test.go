package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseDurationWithDays(t *testing.T) {
	cases := map[string]time.Duration{
		"30d":  30 * 24 * time.Hour,
		"1d":   24 * time.Hour,
		"90m":  90 * time.Minute,
		"5s":   5 * time.Second,
		"oops": 0,
		"xd":   0,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseDurationWithDays(in), in)
	}
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, splitAndTrim(" a:9092, ,b:9092 "))
}

func TestLoad_RequiredAndDefaults(t *testing.T) {
	t.Setenv("HTTP_PORT", ":8080")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "pizza")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "pizzeria")
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load(zap.NewNop())
	require.NotNil(t, cfg)
	assert.Equal(t, ":8080", cfg.HTTPPort)
	assert.Equal(t, "disable", cfg.DB.SSLMode)
	assert.Equal(t, 5*time.Second, cfg.DB.StatementTimeout)
	assert.True(t, cfg.Order.AutoDeliver)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*24*time.Hour, cfg.Cleanup.CanceledRetention)
}

func TestGetEnvBool(t *testing.T) {
	const key = "PIZZERIA_TEST_BOOL"
	cases := []struct {
		val  string
		def  bool
		want bool
	}{
		{"TRUE", false, true},
		{"1", false, true},
		{"t", false, true},
		{"False", true, false},
		{"0", true, false},
		{"yes", true, true},
		{"yes", false, false},
		{"", true, true},
	}
	for _, tc := range cases {
		t.Setenv(key, tc.val)
		assert.Equal(t, tc.want, getEnvBool(key, tc.def), "%q def=%v", tc.val, tc.def)
	}
}

func TestLoad_AutoDeliverAcceptsParseBoolForms(t *testing.T) {
	t.Setenv("HTTP_PORT", ":8080")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "pizza")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "pizzeria")
	t.Setenv("JWT_SECRET", "s3cr3t")

	t.Setenv("ORDER_AUTO_DELIVER", "TRUE")
	assert.True(t, Load(zap.NewNop()).Order.AutoDeliver)
	t.Setenv("ORDER_AUTO_DELIVER", "0")
	assert.False(t, Load(zap.NewNop()).Order.AutoDeliver)
	t.Setenv("CLEANUP_ENABLED", "1")
	assert.True(t, Load(zap.NewNop()).Cleanup.Enabled)
}

func TestLoad_MissingRequiredPanics(t *testing.T) {
	assert.Panics(t, func() {
		getEnv("PIZZERIA_SURELY_UNSET_KEY", zap.NewNop())
	})
}
