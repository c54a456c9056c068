package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/contapyme")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "latam", cfg.AmountFormat)
	assert.Equal(t, int64(40000000), cfg.PayrollTaxIDThreshold)
	assert.Equal(t, 8, cfg.LookupConcurrency)
	assert.Equal(t, 3*time.Second, cfg.LookupTimeout)
	assert.Equal(t, "1101", cfg.BankAccountCode)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.AllowedOrigins)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/contapyme")
	t.Setenv("PORT", "9090")
	t.Setenv("AMOUNT_FORMAT", "english")
	t.Setenv("PAYROLL_TAX_ID_THRESHOLD", "50000000")
	t.Setenv("LOOKUP_TIMEOUT", "500ms")
	t.Setenv("ALLOWED_ORIGINS", "https://app.contapyme.cl, https://admin.contapyme.cl")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "english", cfg.AmountFormat)
	assert.Equal(t, int64(50000000), cfg.PayrollTaxIDThreshold)
	assert.Equal(t, 500*time.Millisecond, cfg.LookupTimeout)
	assert.Equal(t, []string{"https://app.contapyme.cl", "https://admin.contapyme.cl"}, cfg.AllowedOrigins)
}

func TestLoadFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/contapyme")
	t.Setenv("PORT", "not-a-port")
	t.Setenv("LOOKUP_TIMEOUT", "soon")
	t.Setenv("LOOKUP_CONCURRENCY", "0")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.LookupTimeout)
	assert.Equal(t, 1, cfg.LookupConcurrency)
}

func TestLoadFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing database url",
			env:  map[string]string{"DATABASE_URL": ""},
		},
		{
			name: "production without clerk key",
			env:  map[string]string{"DATABASE_URL": "postgres://x", "ENVIRONMENT": "production", "S3_BUCKET": "b"},
		},
		{
			name: "production without bucket",
			env:  map[string]string{"DATABASE_URL": "postgres://x", "ENVIRONMENT": "production", "CLERK_SECRET_KEY": "sk"},
		},
		{
			name: "unknown amount format",
			env:  map[string]string{"DATABASE_URL": "postgres://x", "AMOUNT_FORMAT": "swiss"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadFromEnv()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}
