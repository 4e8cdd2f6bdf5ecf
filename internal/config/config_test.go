package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gastify")
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co/")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "authenticated", cfg.Supabase.JWTAudience)
	assert.Equal(t, "https://abc.supabase.co/auth/v1", cfg.Supabase.Issuer())
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 10, cfg.ReceiptRateLimit)
	assert.False(t, cfg.S3.Enabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_S3EnabledByBucket(t *testing.T) {
	setRequired(t)
	t.Setenv("S3_BUCKET", "receipts")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.S3.Enabled)
	assert.Equal(t, "receipts", cfg.S3.Bucket)
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		unset string
		want  string
	}{
		{"database", "DATABASE_URL", "DATABASE_URL is required"},
		{"supabase url", "SUPABASE_URL", "SUPABASE_URL is required"},
		{"anon key", "SUPABASE_ANON_KEY", "SUPABASE_ANON_KEY is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestLoad_InvalidRateLimit(t *testing.T) {
	setRequired(t)
	t.Setenv("RECEIPT_RATE_LIMIT", "many")

	_, err := Load()
	assert.Error(t, err)
}
