package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_URL_ANON_KEY", "anon")
	for _, key := range []string{
		"PORT", "ENVIRONMENT", "LOG_LEVEL", "DATABASE_DRIVER", "DATABASE_URL",
		"MONGODB_URI", "MONGODB_PASSWORD", "MONGODB_DATABASE", "SUPABASE_JWT_SECRET",
		"CORS_ALLOWED_ORIGINS", "FRONTEND_URL", "METRICS_ENABLED",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.NotEmpty(t, cfg.DatabaseURL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CorsAllowedOrigins)
	assert.True(t, cfg.MetricsEnabled)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresSupabase(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SUPABASE_URL", "")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "SUPABASE_URL")
}

func TestLoadConfigDriverRequirements(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "postgres without url", env: map[string]string{"DATABASE_DRIVER": "postgres"}, wantErr: "DATABASE_URL"},
		{name: "postgres", env: map[string]string{"DATABASE_DRIVER": "Postgres", "DATABASE_URL": "postgres://localhost/eventease"}},
		{name: "mongo without uri", env: map[string]string{"DATABASE_DRIVER": "mongo"}, wantErr: "MONGODB_URI"},
		{name: "mongo placeholder without password", env: map[string]string{"DATABASE_DRIVER": "mongo", "MONGODB_URI": "mongodb+srv://app:<password>@cluster"}, wantErr: "MONGODB_PASSWORD"},
		{name: "mongo", env: map[string]string{"DATABASE_DRIVER": "mongo", "MONGODB_URI": "mongodb://localhost:27017"}},
		{name: "unknown driver", env: map[string]string{"DATABASE_DRIVER": "redis"}, wantErr: "DATABASE_DRIVER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfigOriginsAndMetrics(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CorsAllowedOrigins)
	assert.False(t, cfg.MetricsEnabled)

	t.Setenv("METRICS_ENABLED", "sometimes")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "METRICS_ENABLED")
}

func TestLoadConfigFrontendURLFallback(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("FRONTEND_URL", "https://app.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CorsAllowedOrigins)
}
