package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "forest",
		Password: "secret",
		DBName:   "forest_service",
		SSLMode:  "disable",
	}
}

func TestDatabaseConfigValidate(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate(Development))

	tests := []struct {
		name   string
		mutate func(*DatabaseConfig)
		field  string
	}{
		{"empty host", func(c *DatabaseConfig) { c.Host = "" }, "Host"},
		{"zero port", func(c *DatabaseConfig) { c.Port = 0 }, "Port"},
		{"port too high", func(c *DatabaseConfig) { c.Port = 70000 }, "Port"},
		{"empty user", func(c *DatabaseConfig) { c.User = "" }, "User"},
		{"empty password", func(c *DatabaseConfig) { c.Password = "" }, "Password"},
		{"empty dbname", func(c *DatabaseConfig) { c.DBName = "" }, "DBName"},
		{"dbname starts with digit", func(c *DatabaseConfig) { c.DBName = "1forest" }, "DBName"},
		{"dbname with dash", func(c *DatabaseConfig) { c.DBName = "forest-db" }, "DBName"},
		{"bad ssl mode", func(c *DatabaseConfig) { c.SSLMode = "maybe" }, "SSLMode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate(Development)
			require.Error(t, err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestDatabaseConfigProductionPolicy(t *testing.T) {
	cfg := validConfig()
	cfg.SSLMode = "require"
	cfg.Password = "Str0ng&LongEnough"
	assert.NoError(t, cfg.Validate(Production))

	// SSL cannot be disabled in production
	cfg = validConfig()
	cfg.Password = "Str0ng&LongEnough"
	err := cfg.Validate(Production)
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "SSLMode", ve.Field)

	weak := []string{
		"short1!A",          // too short
		"alllowercase1!aaa", // no uppercase
		"ALLUPPERCASE1!AAA", // no lowercase
		"NoDigitsHere!abc",  // no number
		"NoSpecials1abcDE",  // no special character
	}
	for _, password := range weak {
		cfg = validConfig()
		cfg.SSLMode = "require"
		cfg.Password = password

		err = cfg.Validate(Production)
		require.Error(t, err, "password %q should be rejected", password)
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Password", ve.Field)
	}
}

func TestEnvProvider(t *testing.T) {
	t.Setenv("FOREST_DB_HOST", "db.internal")
	t.Setenv("FOREST_DB_PORT", "5432")
	t.Setenv("FOREST_DEBUG", "true")

	provider := NewEnvProvider("FOREST_")
	ctx := context.Background()

	host, err := provider.GetString(ctx, "DB_HOST")
	require.NoError(t, err)
	assert.Equal(t, "db.internal", host)

	port, err := provider.GetInt(ctx, "DB_PORT")
	require.NoError(t, err)
	assert.Equal(t, 5432, port)

	debug, err := provider.GetBool(ctx, "DEBUG")
	require.NoError(t, err)
	assert.True(t, debug)

	_, err = provider.GetString(ctx, "MISSING")
	assert.Error(t, err)
}

func TestGetDatabaseConfig(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "forest")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "forest_service")

	provider := NewEnvProvider("")

	cfg, err := GetDatabaseConfig(context.Background(), provider)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	// DB_SSLMODE unset falls back to disable
	assert.Equal(t, "disable", cfg.SSLMode)
}
