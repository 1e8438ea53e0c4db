package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/itt/pkg/core"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"ITT_ADAPTER", "ITT_PATH", "ITT_KEY", "ITT_MONGO_URI", "ITT_MONGO_DB",
		"ITT_POSTGRES_DSN", "ITT_METRICS_FILE", "ITT_VERSIONING", "ITT_READ_ONLY",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		clearEnv(t)
		cfg, err := LoadConfig("", "")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
		assert.Equal(t, ".", cfg.URI())
	})

	t.Run("File And Env", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		configFile := filepath.Join(dir, ConfigFileName)
		envFile := filepath.Join(dir, EnvFileName)

		require.NoError(t, os.WriteFile(configFile, []byte(`
adapter: mongo
key: quotes
max_retries: 3
mongo:
  uri: ${ITT_TEST_CONFIG_URI}
selectors:
  customer_name: "#client"
  package:
    price: ".cost"
`), 0644))
		require.NoError(t, os.WriteFile(envFile, []byte("ITT_TEST_CONFIG_URI=mongodb://db:27017\n"), 0644))
		t.Setenv("ITT_VERSIONING", "true")
		t.Setenv("ITT_MONGO_DB", "travel")
		t.Cleanup(func() { os.Unsetenv("ITT_TEST_CONFIG_URI") })

		cfg, err := LoadConfig(configFile, envFile)
		require.NoError(t, err)

		assert.Equal(t, AdapterMongo, cfg.Adapter)
		assert.Equal(t, "quotes", cfg.Key)
		assert.Equal(t, 3, cfg.MaxRetries)
		assert.Equal(t, "mongodb://db:27017", cfg.URI())
		assert.Equal(t, "travel", cfg.Mongo.Database)
		assert.True(t, cfg.Versioning)

		sel := cfg.HTMLSelectors()
		assert.Equal(t, "#client", sel.CustomerName)
		assert.Equal(t, "#packageTitle", sel.PackageTitle)
		assert.Equal(t, ".cost", sel.Package[core.FieldPrice])
	})

	t.Run("Missing Env File Is Ignored", func(t *testing.T) {
		clearEnv(t)
		_, err := LoadConfig("", filepath.Join(t.TempDir(), EnvFileName))
		assert.NoError(t, err)
	})

	t.Run("Missing Config File Fails", func(t *testing.T) {
		clearEnv(t)
		_, err := LoadConfig(filepath.Join(t.TempDir(), ConfigFileName), "")
		assert.Error(t, err)
	})

	t.Run("Invalid Bool", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ITT_READ_ONLY", "maybe")
		_, err := LoadConfig("", "")
		assert.ErrorContains(t, err, "ITT_READ_ONLY")
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"Unknown Adapter", func(c *Config) { c.Adapter = "redis" }, "adapter failed oneof"},
		{"Empty Key", func(c *Config) { c.Key = "" }, "key failed required"},
		{"Negative Retries", func(c *Config) { c.MaxRetries = -1 }, "max_retries failed gte"},
		{"Mongo Without URI", func(c *Config) { c.Adapter = AdapterMongo }, "mongo.uri is required for the mongo adapter"},
		{"Postgres Without DSN", func(c *Config) { c.Adapter = AdapterPostgres }, "postgres.dsn is required for the postgres adapter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}
