package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DB_PATH", "TABLE", "DIMENSION", "THRESHOLD", "TOP_N", "LOG_LEVEL", "LOG_FORMAT", "INDEX_PARALLELISM", "PARALLEL_MIN_ITEMS"} {
		// Setenv registers the restore; the variable must be absent, not empty.
		t.Setenv(EnvPrefix+"_"+key, "")
		require.NoError(t, os.Unsetenv(EnvPrefix+"_"+key))
	}
}

func TestLoad_PartialEnvKeepsDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("FACEID_THRESHOLD", "0.7")

	cfg, err := Load()
	require.NoError(t, err)
	expect := Default()
	expect.Threshold = 0.7
	assert.Equal(t, expect, cfg)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("FACEID_DB_PATH", "/var/lib/faceid/faces.sqlite")
	t.Setenv("FACEID_DIMENSION", "512")
	t.Setenv("FACEID_THRESHOLD", "0.45")
	t.Setenv("FACEID_TOP_N", "5")
	t.Setenv("FACEID_LOG_LEVEL", "debug")
	t.Setenv("FACEID_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/faceid/faces.sqlite", cfg.DBPath)
	assert.Equal(t, 512, cfg.Dimension)
	assert.Equal(t, 0.45, cfg.Threshold)
	assert.Equal(t, 5, cfg.TopN)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		description string
		mutate      func(c *Config)
		expectErr   bool
	}{
		{description: "defaults", mutate: func(c *Config) {}},
		{description: "threshold above one", mutate: func(c *Config) { c.Threshold = 1.5 }, expectErr: true},
		{description: "threshold below minus one", mutate: func(c *Config) { c.Threshold = -1.1 }, expectErr: true},
		{description: "negative top n", mutate: func(c *Config) { c.TopN = -1 }, expectErr: true},
		{description: "negative dimension", mutate: func(c *Config) { c.Dimension = -4 }, expectErr: true},
		{description: "empty path", mutate: func(c *Config) { c.DBPath = " " }, expectErr: true},
		{description: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, expectErr: true},
		{description: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, expectErr: true},
		{description: "warn level", mutate: func(c *Config) { c.LogLevel = "WARN" }},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			cfg := Default()
			testCase.mutate(cfg)
			err := cfg.Validate()
			if testCase.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
