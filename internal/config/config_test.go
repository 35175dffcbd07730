package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0, cfg.Pipeline.InnerMin)
	assert.Equal(t, 9, cfg.Pipeline.InnerMax)
	assert.Equal(t, []int{2015, 2016, 2017, 2018, 2019}, cfg.Pipeline.OuterKeys)
	assert.Equal(t, 5, cfg.Pipeline.TopN)
	assert.Equal(t, 5, cfg.Pipeline.QuantileClasses)
	assert.Equal(t, "name", cfg.Datasets.RegionKeyProperty)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  read_timeout: 5s
pipeline:
  top_n: 3
  outer_keys: [2018]
datasets:
  data_dir: /srv/data
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout, "keys absent from the file keep defaults")
	assert.Equal(t, 3, cfg.Pipeline.TopN)
	assert.Equal(t, []int{2018}, cfg.Pipeline.OuterKeys)
	assert.Equal(t, filepath.Join("/srv/data", "board_games.csv"), cfg.Datasets.RatingsPath())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")
	t.Setenv("VIZ_SERVER_PORT", "9100")
	t.Setenv("VIZ_PIPELINE_QUANTILE_CLASSES", "7")
	t.Setenv("VIZ_DATASETS_COUNTS", "/abs/counts.xlsx")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Pipeline.QuantileClasses)
	assert.Equal(t, "/abs/counts.xlsx", cfg.Datasets.CountsPath())
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	path := writeConfig(t, "rate_limit:\n  burst: 10\n")
	t.Setenv("VIZ_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("VIZ_SERVER_PORT", "eighty")
		_, err := Load(writeConfig(t, ""))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }},
		{"rate limit without burst", func(c *Config) { c.RateLimit.Burst = 0 }},
		{"unknown log output", func(c *Config) { c.Logging.Output = "syslog" }},
		{"empty inner domain", func(c *Config) { c.Pipeline.InnerMin, c.Pipeline.InnerMax = 5, 1 }},
		{"top n above max", func(c *Config) { c.Pipeline.TopN = 100 }},
		{"no classes", func(c *Config) { c.Pipeline.QuantileClasses = 0 }},
		{"missing key property", func(c *Config) { c.Datasets.RegionKeyProperty = "" }},
		{"missing sort field", func(c *Config) { c.Pipeline.SortField = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.validate())
		})
	}

	t.Run("format forced to json", func(t *testing.T) {
		cfg := Default()
		cfg.Logging.Format = "text"
		require.NoError(t, cfg.validate())
		assert.Equal(t, "json", cfg.Logging.Format)
	})
}

func TestDatasetPaths(t *testing.T) {
	d := DatasetsConfig{DataDir: "data", Ratings: "games.csv", Regions: "/geo/us.json"}

	assert.Equal(t, filepath.Join("data", "games.csv"), d.RatingsPath())
	assert.Equal(t, "/geo/us.json", d.RegionsPath())
	assert.Equal(t, "", d.CountsPath())

	file := filepath.Join(t.TempDir(), "x.csv")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	assert.True(t, FileExists(file))
	assert.False(t, FileExists(filepath.Dir(file)))
}
