package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no file or env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultPort, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "fail-fast", cfg.Pipeline.Policy)
				assert.Equal(t, ",", cfg.Pipeline.Delimiter)
				assert.Equal(t, DefaultBatchConcurrency, cfg.Pipeline.BatchConcurrency)
				assert.Equal(t, "prometheus", cfg.Telemetry.MetricExporter)
				assert.True(t, cfg.Security.RateLimit.Enabled)
			},
		},
		{
			name: "file values are applied",
			file: `
server:
  port: 9090
pipeline:
  policy: coerce-to-null
  null_tokens: ["", "?"]
dashboard:
  plan: plans/retail.yaml
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "coerce-to-null", cfg.Pipeline.Policy)
				assert.Equal(t, []string{"", "?"}, cfg.Pipeline.NullTokens)
				assert.Equal(t, "plans/retail.yaml", cfg.Dashboard.Plan)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "defaults survive a partial file")
			},
		},
		{
			name: "environment overrides file",
			file: "server:\n  port: 9090\n",
			env: map[string]string{
				"TABCLEAN_SERVER_PORT":          "7070",
				"TABCLEAN_LOGGING_LEVEL":        "debug",
				"TABCLEAN_PIPELINE_OVERRIDES":   "fill.value=0,clip.k=3",
				"TABCLEAN_SERVER_WRITE_TIMEOUT": "1m",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, []string{"fill.value=0", "clip.k=3"}, cfg.Pipeline.Overrides)
				assert.Equal(t, time.Minute, cfg.Server.WriteTimeout)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"TABCLEAN_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "invalid policy in file",
			file:    "pipeline:\n  policy: best-effort\n",
			wantErr: true,
		},
		{
			name:    "malformed file",
			file:    "server: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(ConfigFileEnv, "")

			if tt.file != "" {
				path := filepath.Join(t.TempDir(), "tabclean.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o644))
				t.Setenv(ConfigFileEnv, path)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestValidate_CORSNeedsOrigins(t *testing.T) {
	cfg := Default()
	cfg.Security.AllowedOrigins = nil

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allowed origin")

	cfg.Security.EnableCORS = false
	assert.NoError(t, cfg.Validate())
}

func TestValidate_FileOutputGetsDefaultPath(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "both"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultLogFile, cfg.Logging.FilePath)
}

func TestAddress(t *testing.T) {
	cfg := Default()
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8181
	assert.Equal(t, "0.0.0.0:8181", cfg.Address())
}

func TestPaths(t *testing.T) {
	base := t.TempDir()
	paths := NewPaths(base, PathsConfig{OutputDir: "results"})

	assert.Equal(t, filepath.Join(base, "results"), paths.OutputDir)
	assert.Equal(t, filepath.Join(base, DefaultLogsDir), paths.LogsDir)

	require.NoError(t, paths.EnsureDirectories())
	assert.True(t, FileExists(paths.OutputDir))

	csvPath, reportPath := paths.DefaultOutputs("data/titanic.csv")
	assert.Equal(t, filepath.Join(base, "results", "titanic_cleaned.csv"), csvPath)
	assert.Equal(t, filepath.Join(base, "results", "titanic_report.txt"), reportPath)

	abs := filepath.Join(base, "x.csv")
	assert.Equal(t, abs, paths.Resolve(abs))
	assert.Equal(t, filepath.Join(base, "y.csv"), paths.Resolve("y.csv"))
}
