package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesToolkitLayout(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, "toolkit:\n  root: "+root+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "python27", "python.exe"), cfg.Legacy.Interpreter)
	assert.Equal(t, filepath.Join(root, "volatility2_python", "vol.py"), cfg.Legacy.Script)
	assert.Equal(t, []string{filepath.Join(root, "volatility2_plugin"), filepath.Join(root, "vol2plugin")}, cfg.Legacy.PluginDirs)
	assert.Equal(t, filepath.Join(root, "python3", "python.exe"), cfg.Modern.Interpreter)
	assert.Equal(t, filepath.Join(root, "volatility3"), cfg.Modern.Root)
	assert.Equal(t, filepath.Join(root, "volatility3", "vol.py"), cfg.Modern.Script)

	assert.Equal(t, time.Hour, cfg.Sessions.TTL.Std())
	assert.Equal(t, 300*time.Second, cfg.Timeouts.Run.Std())
	assert.Equal(t, 600*time.Second, cfg.Timeouts.File.Std())
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Help.Std())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Empty(t, cfg.History.Driver)
}

func TestModernScriptFallsBackToVolshell(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "volatility3"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "volatility3", "volshell.py"), nil, 0o644))

	cfg, err := Load(writeConfig(t, "toolkit:\n  root: "+root+"\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "volatility3", "volshell.py"), cfg.Modern.Script)
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
legacy:
  interpreter: /usr/bin/python2
  script: /opt/vol2/vol.py
  pluginDirs: []
sessions:
  ttl: 15m
timeouts:
  run: 90s
runner:
  maxConcurrent: 4
history:
  driver: sqlite
output:
  dir: /var/tmp/mf
minio:
  enabled: true
  endpoint: minio:9000
  bucketName: evidence
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/python2", cfg.Legacy.Interpreter)
	assert.Empty(t, cfg.Legacy.PluginDirs)
	assert.NotNil(t, cfg.Legacy.PluginDirs)
	assert.Equal(t, 15*time.Minute, cfg.Sessions.TTL.Std())
	assert.Equal(t, 90*time.Second, cfg.Timeouts.Run.Std())
	assert.Equal(t, 4, cfg.Runner.MaxConcurrent)
	assert.Equal(t, filepath.Join("/var/tmp/mf", "history.db"), cfg.History.DSN)
	assert.Equal(t, "us-east-1", cfg.Minio.Region)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(EnvOutputDir, "/cases/out")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvHistoryDSN, "user:pw@tcp(db:3306)/mf?parseTime=true")

	cfg, err := Load(writeConfig(t, "output:\n  dir: ignored\nhistory:\n  driver: mysql\n  dsn: other\n"))
	require.NoError(t, err)
	assert.Equal(t, "/cases/out", cfg.Output.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "user:pw@tcp(db:3306)/mf?parseTime=true", cfg.History.DSN)
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, writeConfig(t, "log:\n  level: warn\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMissingFiles(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	t.Setenv(EnvConfigPath, "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "output", cfg.Output.Dir)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"bad duration":   "timeouts:\n  run: soon\n",
		"bad driver":     "history:\n  driver: oracle\n  dsn: x\n",
		"missing dsn":    "history:\n  driver: postgres\n",
		"minio":          "minio:\n  enabled: true\n",
		"negative limit": "runner:\n  maxConcurrent: -1\n",
		"negative ttl":   "sessions:\n  ttl: -1s\n",
		"not yaml":       "toolkit: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
