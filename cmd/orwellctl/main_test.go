package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/orwellctl/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func changedSet(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := resolveConfig(runFlags{}, changedSet())
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestResolveConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orwellctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
name = "from-file"
status_addr = "127.0.0.1:9999"
`), 0o600))

	f := runFlags{
		configPath: path,
		connection: "arena.local,9000,9001,9002",
		name:       " pilot ",
		statusAddr: "off",
		noJoystick: true,
	}
	cfg, err := resolveConfig(f, changedSet("connection", "name", "status-addr"))
	require.NoError(t, err)

	assert.Equal(t, "pilot", cfg.Name)
	assert.Equal(t, "arena.local,9000,9001,9002", cfg.Connection)
	assert.Empty(t, cfg.StatusAddr)
	assert.Equal(t, []string{config.DeviceConsole}, cfg.Devices)
}

func TestResolveConfigKeepsFileWhenFlagsUnset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orwellctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(`name = "from-file"`), 0o600))

	cfg, err := resolveConfig(runFlags{configPath: path, name: "ignored"}, changedSet())
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Name)
}

func TestResolveConfigRejectsBadConnection(t *testing.T) {
	_, err := resolveConfig(runFlags{connection: "nohost"}, changedSet("connection"))
	require.Error(t, err)
}

func TestConfigInitWritesTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orwellctl.toml")
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "init", "--path", path})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	root = rootCmd()
	root.SetArgs([]string{"config", "init", "--path", path})
	require.Error(t, root.Execute())
}
