package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	require.Equal(t, "adb", cfg.ADBPath)
	require.Equal(t, 27042, cfg.Port)
	require.Equal(t, "/data/local/tmp", cfg.ServerDir)
	require.True(t, cfg.AutoStart)
	require.False(t, cfg.KeepArchives)
	require.Equal(t, 30, cfg.CommandTimeout)
	require.Equal(t, 30*time.Second, cfg.Timeout())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"adb_path: /opt/platform-tools/adb\nfrida_port: 31337\nauto_start: false\n",
	), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "/opt/platform-tools/adb", cfg.ADBPath)
	require.Equal(t, 31337, cfg.Port)
	require.False(t, cfg.AutoStart)
	// Unset keys keep their defaults.
	require.Equal(t, "/data/local/tmp", cfg.ServerDir)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("adb_path: [unclosed\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("FRIDACTL_ADB_PATH", "/custom/adb")
	t.Setenv("FRIDACTL_VERBOSE", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	require.Equal(t, "/custom/adb", cfg.ADBPath)
	require.True(t, cfg.Verbose)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.DefaultDevice = "emulator-5554"
	cfg.Port = 31337
	cfg.KeepArchives = true
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "emulator-5554", loaded.DefaultDevice)
	require.Equal(t, 31337, loaded.Port)
	require.True(t, loaded.KeepArchives)
	require.Equal(t, cfg.ADBPath, loaded.ADBPath)
}

func TestSetValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.NoError(t, SetValue(path, "frida_port", "31337"))
	require.NoError(t, SetValue(path, "auto_start", "false"))
	require.NoError(t, SetValue(path, "default_device", "emulator-5554"))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 31337, cfg.Port)
	require.False(t, cfg.AutoStart)
	require.Equal(t, "emulator-5554", cfg.DefaultDevice)
}

func TestSetValueRejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	require.Error(t, SetValue(path, "no_such_key", "value"))
	require.Error(t, SetValue(path, "frida_port", "not-a-number"))
	require.Error(t, SetValue(path, "auto_start", "not-a-bool"))
}
