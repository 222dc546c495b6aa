package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPaths_Absolute(t *testing.T) {
	p := DefaultPaths()
	assert.True(t, filepath.IsAbs(p.ConfigDir), p.ConfigDir)
	assert.True(t, filepath.IsAbs(p.DataDir), p.DataDir)
	assert.Equal(t, "config.yaml", filepath.Base(p.ConfigFile()))
	assert.Equal(t, appDir, filepath.Base(filepath.Dir(p.ConfigFile())))
}

func TestDefaultPaths_XDG(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG directories are not used on Windows")
	}
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")

	p := DefaultPaths()
	assert.Equal(t, "/xdg/config/selact", p.ConfigDir)
	assert.Equal(t, "/xdg/data/selact/state.db", p.DatabaseFile())
	assert.Equal(t, "/xdg/data/selact/logs/host.log", p.LogFile())
}

func TestDefaultPaths_HomeFallback(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("XDG directories are not used on Windows")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")

	p := DefaultPaths()
	assert.Equal(t, filepath.Join(home, ".config", "selact"), p.ConfigDir)
	assert.Equal(t, filepath.Join(home, ".local", "share", "selact"), p.DataDir)
}

func TestManifestFile(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("checks the Linux manifest locations")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	p := DefaultPaths()
	assert.Equal(t,
		filepath.Join(home, ".config", "google-chrome", "NativeMessagingHosts", "dev.selact.host.json"),
		p.ManifestFile("chrome"))
	assert.Equal(t,
		filepath.Join(home, ".mozilla", "native-messaging-hosts", "dev.selact.host.json"),
		p.ManifestFile("firefox"))
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	p := &Paths{ConfigDir: filepath.Join(root, "c"), DataDir: filepath.Join(root, "d")}
	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.ConfigDir, p.DataDir, p.LogDir()} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir(), dir)
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("SELACT_TEST_ENV_OR", "")
	assert.Equal(t, "fallback", envOr("SELACT_TEST_ENV_OR", "fallback"))
	t.Setenv("SELACT_TEST_ENV_OR", "set")
	assert.Equal(t, "set", envOr("SELACT_TEST_ENV_OR", "fallback"))
}
