// Package config loads selact settings and knows where its files live.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appDir = "selact"

// Paths locates selact's configuration and state on disk.
type Paths struct {
	ConfigDir string // config.yaml
	DataDir   string // state.db and logs/
}

// DefaultPaths resolves the per-user directories: XDG base dirs on Unix,
// %APPDATA% and %LOCALAPPDATA% on Windows.
func DefaultPaths() *Paths {
	home := homeDir()
	if runtime.GOOS == "windows" {
		return &Paths{
			ConfigDir: filepath.Join(envOr("APPDATA", filepath.Join(home, "AppData", "Roaming")), appDir),
			DataDir:   filepath.Join(envOr("LOCALAPPDATA", filepath.Join(home, "AppData", "Local")), appDir),
		}
	}
	return &Paths{
		ConfigDir: filepath.Join(envOr("XDG_CONFIG_HOME", filepath.Join(home, ".config")), appDir),
		DataDir:   filepath.Join(envOr("XDG_DATA_HOME", filepath.Join(home, ".local", "share")), appDir),
	}
}

func (p *Paths) ConfigFile() string   { return filepath.Join(p.ConfigDir, "config.yaml") }
func (p *Paths) DatabaseFile() string { return filepath.Join(p.DataDir, "state.db") }
func (p *Paths) LogDir() string       { return filepath.Join(p.DataDir, "logs") }

// LogFile is where the native host writes when no log file is configured;
// its stdout belongs to the browser.
func (p *Paths) LogFile() string { return filepath.Join(p.LogDir(), "host.log") }

// ManifestFile returns where the native messaging manifest for the given
// browser family ("chrome" or "firefox") is installed.
func (p *Paths) ManifestFile(browser string) string {
	const name = "dev.selact.host.json"
	home := homeDir()
	firefox := browser == "firefox"

	switch runtime.GOOS {
	case "windows":
		// Windows browsers find the manifest through the registry, so it
		// stays next to the config.
		return filepath.Join(p.ConfigDir, name)
	case "darwin":
		support := filepath.Join(home, "Library", "Application Support")
		if firefox {
			return filepath.Join(support, "Mozilla", "NativeMessagingHosts", name)
		}
		return filepath.Join(support, "Google", "Chrome", "NativeMessagingHosts", name)
	}
	if firefox {
		return filepath.Join(home, ".mozilla", "native-messaging-hosts", name)
	}
	return filepath.Join(filepath.Dir(p.ConfigDir), "google-chrome", "NativeMessagingHosts", name)
}

// EnsureDirectories creates the config, data and log directories.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ConfigDir, p.DataDir, p.LogDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	if runtime.GOOS == "windows" {
		return os.Getenv("USERPROFILE")
	}
	return os.Getenv("HOME")
}
