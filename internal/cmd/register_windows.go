//go:build windows

package cmd

import (
	"errors"

	"golang.org/x/sys/windows/registry"
)

func registryKey(browser string) string {
	if browser == "firefox" {
		return `Software\Mozilla\NativeMessagingHosts\` + HostName
	}
	return `Software\Google\Chrome\NativeMessagingHosts\` + HostName
}

// registerManifest points the browser's per-user registry key at path.
func registerManifest(browser, path string) error {
	k, _, err := registry.CreateKey(registry.CURRENT_USER, registryKey(browser), registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()
	return k.SetStringValue("", path)
}

func unregisterManifest(browser string) error {
	err := registry.DeleteKey(registry.CURRENT_USER, registryKey(browser))
	if errors.Is(err, registry.ErrNotExist) {
		return nil
	}
	return err
}
