//go:build !windows

package cmd

// Outside Windows browsers find the manifest by its location alone.
func registerManifest(browser, path string) error { return nil }

func unregisterManifest(browser string) error { return nil }
