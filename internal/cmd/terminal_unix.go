//go:build !windows

package cmd

import (
	"os"

	"golang.org/x/sys/unix"
)

// ttyWidth returns the column count of the terminal behind f, or 0.
func ttyWidth(f *os.File) int {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return 0
	}
	return int(ws.Col)
}
