// Package main is the entry point for the selact CLI and native messaging host.
package main

import (
	"os"

	"github.com/runger/selact/internal/cmd"
)

func main() {
	args := os.Args[1:]
	if cmd.IsBrowserLaunch(args) {
		args = append([]string{"serve", "--"}, args...)
	}
	if err := cmd.ExecuteArgs(args); err != nil {
		os.Exit(1)
	}
}
