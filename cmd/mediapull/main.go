// Package main is the entry point for the mediapull application.
package main

import (
	"os"

	"github.com/jmylchreest/mediapull/cmd/mediapull/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
