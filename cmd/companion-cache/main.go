package main

import (
	"os"

	"github.com/eventpass/companion-sdk/pkg/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd("companion-cache", "Inspect and refresh the event companion local cache")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
