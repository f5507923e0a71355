// Snownode is the firmware for a battery-powered snow sensor node.
//
// Each cycle it joins Wi-Fi, optionally applies a firmware update, reads
// temperature and humidity from an I²C sensor and posts the reading to a
// collector webhook. Between cycles it either sleeps in-process or arms the
// RTC wake alarm and powers off.
//
// Usage:
//
//	snownode [command] [flags]
//
// See 'snownode --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/snowsensor/snownode/internal/config"
	"github.com/snowsensor/snownode/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "snownode",
	Short: "Snow sensor node firmware",
	Long: `Firmware for a snow sensor node.

Joins Wi-Fi, checks for firmware updates, reads temperature and humidity
and posts them to a collector webhook, then sleeps until the next cycle.

With 'cycle.deployed: false' the node runs exactly one cycle and exits,
which is the normal way to test a node on the bench.`,
	Version:      version.Version,
	SilenceUsage: true,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error, off); overrides the config file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("snownode %s (commit: %s)\n", version.Version, version.Commit)
	},
}
