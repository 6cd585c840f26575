// Package commands implements the safesecd CLI surface: start, stop and version.
package commands

import (
	"github.com/spf13/cobra"
)

// Version, Commit and Date are set by main via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "safesecd",
	Short: "safesecd is a keyfile store server",
	Long: `safesecd serves the boot and auth key-management protocol over TCP,
backed by an embedded keyfile store.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file (default: $XDG_CONFIG_HOME/safesecd/config.yaml)")
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(versionCmd)
}

// GetConfigFile returns the --config flag value.
func GetConfigFile() string {
	return configFile
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
