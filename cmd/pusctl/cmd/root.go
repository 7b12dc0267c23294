// SPDX-License-Identifier: BSD-3-Clause

// Package cmd implements pusctl's command tree: offline inspection
// tooling for the configuration tables, scheduler and registry a live
// Framework wires at startup (spec §0's cmd/pusctl).
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "pusctl",
	Short: "Offline inspection tooling for a CORDET/PUS framework deployment",
	Long: `pusctl validates the configuration tables a Framework brings up at
startup, dry-runs a single scheduler tick against them, and previews an
OutRegistry enable mask — all without a running process.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion records build-time version information into the root
// command's --version output.
func SetVersion(v, commit, date string) {
	version, gitCommit, buildDate = v, commit, date
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate)
}

func init() {
	cobra.OnInitialize(initViper)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "tables", "", "path to the table YAML file (required by validate/tick/registry; falls back to $PUSCTL_TABLES)")
	if err := viper.BindPFlag("tables", rootCmd.PersistentFlags().Lookup("tables")); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(tickCmd)
	rootCmd.AddCommand(registryCmd)
}

// initViper binds PUSCTL_-prefixed environment variables over the bound
// flags, so CI can point pusctl at a table file without an explicit
// --tables argument on every invocation.
func initViper() {
	viper.SetEnvPrefix("pusctl")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// tablesPath resolves the table file path: the --tables flag if set,
// otherwise viper's bound value (which AutomaticEnv resolves against
// $PUSCTL_TABLES).
func tablesPath() (string, error) {
	path := viper.GetString("tables")
	if path == "" {
		return "", fmt.Errorf("--tables is required (or set $PUSCTL_TABLES)")
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("table file %s: %w", path, err)
	}
	return path, nil
}
