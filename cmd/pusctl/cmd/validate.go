// SPDX-License-Identifier: BSD-3-Clause

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cordet/pus/cmd/pusctl/internal/tables"
	"github.com/cordet/pus/pkg/configcheck"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the Auxiliary Configuration Check against a table file",
	Long: `validate loads the OutRegistry, OutFactory and InFactory tables plus
the queue-size table from the --tables YAML file and runs the same
Auxiliary Configuration Check a Framework runs before reaching
CONFIGURED, stopping at the first table that fails.

Exit codes:
  0: every table passed
  1: a table failed
  2: the table file could not be read or parsed`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	path, err := tablesPath()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	doc, err := tables.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	result := configcheck.Check(doc.CheckConfig())
	if result.Failed {
		fmt.Printf("FAIL: table %s: %v\n", result.Table, result.Err)
		os.Exit(1)
	}

	fmt.Println("OK: all tables passed the Auxiliary Configuration Check")
	return nil
}
