// SPDX-License-Identifier: BSD-3-Clause

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cordet/pus/cmd/pusctl/internal/tables"
	"github.com/cordet/pus/pkg/outregistry"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Preview the OutRegistry enable mask a table file would produce",
	Long: `registry builds a fresh OutRegistry from the --tables YAML file's
service table, applies its enable directives in order, and lists every
(servType, servSubType, discriminant) kind left enabled — the same
enable mask a Framework would hold right after bring-up, without
starting one.`,
	RunE: runRegistry,
}

func runRegistry(cmd *cobra.Command, args []string) error {
	path, err := tablesPath()
	if err != nil {
		return err
	}
	doc, err := tables.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	reg, err := outregistry.New(doc.OutServiceRows(), 16)
	if err != nil {
		fmt.Printf("FAIL: invalid service table: %v\n", err)
		os.Exit(1)
	}
	for _, rule := range doc.EnableRules {
		reg.SetEnable(rule.ServType, rule.ServSubType, rule.Discriminant, rule.On)
	}

	kinds := reg.EnabledKinds()
	if len(kinds) == 0 {
		fmt.Println("no kinds enabled")
		return nil
	}
	fmt.Printf("%d kind(s) enabled:\n", len(kinds))
	for _, t := range kinds {
		fmt.Printf("  %s\n", t)
	}
	return nil
}
