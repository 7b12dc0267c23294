// SPDX-License-Identifier: BSD-3-Clause

// Command pusctl is offline inspection tooling for a CORDET/PUS
// framework deployment's configuration tables, scheduler tick and
// OutRegistry enable mask (spec §0).
package main

import (
	"fmt"
	"os"

	"github.com/cordet/pus/cmd/pusctl/cmd"
)

var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersion(version, gitCommit, buildDate)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pusctl: %v\n", err)
		os.Exit(1)
	}
}
