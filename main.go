// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/USA-RedDragon/configulator"

	"github.com/ionovox/server/cmd"
	"github.com/ionovox/server/internal/config"
)

// version and commit are overridden at build time via -ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	c, err := configulator.New[config.Config]()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize configuration:", err)
		os.Exit(1)
	}

	root := cmd.NewCommand(version, commit)
	root.SetContext(c.WithContext(context.Background()))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
