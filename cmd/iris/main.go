// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Command iris runs the orchestrator fleet: one long-lived assistant
// subprocess per configured team, driven over an MCP stdio transport and
// mirrored by an optional HTTP/WebSocket dashboard.
package main

import (
	"fmt"
	"os"

	"github.com/groupsio/iris/internal/config"
)

var version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "init":
		err = runInitCmd(os.Args[2:])
	case "team":
		err = runTeam(os.Args[2:])
	case "version", "-v", "-version", "--version":
		fmt.Printf("iris %s\n", version)
		return
	case "help", "-h", "-help", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "iris: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "iris: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`Usage: iris <command> [options]

Commands:
  serve              Run the orchestrator: MCP stdio transport plus the
                      optional dashboard, over the configured team fleet.
  init                Create a new config.yaml in $IRIS_HOME.
  team add <name>     Add a team to the config.
  team remove <name>  Remove a team from the config.
  team list           List configured teams.
  version             Print the version and exit.

Run "iris <command> -h" for command-specific flags.`)
}

// irisHome resolves $IRIS_HOME, falling back to ~/.iris.
func irisHome(flagVal string) (string, error) {
	if flagVal != "" {
		return flagVal, nil
	}
	if env := os.Getenv("IRIS_HOME"); env != "" {
		return env, nil
	}
	return config.DefaultIrisHome()
}
