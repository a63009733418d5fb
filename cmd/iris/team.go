// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/groupsio/iris/internal/config"
)

// runTeam dispatches the "team add|remove|list" subcommands.
func runTeam(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: iris team <add|remove|list> ...")
	}

	switch args[0] {
	case "add":
		return runTeamAdd(args[1:])
	case "remove", "rm":
		return runTeamRemove(args[1:])
	case "list", "ls":
		return runTeamList(args[1:])
	default:
		return fmt.Errorf("iris team: unknown subcommand %q", args[0])
	}
}

func configPathFor(fs *flag.FlagSet) (string, error) {
	home := fs.Lookup("home").Value.String()
	irisHomeDir, err := irisHome(home)
	if err != nil {
		return "", fmt.Errorf("resolve IRIS_HOME: %w", err)
	}
	return config.NewLoader().FindConfig(irisHomeDir)
}

func runTeamAdd(args []string) error {
	fs := flag.NewFlagSet("team add", flag.ExitOnError)
	fs.String("home", "", "IRIS_HOME directory (default: $IRIS_HOME or ~/.iris)")
	path := fs.String("workdir", "", "Team's working directory (required)")
	description := fs.String("description", "", "Human-readable description")
	idleTimeout := fs.String("idle-timeout", "", "Override the global idle timeout, e.g. \"1h\"")
	skipPermissions := fs.Bool("skip-permissions", false, "Run the assistant without interactive permission prompts")
	color := fs.String("color", "", "Display color hint for the dashboard")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: iris team add [flags] <name>")
	}
	name := fs.Arg(0)
	if *path == "" {
		return fmt.Errorf("iris team add: -workdir is required")
	}

	configFile, err := configPathFor(fs)
	if err != nil {
		return fmt.Errorf("find config (run 'iris init' first): %w", err)
	}

	team := config.TeamConfig{
		Path:            *path,
		Description:     *description,
		IdleTimeout:     *idleTimeout,
		SkipPermissions: *skipPermissions,
		Color:           *color,
	}
	if err := config.SetTeam(configFile, name, team); err != nil {
		return fmt.Errorf("add team %q: %w", name, err)
	}
	fmt.Printf("Added team %q to %s\n", name, configFile)
	return nil
}

func runTeamRemove(args []string) error {
	fs := flag.NewFlagSet("team remove", flag.ExitOnError)
	fs.String("home", "", "IRIS_HOME directory (default: $IRIS_HOME or ~/.iris)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: iris team remove <name>")
	}
	name := fs.Arg(0)

	configFile, err := configPathFor(fs)
	if err != nil {
		return fmt.Errorf("find config (run 'iris init' first): %w", err)
	}
	if err := config.RemoveTeam(configFile, name); err != nil {
		return fmt.Errorf("remove team %q: %w", name, err)
	}
	fmt.Printf("Removed team %q from %s\n", name, configFile)
	return nil
}

func runTeamList(args []string) error {
	fs := flag.NewFlagSet("team list", flag.ExitOnError)
	fs.String("home", "", "IRIS_HOME directory (default: $IRIS_HOME or ~/.iris)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	configFile, err := configPathFor(fs)
	if err != nil {
		return fmt.Errorf("find config (run 'iris init' first): %w", err)
	}

	cfg, err := config.NewLoader().LoadWithDefaults(context.Background(), configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	names := make([]string, 0, len(cfg.Teams))
	for name := range cfg.Teams {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Println("No teams configured.")
		return nil
	}
	for _, name := range names {
		t := cfg.Teams[name]
		fmt.Fprintf(os.Stdout, "%s\t%s", name, t.Path)
		if t.Description != "" {
			fmt.Fprintf(os.Stdout, "\t%s", t.Description)
		}
		fmt.Println()
	}
	return nil
}
