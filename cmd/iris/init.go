// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// runInitCmd walks the operator through creating a new config.yaml,
// mirroring trellis's interactive "init" prompt flow.
func runInitCmd(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	home := fs.String("home", "", "IRIS_HOME directory (default: $IRIS_HOME or ~/.iris)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	irisHomeDir, err := irisHome(*home)
	if err != nil {
		return fmt.Errorf("resolve IRIS_HOME: %w", err)
	}
	if err := os.MkdirAll(irisHomeDir, 0755); err != nil {
		return fmt.Errorf("create IRIS_HOME %s: %w", irisHomeDir, err)
	}

	configFile := filepath.Join(irisHomeDir, "config.yaml")
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("%s already exists; remove it first or pass -home to target a different directory", configFile)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("Iris Configuration Setup")
	fmt.Println("========================")
	fmt.Println()
	fmt.Println("This will create a config.yaml in " + irisHomeDir + ".")
	fmt.Println("Press Enter to accept defaults shown in [brackets].")
	fmt.Println()

	maxProcesses := prompt(reader, "Max concurrent assistant processes", "10")
	idleTimeout := prompt(reader, "Idle timeout before an awake team is put to sleep", "30m")
	assistantCmd := prompt(reader, "Default assistant command", "claude --output-format stream-json")

	fmt.Println()
	enableDashboard := strings.ToLower(prompt(reader, "Enable the HTTP dashboard? (y/n)", "y")) == "y"
	dashboardPort := "8787"
	if enableDashboard {
		dashboardPort = prompt(reader, "Dashboard port", "8787")
	}

	fmt.Println()
	fmt.Println("Teams are the assistants iris manages, each with its own working directory.")
	type team struct {
		Name string
		Path string
	}
	var teams []team
	for {
		add := prompt(reader, "Add a team? (y/n)", "n")
		if strings.ToLower(add) != "y" {
			break
		}
		t := team{}
		t.Name = prompt(reader, "  Team name", "")
		if t.Name == "" {
			continue
		}
		cwd, _ := os.Getwd()
		t.Path = prompt(reader, "  Working directory", cwd)
		teams = append(teams, t)
		fmt.Println()
	}

	if _, err := strconv.Atoi(maxProcesses); err != nil {
		maxProcesses = "10"
	}

	var sb strings.Builder
	sb.WriteString("# Iris orchestrator configuration.\n")
	sb.WriteString("settings:\n")
	sb.WriteString("  idleTimeout: \"" + idleTimeout + "\"\n")
	sb.WriteString("  maxProcesses: " + maxProcesses + "\n")
	sb.WriteString("  healthCheckInterval: \"30s\"\n")
	sb.WriteString("  sessionInitTimeout: \"15s\"\n")
	sb.WriteString("  assistantCommand: [" + commandArrayLiteral(assistantCmd) + "]\n\n")
	sb.WriteString("dashboard:\n")
	sb.WriteString("  enabled: " + strconv.FormatBool(enableDashboard) + "\n")
	sb.WriteString("  host: \"127.0.0.1\"\n")
	sb.WriteString("  port: " + dashboardPort + "\n")
	sb.WriteString("  # tlsCert: \"~/.iris/cert.pem\"\n")
	sb.WriteString("  # tlsKey: \"~/.iris/key.pem\"\n\n")
	sb.WriteString("teams:\n")
	if len(teams) == 0 {
		sb.WriteString("  # example:\n")
		sb.WriteString("  #   path: /path/to/project\n")
		sb.WriteString("  #   idleTimeout: \"1h\"\n")
	}
	for _, t := range teams {
		sb.WriteString("  " + t.Name + ":\n")
		sb.WriteString("    path: " + strconv.Quote(t.Path) + "\n")
	}

	if err := os.WriteFile(configFile, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	fmt.Println()
	fmt.Printf("Created %s\n", configFile)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit " + configFile + " as needed")
	fmt.Println("  2. Run: iris serve")
	if enableDashboard {
		fmt.Println("  3. Open: http://127.0.0.1:" + dashboardPort)
	}
	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}

// commandArrayLiteral turns a space-separated command into a YAML flow
// sequence of quoted strings, e.g. `claude --foo` -> `"claude", "--foo"`.
func commandArrayLiteral(cmd string) string {
	parts := strings.Fields(cmd)
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = strconv.Quote(p)
	}
	return strings.Join(quoted, ", ")
}
