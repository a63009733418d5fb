// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/groupsio/iris/internal/config"
	"github.com/groupsio/iris/internal/dashboard"
	"github.com/groupsio/iris/internal/events"
	"github.com/groupsio/iris/internal/mcptransport"
	"github.com/groupsio/iris/internal/notification"
	"github.com/groupsio/iris/internal/orchestrator"
	"github.com/groupsio/iris/internal/pool"
	"github.com/groupsio/iris/internal/session"
	"github.com/groupsio/iris/internal/term"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	home := fs.String("home", "", "IRIS_HOME directory (default: $IRIS_HOME or ~/.iris)")
	configPath := fs.String("config", "", "Path to config.yaml (default: <home>/config.yaml)")
	noDashboard := fs.Bool("no-dashboard", false, "Disable the HTTP dashboard even if configured")
	noTerminal := fs.Bool("no-terminal", false, "Disable interactive pty attach in the dashboard")
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

	path := *configPath
	if path == "" {
		loader := config.NewLoader()
		found, err := loader.FindConfig(irisHomeDir)
		if err != nil {
			return fmt.Errorf("find config (run 'iris init' first): %w", err)
		}
		path = found
	}

	loader := config.NewLoader()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loader.LoadWithDefaults(ctx, path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log.Printf("iris: loaded %d team(s) from %s", len(cfg.Teams), path)

	configWatcher, err := config.NewWatcher(path, func(changed string) {
		log.Printf("iris: %s changed on disk; restart to pick up the new config", changed)
	})
	if err != nil {
		log.Printf("iris: could not watch %s for external edits: %v", path, err)
	} else {
		defer configWatcher.Close()
	}

	dataDir := filepath.Join(irisHomeDir, "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("create data dir %s: %w", dataDir, err)
	}
	sessions, err := session.NewManager(filepath.Join(dataDir, "sessions.json"))
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	queue, err := notification.NewQueue(filepath.Join(dataDir, "notifications.json"))
	if err != nil {
		return fmt.Errorf("open notification store: %w", err)
	}

	p := pool.New(pool.Config{
		MaxProcesses:        cfg.Settings.MaxProcesses,
		HealthCheckInterval: config.ParseDuration(cfg.Settings.HealthCheckInterval, 30*time.Second),
		SpawnConfig:         orchestrator.SpawnConfigFromTeam(cfg),
		IdleTimeout:         orchestrator.IdleTimeoutFromTeam(cfg),
	})
	defer p.Close()

	bus := events.NewMemoryEventBus(events.MemoryBusConfig{HistoryMaxEvents: 10000, HistoryMaxAge: 24 * time.Hour})
	defer bus.Close()

	orch := orchestrator.New(cfg, sessions, p, queue, bus)

	var wg sync.WaitGroup

	var dashSrv *dashboard.Server
	if cfg.Dashboard.Enabled && !*noDashboard {
		dashCfg := dashboard.ServerConfig{
			Host:    cfg.Dashboard.Host,
			Port:    cfg.Dashboard.Port,
			TLSCert: cfg.Dashboard.TLSCert,
			TLSKey:  cfg.Dashboard.TLSKey,
		}
		if *noTerminal {
			dashSrv = dashboard.NewServer(dashCfg, orch)
		} else {
			dashSrv = dashboard.NewServerWithTerminal(dashCfg, orch, term.NewManager())
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := dashSrv.ListenAndServe(); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("iris: dashboard stopped: %v", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("iris: shutting down")
		if dashSrv != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			dashSrv.Shutdown(shutdownCtx)
			shutdownCancel()
		}
		terminateCtx, terminateCancel := context.WithTimeout(context.Background(), 10*time.Second)
		p.TerminateAll(terminateCtx)
		terminateCancel()
		cancel()
	}()

	mcpSrv := mcptransport.New(orch, "iris", version)
	err = mcpSrv.ServeStdio(ctx)
	cancel()
	wg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp transport: %w", err)
	}
	return nil
}
