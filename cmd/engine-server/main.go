/*-------------------------------------------------------------------------
 *
 * main.go
 *    Main entry point for the action request lifecycle engine server
 *
 * Copyright (c) 2024-2026, LaunchBase, Inc. <eng@getlaunchbase.com>
 *
 * IDENTIFICATION
 *    cmd/engine-server/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/launchbase/actionrequests/internal/actionrequests"
	"github.com/launchbase/actionrequests/internal/api"
	"github.com/launchbase/actionrequests/internal/audit"
	"github.com/launchbase/actionrequests/internal/config"
	"github.com/launchbase/actionrequests/internal/db"
	"github.com/launchbase/actionrequests/internal/learning"
	"github.com/launchbase/actionrequests/internal/metrics"
	"github.com/launchbase/actionrequests/internal/notifications"
	"github.com/launchbase/actionrequests/internal/sequencer"
)

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	var (
		showVersion      = flag.Bool("version", false, "Show version information")
		showVersionShort = flag.Bool("v", false, "Show version information (short)")
		configPath       = flag.String("c", "", "Path to configuration file")
		configPathLong   = flag.String("config", "", "Path to configuration file")
		showHelp         = flag.Bool("help", false, "Show help message")
		showHelpShort    = flag.Bool("h", false, "Show help message (short)")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "LaunchBase Engine Server - action request lifecycle engine\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                    Start server with default configuration\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -c config.yaml     Start server with custom config file\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --version          Show version information\n", os.Args[0])
	}
	flag.Parse()

	if *showVersion || *showVersionShort {
		fmt.Printf("engine-server version %s\n", version)
		fmt.Printf("Build date: %s\n", buildDate)
		fmt.Printf("Git commit: %s\n", gitCommit)
		os.Exit(0)
	}
	if *showHelp || *showHelpShort {
		flag.Usage()
		os.Exit(0)
	}

	/* Command line flag takes precedence over environment variable */
	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = *configPathLong
	}
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}

	var cfg *config.Config
	if cfgPath != "" {
		var err error
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: Failed to load config: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = config.FromEnv()
	}

	metrics.InitLogging(cfg.LogLevel, cfg.LogFormat)

	database, err := db.NewDB(cfg.Database.ConnString, db.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	/* Run migrations */
	if runner, err := db.NewMigrationRunner(database.DB, "./migrations"); err == nil {
		if err := runner.Run(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: migration failed: %v\n", err)
		}
	}

	/* Wire components */
	queries := db.NewQueries(database.DB)
	auditLog := audit.NewLogger(queries)
	service := actionrequests.NewService(queries, auditLog)
	tracker := learning.NewTracker(queries)
	mailer := notifications.NewEmailService(
		cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From,
		cfg.Server.BaseURL,
	)
	if !mailer.IsEnabled() {
		metrics.WarnWithContext(context.Background(), "SMTP not configured: questions will not be delivered and requests will stay pending", nil)
	}
	seq := sequencer.New(queries, service, mailer, auditLog)

	handlers := api.NewHandlers(queries, service, tracker, seq, mailer, auditLog, cfg.Server.BaseURL)
	router := api.NewRouter(handlers, cfg.Auth.APIKeys)

	/* Background sequencer worker */
	if cfg.Sequencer.Enabled {
		worker := sequencer.NewWorker(seq, cfg.Sequencer.Interval)
		worker.Start()
		defer worker.Stop()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		metrics.InfoWithContext(context.Background(), "Server starting", map[string]interface{}{
			"addr":    addr,
			"version": version,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "FATAL: Server failed to start on %s: %v\n", addr, err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	metrics.InfoWithContext(context.Background(), "Shutting down server", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server forced to shutdown: %v\n", err)
	}
}
