package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fardapack/fardapack-crm/internal/app"
	"github.com/fardapack/fardapack-crm/internal/config"
	"github.com/fardapack/fardapack-crm/internal/observability"
)

// crmdb prepares the store: it migrates the schema, seeds the default
// policies and the bootstrap admin, then reports the row counts.
func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	seedAdmin := flag.Bool("seed-admin", true, "create the bootstrap admin when no account exists")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	// Migration does not need the session cache
	cfg.SessionBackend = config.SessionBackendSQL

	ctx := context.Background()
	logger := observability.NewLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	fmt.Printf("Connecting to %s store: %s\n", cfg.DBDriver, cfg.DSN)
	c, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to prepare database: %v", err)
	}
	defer c.Close()

	sqlDB, err := c.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying sql.DB: %v", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	fmt.Println("✓ Schema migrated and policies seeded")

	if *seedAdmin {
		created, err := c.AuthSvc.EnsureBootstrapAdmin(ctx, cfg.BootstrapPassword)
		if err != nil {
			log.Fatalf("Failed to seed admin: %v", err)
		}
		if created {
			fmt.Println("✓ Bootstrap admin created")
		}
	}

	for _, table := range []string{"accounts", "companies", "contacts", "calls", "followups", "sessions", "casbin_rule"} {
		var n int64
		if err := c.DB.WithContext(ctx).Table(table).Count(&n).Error; err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", table, err)
			continue
		}
		fmt.Printf("  - %-12s %d rows\n", table, n)
	}
}
