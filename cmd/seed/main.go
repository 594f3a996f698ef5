package main

import (
	"context"
	"flag"
	"log"
	"os"

	"sitecanvas/internal/blocks"
	"sitecanvas/internal/config"
	"sitecanvas/internal/repository"
	"sitecanvas/internal/repository/postgres"
	"sitecanvas/internal/seed"
	serviceSite "sitecanvas/internal/service/site"

	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Roll back all migrations before seeding (postgres only, fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only apply migrations, don't seed sections")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("🚫 BLOCKED: Cannot run --drop-tables in production environment")
	}

	logger := config.NewLogger(cfg, os.Stdout)
	ctx := context.Background()

	if *dropTables {
		if cfg.StorageDriver != config.DriverPostgres {
			log.Fatalf("--drop-tables needs STORAGE_DRIVER=postgres (got %s)", cfg.StorageDriver)
		}
		log.Printf("🗑️  Rolling back migrations (prefix: %s)...", cfg.TablePrefix)
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		err = postgres.ResetMigrations(ctx, pool, postgres.NewTableNames(cfg.TablePrefix))
		pool.Close()
		if err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Printf("🌱 Opening %s storage (environment: %s, prefix: %s)", cfg.StorageDriver, cfg.Environment, cfg.TablePrefix)
	repos, err := repository.Open(ctx, cfg, repository.Options{Migrate: true}, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer repos.Close()
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	kinds, err := blocks.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load block kinds: %v", err)
	}
	services, err := serviceSite.SetupServices(repos, kinds, nil, nil, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to setup services: %v", err)
	}

	log.Println("📝 Seeding sections...")
	result, err := seed.NewSeeder(services.Sections, logger).Seed(ctx)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	for _, slug := range result.Created {
		log.Printf("✅ Created section %s", slug)
	}
	for _, slug := range result.Skipped {
		log.Printf("⏭️  Skipped existing section %s", slug)
	}

	log.Println("🎉 Seeding complete!")
}
