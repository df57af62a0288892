//go:build ignore
// +build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"pledge-salesforce-sync/internal/config"
)

func main() {
	fmt.Println("=== Metadata Store Initialization Script ===")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// Connect to the default 'postgres' database to create the tenant databases
	fmt.Println("📡 Connecting to PostgreSQL server...")
	adminConn, err := pgx.Connect(ctx, cfg.DatabaseURL("postgres"))
	if err != nil {
		fmt.Printf("❌ Failed to connect to PostgreSQL: %v\n", err)
		os.Exit(1)
	}

	for _, name := range []string{cfg.LiveDatabase, cfg.DevDatabase} {
		var exists bool
		err = adminConn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", name).Scan(&exists)
		if err != nil {
			fmt.Printf("❌ Failed to check database existence: %v\n", err)
			adminConn.Close(ctx)
			os.Exit(1)
		}
		if exists {
			fmt.Printf("✅ Database '%s' already exists\n", name)
			continue
		}
		if _, err = adminConn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
			fmt.Printf("❌ Failed to create database %s: %v\n", name, err)
			adminConn.Close(ctx)
			os.Exit(1)
		}
		fmt.Printf("✅ Database '%s' created!\n", name)
	}
	adminConn.Close(ctx)
	fmt.Println()

	table := pgx.Identifier(strings.Split(cfg.UserMetaTable, ".")).Sanitize()
	schema := `CREATE TABLE IF NOT EXISTS ` + table + ` (
		umeta_id   BIGSERIAL PRIMARY KEY,
		user_id    TEXT NOT NULL,
		meta_key   TEXT NOT NULL,
		meta_value TEXT
	)`

	for _, name := range []string{cfg.LiveDatabase, cfg.DevDatabase} {
		fmt.Printf("🚀 Creating %s in %s...\n", cfg.UserMetaTable, name)
		conn, err := pgx.Connect(ctx, cfg.DatabaseURL(name))
		if err != nil {
			fmt.Printf("❌ Failed to connect to %s: %v\n", name, err)
			os.Exit(1)
		}
		_, err = conn.Exec(ctx, schema)
		conn.Close(ctx)
		if err != nil {
			fmt.Printf("❌ Failed to create table: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println()
	fmt.Println("🎉 Metadata store initialization completed successfully!")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Test the connections: go run scripts/test_connection.go")
	fmt.Println("  2. Send a sample event: go run scripts/test_local.go")
}
