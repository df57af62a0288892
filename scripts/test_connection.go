//go:build ignore
// +build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"pledge-salesforce-sync/internal/handlers"
	"pledge-salesforce-sync/internal/utils"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️  No .env file found, using environment variables")
	}
	_ = utils.InitLogger("warn")

	fmt.Println("🔍 Testing Salesforce and database connections...")
	fmt.Println()

	// Test 1: Check environment variables
	fmt.Println("1️⃣  Checking Environment Variables:")
	checkEnvVar("SF_USERNAME")
	checkEnvVar("SF_USERNAME_DEV")
	checkEnvVar("SF_CLIENT_ID")
	checkEnvVar("SECRETS_BACKEND")
	checkEnvVar("DB_HOST")
	checkEnvVar("DB_PASSWORD")
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// Test 2: Log in to both orgs and probe them with the databases
	fmt.Println("2️⃣  Testing Connections:")
	rt, err := handlers.Bootstrap(ctx, "test-connection", true)
	if err != nil {
		fmt.Printf("   ❌ Bootstrap failed: %v\n", err)
		os.Exit(1)
	}

	health := rt.NewHealthHandler().Check(ctx)
	for tenant, status := range health.Orgs {
		fmt.Printf("   %s org %s: %s\n", mark(status), tenant, status)
	}
	for tenant, status := range health.Databases {
		fmt.Printf("   %s database %s: %s\n", mark(status), tenant, status)
	}
	fmt.Println()

	fmt.Printf("✅ Connection tests complete! (%s)\n", health.Status)
}

func mark(status string) string {
	if status == "connected" {
		return "✅"
	}
	return "❌"
}

func checkEnvVar(name string) {
	value := os.Getenv(name)
	if value == "" {
		fmt.Printf("   ❌ %s: NOT SET\n", name)
	} else {
		// Mask sensitive values
		masked := value
		if len(value) > 8 && name == "DB_PASSWORD" {
			masked = value[:2] + "..." + value[len(value)-2:]
		}
		fmt.Printf("   ✅ %s: %s\n", name, masked)
	}
}
