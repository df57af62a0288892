//go:build ignore
// +build ignore

package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"pledge-salesforce-sync/internal/models"
)

// Sends a sample signup event for the dev org to the local server.
func main() {
	fmt.Println("=== Pledge Salesforce Sync - Local Test ===")
	fmt.Println()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  Warning: Could not load .env file: %v\n", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	payload := map[string]interface{}{
		"url":           "localhost",
		"email":         fmt.Sprintf("pledge-test+%d@example.com", time.Now().Unix()),
		"id":            4242,
		"first_name":    "Test",
		"last_name":     "Pledger",
		"client_id":     "GA1.2.3",
		"track_id":      "UA-1",
		"business_name": "Local Test Ltd",
		"website":       "https://example.com",
		"business_size": "100",
		"business_type": "Retail",
	}
	raw, _ := json.Marshal(payload)

	envelope := models.PushEnvelope{
		Message: models.PushMessage{
			Data:      base64.StdEncoding.EncodeToString(raw),
			MessageID: fmt.Sprintf("local-%d", time.Now().UnixNano()),
		},
		Subscription: "local",
	}
	body, _ := json.Marshal(envelope)

	url := fmt.Sprintf("http://localhost:%s/events/pledge-signup", port)
	fmt.Printf("📤 Posting signup for %s to %s\n", payload["email"], url)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("❌ Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("📥 %d %s\n", resp.StatusCode, respBody)
}
