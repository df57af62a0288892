package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"pledge-salesforce-sync/internal/services/crmsync"
	"pledge-salesforce-sync/internal/utils"
)

// LimitsChecker is satisfied by salesforce.Client.
type LimitsChecker interface {
	Limits(ctx context.Context) error
}

// DatabaseChecker is satisfied by database.DB.
type DatabaseChecker interface {
	HealthCheck(ctx context.Context, database string) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	sessions *crmsync.Sessions
	db       DatabaseChecker
	timeout  time.Duration
}

// NewHealthHandler creates a new health handler. db may be nil.
func NewHealthHandler(sessions *crmsync.Sessions, db DatabaseChecker) *HealthHandler {
	return &HealthHandler{sessions: sessions, db: db, timeout: 10 * time.Second}
}

// HealthResponse is the response structure for health checks.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Stage     string            `json:"stage"`
	Orgs      map[string]string `json:"orgs"`
	Databases map[string]string `json:"databases,omitempty"`
}

// Check probes every tenant org and database.
func (h *HealthHandler) Check(ctx context.Context) HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   "pledge-salesforce-sync",
		Version:   getEnvOrDefault("SERVICE_VERSION", "1.0.0"),
		Stage:     getEnvOrDefault("STAGE", "unknown"),
		Orgs:      map[string]string{},
	}
	if h.db != nil {
		response.Databases = map[string]string{}
	}

	for _, sess := range []crmsync.Session{h.sessions.Live, h.sessions.Dev} {
		tenant := string(sess.Tenant)

		response.Orgs[tenant] = "connected"
		if checker, ok := sess.CRM.(LimitsChecker); !ok {
			response.Orgs[tenant] = "not configured"
		} else if err := checker.Limits(ctx); err != nil {
			utils.GetLogger().Warn("Org health check failed", zap.String("tenant", tenant), zap.Error(err))
			response.Orgs[tenant] = "disconnected"
			response.Status = "degraded"
		}

		if h.db == nil {
			continue
		}
		response.Databases[tenant] = "connected"
		if err := h.db.HealthCheck(ctx, sess.Database); err != nil {
			utils.GetLogger().Warn("Database health check failed", zap.String("tenant", tenant), zap.Error(err))
			response.Databases[tenant] = "disconnected"
			response.Status = "degraded"
		}
	}

	return response
}

// StatusCode maps a health response to an HTTP status.
func (r HealthResponse) StatusCode() int {
	if r.Status != "healthy" {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// Handle processes health check requests.
func (h *HealthHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	response := h.Check(ctx)
	body, _ := json.Marshal(response)

	return events.APIGatewayProxyResponse{
		StatusCode: response.StatusCode(),
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}

// getEnvOrDefault returns environment variable or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
