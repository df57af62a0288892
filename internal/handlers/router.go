package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"pledge-salesforce-sync/internal/models"
	"pledge-salesforce-sync/internal/utils"
)

// Publisher hands an event to a queue instead of processing it inline.
type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

// RouterOptions configures the HTTP entry point.
type RouterOptions struct {
	Processors map[string]Processor
	Health     *HealthHandler
	// When Publisher is set, events are queued under Queues[function].
	Publisher Publisher
	Queues    map[string]string
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NewRouter builds the HTTP router used by the local server.
//
//	GET  /health             probes both orgs and databases
//	POST /events/{function}  accepts a Pub/Sub push envelope
func NewRouter(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	if opts.Health != nil {
		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			response := opts.Health.Check(req.Context())
			writeJSON(w, response.StatusCode(), response)
		})
	}

	r.Post("/events/{function}", func(w http.ResponseWriter, req *http.Request) {
		handleEvent(w, req, opts)
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

// handleEvent acknowledges every well-formed envelope with 2xx so that the
// push subscription does not redeliver; outcomes are logged and reported.
func handleEvent(w http.ResponseWriter, req *http.Request, opts RouterOptions) {
	function := chi.URLParam(req, "function")
	p, ok := opts.Processors[function]
	if !ok {
		writeJSON(w, http.StatusNotFound, Response{Error: "unknown function " + function})
		return
	}

	var envelope models.PushEnvelope
	if err := json.NewDecoder(req.Body).Decode(&envelope); err != nil || envelope.Message.Data == "" {
		writeJSON(w, http.StatusBadRequest, Response{Error: "Invalid push envelope"})
		return
	}

	logger := utils.GetLogger().With(
		zap.String("function", function),
		zap.String("messageID", envelope.Message.MessageID),
		zap.String("requestID", middleware.GetReqID(req.Context())),
	)

	if opts.Publisher != nil {
		queue := opts.Queues[function]
		if err := opts.Publisher.Publish(req.Context(), queue, []byte(envelope.Message.Data)); err != nil {
			logger.Error("Failed to enqueue event", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, Response{Error: "Failed to enqueue event"})
			return
		}
		writeJSON(w, http.StatusAccepted, Response{Success: true, Message: "queued on " + queue})
		return
	}

	err := HandlePush(req.Context(), p, envelope)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, Response{Success: true})
	case errors.Is(err, models.ErrInvalidPayload):
		logger.Warn("Dropped invalid event", zap.Error(err))
		writeJSON(w, http.StatusOK, Response{Success: false, Error: err.Error()})
	default:
		logger.Warn("Event handled with errors", zap.Error(err))
		writeJSON(w, http.StatusOK, Response{Success: false, Error: err.Error()})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		utils.GetLogger().Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("requestID", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
