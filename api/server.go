package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"tradehook/pkg/models"
)

// OrderRouter dispatches a validated order request to a broker adapter.
type OrderRouter interface {
	Route(ctx context.Context, req *models.OrderRequest) (models.OrderResult, error)
}

// HealthStatus reports adapter readiness; computed once at startup since the
// adapter handles never change afterwards.
type HealthStatus struct {
	BinanceInitialized  bool
	FlattradeConfigured bool
}

type Server struct {
	router OrderRouter
	health HealthStatus
	logger *logrus.Logger
	port   string
}

func NewServer(router OrderRouter, health HealthStatus, logger *logrus.Logger, port string) *Server {
	return &Server{
		router: router,
		health: health,
		logger: logger,
		port:   port,
	}
}

// Handler builds the HTTP routing tree; exposed so tests can drive the
// server through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/webhook", s.handleWebhook).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	return corsMiddleware(s.logRequests(r))
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	s.logger.Infof("Starting webhook server on port %s", s.port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("Handled request")
	})
}

// alertPayload is the raw webhook body. Quantity stays a RawMessage so the
// error message can echo whatever value the alert carried, number or string.
type alertPayload struct {
	Symbol   string          `json:"symbol"`
	Side     string          `json:"side"`
	Quantity json.RawMessage `json:"quantity"`
	Broker   string          `json:"broker"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.WithField("request_id", uuid.NewString())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "No JSON data received")
		return
	}

	var payload alertPayload
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || string(trimmed) == "null" || json.Unmarshal(trimmed, &payload) != nil {
		s.writeError(w, http.StatusBadRequest, "No JSON data received")
		return
	}

	req, err := models.NewOrderRequest(payload.Symbol, payload.Side, rawQuantity(payload.Quantity), payload.Broker)
	if err != nil {
		logger.WithField("message", err.Error()).Warn("Rejected webhook alert")
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger = logger.WithFields(logrus.Fields{
		"symbol":   req.Symbol,
		"side":     req.Side,
		"broker":   req.Broker,
		"quantity": req.Quantity.String(),
	})
	logger.Info("Processing webhook alert")

	result, err := s.router.Route(r.Context(), req)
	if err != nil {
		logger.WithError(err).Error("Order processing failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if result.Status != models.StatusSuccess {
		logger.WithField("message", result.Message).Warn("Order rejected")
		s.writeJSON(w, http.StatusBadRequest, result)
		return
	}

	logger.WithField("order_id", result.OrderID).Info("Order executed")
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":                     "healthy",
		"binance_client_initialized": s.health.BinanceInitialized,
		"flattrade_configured":       s.health.FlattradeConfigured,
	}

	s.writeJSON(w, http.StatusOK, response)
}

// rawQuantity turns the raw JSON quantity into the string the validator
// parses: unquoted for JSON strings, as written for numbers.
func rawQuantity(raw json.RawMessage) string {
	value := strings.TrimSpace(string(raw))
	if value == "null" {
		return ""
	}
	return strings.Trim(value, `"`)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, models.OrderResult{
		Status:  models.StatusError,
		Message: message,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}
