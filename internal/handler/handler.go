// Package handler provides the HTTP handlers for the order bot: the dialog
// webhook, the read API, health checks and the MCP endpoint.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"orderbot/internal/dialog"
	"orderbot/internal/model"
	"orderbot/internal/session"
	"orderbot/internal/store"
)

// Conversation answers dialog turns.
type Conversation interface {
	Handle(ctx context.Context, req *dialog.WebhookRequest) *dialog.WebhookResponse
	Dispatch(ctx context.Context, intent string, t dialog.Turn) model.Reply
}

// SessionReader exposes checkout session state for inspection.
type SessionReader interface {
	Session(ctx context.Context, sessionID string) (*session.Record, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	conversation Conversation
	catalog      store.Store
	sessions     SessionReader
	logger       *slog.Logger
	version      string
}

// New creates a Handler. sessions may be nil, which disables the
// get_session MCP tool.
func New(conv Conversation, catalog store.Store, sessions SessionReader, logger *slog.Logger) *Handler {
	return &Handler{
		conversation: conv,
		catalog:      catalog,
		sessions:     sessions,
		logger:       logger,
		version:      "1.0.0",
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Dialog fulfillment webhook
	mux.HandleFunc("POST /{$}", h.handleWebhook)
	mux.HandleFunc("POST /webhook", h.handleWebhook)

	// Read API
	mux.HandleFunc("GET /api/orders", h.handleOrders)
	mux.HandleFunc("GET /api/customer/search", h.handleCustomerSearch)
	mux.HandleFunc("GET /api/customer/{id}", h.handleCustomer)
	mux.HandleFunc("GET /api/products", h.handleProducts)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if !errors.As(err, &apiErr) {
		apiErr = model.NewInternalError(err)
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}
