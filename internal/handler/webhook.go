package handler

import (
	"log/slog"
	"net/http"

	"orderbot/internal/dialog"
)

// handleWebhook answers a dialog fulfillment request.
// POST /, POST /webhook
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dialog.WebhookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.DebugContext(ctx, "webhook request",
		slog.String("intent", req.QueryResult.Intent.DisplayName),
		slog.String("session", req.Session),
	)

	h.writeJSON(w, http.StatusOK, h.conversation.Handle(ctx, &req))
}
