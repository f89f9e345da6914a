package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

// maxPayloadBytes bounds a single webhook delivery body.
const maxPayloadBytes = 1 << 20

// MessageHandler is called with the first message of a valid delivery.
type MessageHandler func(ctx context.Context, msg Message)

type WebhookHandler struct {
	verifyToken string
	onMessage   MessageHandler
	logger      *slog.Logger
}

func NewWebhookHandler(verifyToken string, onMessage MessageHandler, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifyToken: verifyToken,
		onMessage:   onMessage,
		logger:      logger,
	}
}

// HandleVerify handles the GET webhook verification from Meta.
// Reference: https://developers.facebook.com/docs/whatsapp/cloud-api/get-started#webhook-verification
func (h *WebhookHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode != "" && token == h.verifyToken {
		h.logger.Info("webhook verified", "mode", mode)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, challenge)
		return
	}

	h.logger.Warn("webhook verification failed", "mode", mode)
	w.WriteHeader(http.StatusForbidden)
}

// HandleIncoming processes incoming webhook POST notifications.
// Only entry[0].changes[0] and its first status/message are looked at.
// Reference: https://developers.facebook.com/docs/whatsapp/cloud-api/webhooks/components
func (h *WebhookHandler) HandleIncoming(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		h.logger.Warn("webhook: reading body", "err", err)
		http.Error(w, "Invalid Request", http.StatusBadRequest)
		return
	}
	h.logger.Debug("incoming webhook payload", "body", string(body))

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Warn("webhook: failed to decode payload", "err", err)
		http.Error(w, "Invalid Request", http.StatusBadRequest)
		return
	}
	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		http.Error(w, "Invalid Request", http.StatusBadRequest)
		return
	}

	value := payload.Entry[0].Changes[0].Value

	if len(value.Statuses) > 0 {
		st := value.Statuses[0]
		h.logger.Info("message status update", "id", st.ID, "status", st.Status)
	}

	if len(value.Messages) > 0 {
		// Meta may drop the connection before we finish; the reply still goes out.
		ctx := context.WithoutCancel(r.Context())
		h.onMessage(ctx, value.Messages[0])
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "Webhook processed")
}
