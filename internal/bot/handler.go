package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/desertcc/storebot/internal/ai"
	"github.com/desertcc/storebot/internal/store"
	"github.com/desertcc/storebot/internal/whatsapp"
)

// ApologyText is sent when no answer could be produced.
const ApologyText = "Sorry, I couldn't come up with an answer right now. Please try again later."

type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	ReplyText(ctx context.Context, to, body, inReplyTo string) error
}

type Answerer interface {
	Answer(ctx context.Context, text string) (string, error)
}

type Handler struct {
	wa       Messenger
	answerer Answerer
	ledger   store.Ledger
	logger   *slog.Logger
}

// NewHandler wires the message router. ledger may be nil to disable
// duplicate suppression.
func NewHandler(wa Messenger, answerer Answerer, ledger store.Ledger, logger *slog.Logger) *Handler {
	return &Handler{wa: wa, answerer: answerer, ledger: ledger, logger: logger}
}

// HandleMessage answers one inbound message with at most one outbound message.
func (h *Handler) HandleMessage(ctx context.Context, msg whatsapp.Message) {
	log := h.logger.With("from", msg.From, "message_id", msg.ID, "type", msg.Type)

	if h.alreadyHandled(log, msg.ID) {
		return
	}

	switch msg.Type {
	case whatsapp.TypeText:
		if msg.Text == nil {
			log.Warn("text message without body")
			return
		}
		h.handleText(ctx, log, msg)
	case whatsapp.TypeInteractive:
		title, ok := msg.Interactive.SelectedTitle()
		if !ok {
			log.Info("interactive message ignored")
			return
		}
		if err := h.wa.SendText(ctx, msg.From, "You selected: "+title); err != nil {
			log.Error("failed to send selection ack", "err", err)
		}
	default:
		log.Info("unsupported message type, no reply")
	}
}

func (h *Handler) handleText(ctx context.Context, log *slog.Logger, msg whatsapp.Message) {
	text := strings.ToLower(msg.Text.Body)

	reply, err := h.answerer.Answer(ctx, text)
	if err != nil {
		log.Error("answer failed", "err", err, "kind", ai.ClassifyError(err))
		reply = ApologyText
	}

	if err := h.wa.ReplyText(ctx, msg.From, reply, msg.ID); err != nil {
		log.Error("failed to send reply", "err", err)
	}
}

func (h *Handler) alreadyHandled(log *slog.Logger, id string) bool {
	if h.ledger == nil || id == "" {
		return false
	}
	first, err := h.ledger.MarkHandled(id)
	if err != nil {
		// Prefer a possible duplicate over dropping the message.
		log.Warn("ledger unavailable, processing anyway", "err", err)
		return false
	}
	if !first {
		log.Info("duplicate delivery skipped")
	}
	return !first
}
