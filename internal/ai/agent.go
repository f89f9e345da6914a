package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// StoreReports provides the fixed-intent answers and the delegate context.
type StoreReports interface {
	TodaySales(ctx context.Context) string
	TopCustomers(ctx context.Context) string
	StoreContext(ctx context.Context) string
}

// Answerer resolves a chat message to reply text.
type Answerer struct {
	reports StoreReports
	llm     Completer
	refine  bool
	logger  *slog.Logger
}

func NewAnswerer(reports StoreReports, llm Completer, refine bool, logger *slog.Logger) *Answerer {
	return &Answerer{reports: reports, llm: llm, refine: refine, logger: logger}
}

// Answer classifies text and resolves it. Store failures are already folded
// into fixed sentences; only inference failures come back as errors.
func (a *Answerer) Answer(ctx context.Context, text string) (string, error) {
	intent := Classify(text)
	a.logger.Debug("classified message", "intent", intent.String())

	switch intent {
	case IntentSales:
		return a.reports.TodaySales(ctx), nil
	case IntentTopCustomers:
		return a.reports.TopCustomers(ctx), nil
	default:
		return a.Delegate(ctx, text)
	}
}

// Delegate asks the language model, then optionally runs the refine pass.
// A failed refine falls back to the raw answer.
func (a *Answerer) Delegate(ctx context.Context, question string) (string, error) {
	storeContext := a.reports.StoreContext(ctx)

	raw, err := a.complete(ctx, []Message{
		{Role: RoleSystem, Content: BuildSystemPrompt(storeContext)},
		{Role: RoleUser, Content: question},
	})
	if err != nil {
		return "", fmt.Errorf("ask: %w", err)
	}

	if !a.refine {
		return raw, nil
	}

	refined, err := a.complete(ctx, []Message{
		{Role: RoleSystem, Content: BuildRefinePrompt(question, raw)},
	})
	if err != nil {
		a.logger.Warn("refine failed, using raw answer", "err", err, "kind", ClassifyError(err))
		return raw, nil
	}
	return refined, nil
}

func (a *Answerer) complete(ctx context.Context, messages []Message) (string, error) {
	out, err := a.llm.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyAnswer
	}
	return out, nil
}
