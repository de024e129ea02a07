package services

import (
	"context"
	"log/slog"
)

// Notifier is the messaging collaborator. The services decide what to announce
// and to whom; delivery (chat platform, push, email) is the implementation's
// concern, including its retry policy.
type Notifier interface {
	Notify(ctx context.Context, competitorIDs []int, title, body string, metadata map[string]string) error
}

// SlogNotifier logs announcements instead of delivering them. Used as the
// default when no delivery channel is configured, and in tests.
type SlogNotifier struct {
	logger *slog.Logger
}

func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	return &SlogNotifier{logger: logger}
}

func (n *SlogNotifier) Notify(ctx context.Context, competitorIDs []int, title, body string, metadata map[string]string) error {
	n.logger.InfoContext(ctx, "notification",
		slog.Any("competitor_ids", competitorIDs),
		slog.String("title", title),
		slog.String("body", body),
		slog.Any("metadata", metadata),
	)
	return nil
}
