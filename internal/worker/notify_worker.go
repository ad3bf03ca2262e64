// Package worker delivers ledger notifications out of process. Webhook
// delivery is best effort: a failed POST is logged and dropped, never
// surfaced back to the ingestion path.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cashflow/internal/amqp"
)

// NotifyWorker consumes queued notifications and forwards them to a
// configured webhook endpoint.
type NotifyWorker struct {
	webhookURL string
	client     *http.Client
}

func NewNotifyWorker(webhookURL string) *NotifyWorker {
	return &NotifyWorker{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// HandleMessage processes one queued notification. It always returns
// nil for delivery failures: notification loss is acceptable, redelivery
// storms are not.
func (w *NotifyWorker) HandleMessage(ctx context.Context, msg *amqp.Message) error {
	switch msg.Type {
	case amqp.TypeLedgerUpdated:
		slog.InfoContext(ctx, "Ledger updated",
			"inserted", msg.Inserted,
			"skipped", msg.Skipped)
	case amqp.TypeManualReview:
		slog.WarnContext(ctx, "Statement queued for manual review",
			"bytes", len(msg.RawText))
	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}

	w.deliver(ctx, msg)
	return nil
}

func (w *NotifyWorker) deliver(ctx context.Context, msg *amqp.Message) {
	if w.webhookURL == "" {
		return
	}

	body, err := msg.ToJSON()
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal webhook payload", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to build webhook request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "Webhook delivery failed", "error", err, "url", w.webhookURL)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		slog.WarnContext(ctx, "Webhook endpoint rejected notification",
			"status", resp.StatusCode,
			"url", w.webhookURL)
		return
	}

	slog.DebugContext(ctx, "Webhook delivered", "type", msg.Type, "url", w.webhookURL)
}
