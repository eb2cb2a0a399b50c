package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/NousVietNam/WMSNOUS-sub003/internal/core"
)

// WebhookNotifier posts warehouse events to an external endpoint. Delivery
// is fire-and-forget: a slow or failing endpoint must never delay or fail
// the operation that produced the event.
type WebhookNotifier struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

func NewWebhookNotifier(url string, log *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		log:    log,
	}
}

type event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func (n *WebhookNotifier) JobAssigned(ctx context.Context, job core.PickingJob, taskCount int) {
	n.post("job_assigned", map[string]any{
		"job_id":     job.ID,
		"order_id":   job.OrderID,
		"task_count": taskCount,
	})
}

func (n *WebhookNotifier) ExceptionReported(ctx context.Context, exc core.Exception) {
	n.post("exception_reported", map[string]any{
		"exception_id":     exc.ID,
		"picking_task_id":  exc.TaskID,
		"quantity_missing": exc.QuantityMissing,
		"reason":           exc.Reason,
	})
}

func (n *WebhookNotifier) post(eventType string, payload map[string]any) {
	body, err := json.Marshal(event{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload})
	if err != nil {
		n.log.Error("failed to encode webhook event", zap.String("type", eventType), zap.Error(err))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			n.log.Error("failed to build webhook request", zap.String("type", eventType), zap.Error(err))
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			n.log.Warn("webhook delivery failed", zap.String("type", eventType), zap.Error(err))
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			n.log.Warn("webhook endpoint rejected event",
				zap.String("type", eventType),
				zap.String("status", fmt.Sprintf("%d", resp.StatusCode)))
		}
	}()
}

// NopNotifier discards all events. Used when no webhook URL is configured
// and in tests.
type NopNotifier struct{}

func (NopNotifier) JobAssigned(ctx context.Context, job core.PickingJob, taskCount int) {}

func (NopNotifier) ExceptionReported(ctx context.Context, exc core.Exception) {}
