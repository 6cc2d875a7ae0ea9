package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"remindflow/internal/domain"
)

// Topics names the bus topics the pipeline publishes to.
type Topics struct {
	TaskEvents  string
	Reminders   string
	TaskUpdates string
}

// Publisher ships domain events to the broker sidecar over HTTP. Publishing
// is fire-and-forget: a failed publish is logged and dropped, never retried,
// and callers do not block task mutations on it.
type Publisher struct {
	baseURL    string
	pubsubName string
	topics     Topics
	client     *http.Client
}

func NewPublisher(baseURL, pubsubName string, topics Topics) *Publisher {
	return &Publisher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		pubsubName: pubsubName,
		topics:     topics,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Publish merges correlation_id and published_at into the payload and POSTs
// it to the sidecar's publish endpoint. True means the sidecar accepted it
// (200 or 204).
func (p *Publisher) Publish(ctx context.Context, topic string, payload map[string]any, correlationID string) bool {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	payload["correlation_id"] = correlationID
	payload["published_at"] = time.Now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("marshal event payload")
		return false
	}

	url := fmt.Sprintf("%s/v1.0/publish/%s/%s", p.baseURL, p.pubsubName, topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("build publish request")
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("traceparent", traceparent(correlationID))

	resp, err := p.client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Str("correlation_id", correlationID).Msg("publish failed")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		log.Error().Int("status", resp.StatusCode).Str("topic", topic).Str("correlation_id", correlationID).Msg("publish rejected")
		return false
	}

	log.Debug().Str("topic", topic).Str("correlation_id", correlationID).Msg("event published")
	return true
}

// PublishTaskEvent emits a task lifecycle event on the task-events topic.
func (p *Publisher) PublishTaskEvent(ctx context.Context, evt domain.TaskEvent) bool {
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	return p.Publish(ctx, p.topics.TaskEvents, toMap(evt), evt.CorrelationID)
}

// PublishReminder emits a reminder event on the reminders topic.
func (p *Publisher) PublishReminder(ctx context.Context, evt domain.ReminderEvent) bool {
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	return p.Publish(ctx, p.topics.Reminders, toMap(evt), "")
}

// PublishTaskUpdate emits a sync event describing changed fields.
func (p *Publisher) PublishTaskUpdate(ctx context.Context, evt domain.TaskUpdateEvent) bool {
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	return p.Publish(ctx, p.topics.TaskUpdates, toMap(evt), "")
}

// toMap round-trips a typed event through JSON so Publish can merge the
// correlation fields in.
func toMap(v any) map[string]any {
	b, _ := json.Marshal(v)
	m := map[string]any{}
	_ = json.Unmarshal(b, &m)
	return m
}

// traceparent derives a W3C trace context header from the correlation id:
// the uuid's 32 hex digits become the trace id, the span id is fresh.
func traceparent(correlationID string) string {
	traceID := strings.ReplaceAll(correlationID, "-", "")
	if len(traceID) != 32 {
		traceID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	spanID := strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	return fmt.Sprintf("00-%s-%s-01", traceID, spanID)
}
