package pubsub

import (
	"encoding/json"
	"fmt"
)

// Envelope is the CloudEvents wrapper the broker sidecar may put around a
// delivered event.
type Envelope struct {
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	SpecVersion     string          `json:"specversion"`
	Type            string          `json:"type"`
	DataContentType string          `json:"datacontenttype,omitempty"`
	Data            json.RawMessage `json:"data"`
	Time            string          `json:"time,omitempty"`
	TraceParent     string          `json:"traceparent,omitempty"`
}

// Subscription is one topic binding advertised to the broker on
// GET /dapr/subscribe.
type Subscription struct {
	PubsubName string `json:"pubsubname"`
	Topic      string `json:"topic"`
	Route      string `json:"route"`
}

// Normalize strips an optional CloudEvents envelope: when the body carries a
// specversion and a data payload, the payload is returned; otherwise the body
// is taken as the raw event. Downstream handlers never branch on wire format.
func Normalize(body []byte) ([]byte, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode event body: %w", err)
	}
	if env.SpecVersion != "" && len(env.Data) > 0 {
		return env.Data, nil
	}
	return body, nil
}
