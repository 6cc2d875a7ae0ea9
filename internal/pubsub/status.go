package pubsub

// Status is the outcome an inbound handler reports back to the broker.
type Status string

const (
	// StatusSuccess acknowledges the delivery.
	StatusSuccess Status = "SUCCESS"
	// StatusIgnored acknowledges an event the handler does not act on.
	StatusIgnored Status = "IGNORED"
	// StatusFailed requests a redelivery.
	StatusFailed Status = "FAILED"
	// StatusDrop tells the broker the message is permanently unprocessable
	// and must not be redelivered.
	StatusDrop Status = "DROP"
)

// Result is the JSON body returned to the broker after each delivery.
type Result struct {
	Status Status `json:"status"`
}
