package paystack

import (
	"encoding/json"
	"errors"
	"fmt"
)

const EventChargeSuccess = "charge.success"

// Metadata is the reconciliation payload attached to a checkout session and
// echoed back inside the webhook event.
type Metadata struct {
	ServiceRequestID string `json:"serviceRequestId"`
	ProgressDelta    int    `json:"progressDelta"`
	AmountDue        int64  `json:"amountDue"`
}

// Event is the gateway's webhook envelope, typed at the boundary so metadata
// fields are validated before anything trusts them.
type Event struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

type EventData struct {
	Amount    int64    `json:"amount"`
	Reference string   `json:"reference"`
	Metadata  Metadata `json:"metadata"`
}

var ErrMalformedEvent = errors.New("malformed webhook event")

func ParseEvent(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedEvent)
	}
	return &ev, nil
}
