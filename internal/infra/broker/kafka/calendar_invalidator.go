package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"staylane/internal/app/policies"
)

// CalendarInvalidator drops cached calendars when another instance confirms
// or deletes a booking.
type CalendarInvalidator struct {
	Cache policies.CalendarCache
}

type bookingEnvelope struct {
	Type string `json:"type"`
	Data struct {
		PropertyID string `json:"property_id"`
	} `json:"data"`
}

func (h CalendarInvalidator) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt bookingEnvelope
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return fmt.Errorf("decode cloudevent: %w", err)
	}
	switch evt.Type {
	case "booking.payment_confirmed.v1", "booking.deleted.v1":
	default:
		return nil
	}
	if evt.Data.PropertyID == "" {
		return nil
	}
	return h.Cache.Invalidate(ctx, evt.Data.PropertyID)
}

var _ MessageHandler = CalendarInvalidator{}
