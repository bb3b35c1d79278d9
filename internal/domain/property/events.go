package property

import (
	"time"

	"staylane/internal/domain/shared/money"
)

type PropertyCreated struct {
	PropertyID   PropertyID  `json:"property_id"`
	Owner        OwnerID     `json:"owner_id"`
	NightlyPrice money.Money `json:"nightly_price"`
	At           time.Time   `json:"occurred_at"`
}

func (e PropertyCreated) EventName() string     { return "property.created" }
func (e PropertyCreated) AggregateID() string   { return string(e.PropertyID) }
func (e PropertyCreated) OccurredAt() time.Time { return e.At }

type PropertyRepriced struct {
	PropertyID PropertyID  `json:"property_id"`
	Previous   money.Money `json:"previous"`
	Current    money.Money `json:"current"`
	At         time.Time   `json:"occurred_at"`
}

func (e PropertyRepriced) EventName() string     { return "property.repriced" }
func (e PropertyRepriced) AggregateID() string   { return string(e.PropertyID) }
func (e PropertyRepriced) OccurredAt() time.Time { return e.At }
