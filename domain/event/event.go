// Package event defines the command events written to the log and their wire format.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gvitanovic/cqrs/domain"
	"github.com/gvitanovic/cqrs/errors"
)

// Event is the immutable envelope published for every accepted command.
// The JSON shape is flat: {"type","orderId","product","quantity"}.
// eventId and at are optional and absent from older producers.
type Event struct {
	ID       string             `json:"eventId,omitempty"`
	Type     domain.CommandType `json:"type"`
	OrderID  domain.OrderID     `json:"orderId"`
	Product  string             `json:"product"`
	Quantity int                `json:"quantity"`
	At       time.Time          `json:"at,omitzero"`
}

func NewCreateOrder(cmd domain.CreateOrderCommand, at time.Time) Event {
	quantity := 0
	if cmd.Quantity != nil {
		quantity = *cmd.Quantity
	}
	return Event{
		ID:       uuid.NewString(),
		Type:     domain.CreateOrder,
		OrderID:  cmd.EntityID(),
		Product:  cmd.Product,
		Quantity: quantity,
		At:       at.UTC(),
	}
}

// Key is the partition key, so that all events of one order stay ordered.
func (e Event) Key() string {
	return string(e.OrderID)
}

func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses a record value. Unknown types decode fine and are left
// to the fold to ignore; a known type missing its entity id does not.
func Decode(value []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(value, &e); err != nil {
		return Event{}, fmt.Errorf("%w: %w", errors.ErrDecode, err)
	}
	if e.Type.Known() && e.OrderID == "" {
		return Event{}, fmt.Errorf("%w: %s without orderId", errors.ErrDecode, e.Type)
	}
	return e, nil
}
