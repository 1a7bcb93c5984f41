// Package projection folds the command events of the log into the order read model.
// It is the only writer of the read model and never talks back to the command side.
package projection

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gvitanovic/cqrs/contract"
	"github.com/gvitanovic/cqrs/domain"
	"github.com/gvitanovic/cqrs/domain/event"
)

// Apply folds one event into state and returns the new state.
// state is never mutated. Unknown event types return state as is.
func Apply(state domain.ReadModel, evt event.Event) domain.ReadModel {
	order, ok := fold(evt)
	if !ok {
		return state
	}
	next := state.Clone()
	next[evt.OrderID] = order
	return next
}

// fold gives the entry an event writes at evt.OrderID.
// CREATE_ORDER overwrites whatever was there, ordering comes from the log.
func fold(evt event.Event) (domain.Order, bool) {
	switch evt.Type {
	case domain.CreateOrder:
		return domain.Order{Product: evt.Product, Quantity: evt.Quantity}, true
	}
	return domain.Order{}, false
}

// Orders applies records to an injected store.
// Consume must be called from a single goroutine; reads are safe from any.
type Orders struct {
	log     *slog.Logger
	store   contract.OrderStore
	applied atomic.Uint64
	skipped atomic.Uint64
	ready   atomic.Bool
}

func NewOrders(log *slog.Logger, store contract.OrderStore) *Orders {
	return &Orders{log: log, store: store}
}

// Consume applies a single record. Malformed records and unknown types are
// logged and skipped; a store failure or a done ctx is returned, leaving the
// record uncommitted so that it is delivered again.
func (o *Orders) Consume(ctx context.Context, record contract.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	evt, err := event.Decode(record.Value)
	if err != nil {
		o.skipped.Add(1)
		o.log.Warn("Skipping malformed event",
			"partition", record.Partition, "offset", record.Offset, "error", err)
		return nil
	}
	order, ok := fold(evt)
	if !ok {
		o.skipped.Add(1)
		o.log.Info("Ignoring unknown event type",
			"type", evt.Type, "partition", record.Partition, "offset", record.Offset)
		return nil
	}
	if err = o.store.Upsert(evt.OrderID, order); err != nil {
		return fmt.Errorf("upsert order %s: %w", evt.OrderID, err)
	}
	o.applied.Add(1)
	o.log.Info(fmt.Sprintf("Order created: %s", evt.OrderID), "event_id", evt.ID)
	return nil
}

func (o *Orders) Get(id domain.OrderID) (domain.Order, bool, error) {
	return o.store.Get(id)
}

func (o *Orders) All() (domain.ReadModel, error) {
	return o.store.All()
}

// Len counts entries without loading them.
func (o *Orders) Len() (int, error) {
	return o.store.Len()
}

// Ready reports whether the subscription reached RUNNING.
func (o *Orders) Ready() bool {
	return o.ready.Load()
}

func (o *Orders) SetReady(ready bool) {
	o.ready.Store(ready)
}

func (o *Orders) Applied() uint64 { return o.applied.Load() }

func (o *Orders) Skipped() uint64 { return o.skipped.Load() }
