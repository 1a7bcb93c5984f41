//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"github.com/gvitanovic/cqrs/domain"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Record is one entry of the event log.
// Offset is only meaningful within its partition.
type Record struct {
	Topic     string
	Key       string
	Value     []byte
	Partition int32
	Offset    int64
}

// Publisher returns once the log acknowledged the record as durable.
type Publisher interface {
	Publish(ctx context.Context, record Record) error
	Close()
}

// Consumer belongs to a consumer group. Ping succeeds once the log is
// reachable. Poll blocks until records are available or ctx ends; Commit
// marks records as processed for the group.
type Consumer interface {
	Ping(ctx context.Context) error
	Poll(ctx context.Context) ([]Record, error)
	Commit(ctx context.Context, records ...Record) error
	Close()
}

// OrderStore holds the read model. Exactly one writer calls Upsert,
// Get and All may be called concurrently from any goroutine.
type OrderStore interface {
	Upsert(id domain.OrderID, order domain.Order) error
	Get(id domain.OrderID) (domain.Order, bool, error)
	All() (domain.ReadModel, error)
	Len() (int, error)
}

// OrderReader is the read side the query gateway depends on.
type OrderReader interface {
	Get(id domain.OrderID) (domain.Order, bool, error)
	All() (domain.ReadModel, error)
	Ready() bool
}
