package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gvitanovic/cqrs/contract"
	"github.com/gvitanovic/cqrs/domain"
	"github.com/gvitanovic/cqrs/domain/event"
	"github.com/gvitanovic/cqrs/eventlog"
	"github.com/gvitanovic/cqrs/mocks"
	"github.com/gvitanovic/cqrs/projection"
	"github.com/gvitanovic/cqrs/repositories"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func publishOrder(t *testing.T, log contract.Publisher, id, product string, quantity int) {
	t.Helper()
	evt := event.Event{Type: domain.CreateOrder, OrderID: domain.OrderID(id), Product: product, Quantity: quantity}
	bytes, err := event.Encode(evt)
	require.NoError(t, err)
	require.NoError(t, log.Publish(context.Background(), contract.Record{
		Topic: eventlog.DefaultTopic, Key: evt.Key(), Value: bytes,
	}))
}

func memoryConsumer(log *eventlog.MemoryLog) ConsumerFactory {
	return func() (contract.Consumer, error) {
		return log.Consumer(eventlog.DefaultTopic, eventlog.DefaultGroup), nil
	}
}

func TestProjector_AppliesAndCommits(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	memLog := eventlog.NewMemoryLog(4)
	orders := projection.NewOrders(log, repositories.NewInMemoryOrderRepository())

	var states []State
	var mu sync.Mutex
	projector := NewProjector(log, memoryConsumer(memLog), orders).
		OnStateChange(func(s State) {
			mu.Lock()
			defer mu.Unlock()
			states = append(states, s)
		})
	req.Equal(Connecting, projector.State())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- projector.Run(ctx) }()

	// When two orders are published, the second one twice for the same key
	publishOrder(t, memLog, "A", "widget", 1)
	publishOrder(t, memLog, "B", "pen", 3)
	publishOrder(t, memLog, "A", "widget", 5)

	// Then the read model eventually reflects the last write per key
	req.Eventually(func() bool {
		order, ok, _ := orders.Get("A")
		return ok && order.Quantity == 5 && orders.Applied() == 3
	}, time.Second, 5*time.Millisecond)
	req.Equal(Running, projector.State())

	// And every partition is committed up to its end
	req.Eventually(func() bool {
		var total int64
		for _, offset := range memLog.Committed(eventlog.DefaultTopic, eventlog.DefaultGroup) {
			total += offset
		}
		return total == 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	req.NoError(<-done)

	mu.Lock()
	defer mu.Unlock()
	req.Equal([]State{Connecting, Running}, states)
}

func TestProjector_UnreachableLogStaysConnecting(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	consumer := mocks.NewMockConsumer(ctrl)

	// Given a log that cannot be reached
	consumer.EXPECT().Ping(gomock.Any()).Return(fmt.Errorf("dial tcp: connection refused")).Times(1)
	consumer.EXPECT().Close().Times(1)

	orders := projection.NewOrders(slog.Default(), repositories.NewInMemoryOrderRepository())
	projector := NewProjector(slog.Default(), func() (contract.Consumer, error) { return consumer, nil }, orders)

	err := projector.Run(context.Background())
	req.ErrorContains(err, "connection refused")
	req.Equal(Connecting, projector.State())
}

func TestProjector_PollErrorSkipsCommit(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	consumer := mocks.NewMockConsumer(ctrl)

	consumer.EXPECT().Ping(gomock.Any()).Return(nil).Times(1)
	consumer.EXPECT().Poll(gomock.Any()).Return(nil, fmt.Errorf("broker gone")).Times(1)
	consumer.EXPECT().Commit(gomock.Any(), gomock.Any()).Times(0)
	consumer.EXPECT().Close().Times(1)

	orders := projection.NewOrders(slog.Default(), repositories.NewInMemoryOrderRepository())
	projector := NewProjector(slog.Default(), func() (contract.Consumer, error) { return consumer, nil }, orders)

	err := projector.Run(context.Background())
	req.ErrorContains(err, "broker gone")
}

func TestProjector_FactoryError(t *testing.T) {
	orders := projection.NewOrders(slog.Default(), repositories.NewInMemoryOrderRepository())
	projector := NewProjector(slog.Default(), func() (contract.Consumer, error) {
		return nil, fmt.Errorf("no brokers")
	}, orders)

	require.ErrorContains(t, projector.Run(context.Background()), "no brokers")
}

// flakyStore fails the first write only.
type flakyStore struct {
	*repositories.InMemoryOrderRepository
	failed atomic.Bool
}

func (f *flakyStore) Upsert(id domain.OrderID, order domain.Order) error {
	if f.failed.CompareAndSwap(false, true) {
		return fmt.Errorf("transient write failure")
	}
	return f.InMemoryOrderRepository.Upsert(id, order)
}

func TestProjector_RestartResumesFromCommittedOffset(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)
	memLog := eventlog.NewMemoryLog(1)
	store := &flakyStore{InMemoryOrderRepository: repositories.NewInMemoryOrderRepository()}
	orders := projection.NewOrders(log, store)
	projector := NewProjector(log, memoryConsumer(memLog), orders)

	publishOrder(t, memLog, "A", "widget", 1)
	publishOrder(t, memLog, "B", "pen", 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sup := NewSupervisor(log, 5*time.Millisecond)
	go sup.Add(projector).Run(ctx)

	// Then the failed batch is delivered again after the restart and fully applied
	req.Eventually(func() bool {
		all, _ := orders.All()
		return len(all) == 2
	}, time.Second, 5*time.Millisecond)
	req.Eventually(func() bool {
		return memLog.Committed(eventlog.DefaultTopic, eventlog.DefaultGroup)[0] == 2
	}, time.Second, 5*time.Millisecond)
}
