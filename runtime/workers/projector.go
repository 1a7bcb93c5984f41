package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gvitanovic/cqrs/contract"
	"github.com/gvitanovic/cqrs/projection"
)

type State string

const (
	Connecting State = "CONNECTING"
	Running    State = "RUNNING"
)

// ConsumerFactory joins the consumer group. Called on every (re)start so
// that consumption resumes from the group's last committed offset.
type ConsumerFactory func() (contract.Consumer, error)

// Projector is the single writer of the read model.
// It polls the log, applies records in delivery order and commits them
// once applied. Any error ends Run and the supervisor restarts it.
type Projector struct {
	log       *slog.Logger
	connect   ConsumerFactory
	orders    *projection.Orders
	mu        sync.Mutex
	state     State
	listeners []func(State)
}

func NewProjector(log *slog.Logger, connect ConsumerFactory, orders *projection.Orders) *Projector {
	return &Projector{log: log, connect: connect, orders: orders, state: Connecting}
}

// OnStateChange registers fn to be called on every state transition.
func (p *Projector) OnStateChange(fn func(State)) *Projector {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
	return p
}

func (p *Projector) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Projector) setState(state State) {
	p.mu.Lock()
	p.state = state
	listeners := append([]func(State){}, p.listeners...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

func (p *Projector) Run(ctx context.Context) error {
	p.setState(Connecting)
	consumer, err := p.connect()
	if err != nil {
		return fmt.Errorf("join consumer group: %w", err)
	}
	defer consumer.Close()

	if err = consumer.Ping(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("reach event log: %w", err)
	}
	p.setState(Running)
	p.log.Info("Consumer connected and listening for commands...")

	for {
		records, err := consumer.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.log.Debug("Context done, stopping projector")
				return nil
			}
			return fmt.Errorf("poll: %w", err)
		}
		for _, record := range records {
			if err = p.orders.Consume(ctx, record); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
		if err = consumer.Commit(ctx, records...); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit: %w", err)
		}
	}
}
