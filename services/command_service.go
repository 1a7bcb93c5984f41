package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gvitanovic/cqrs/contract"
	"github.com/gvitanovic/cqrs/domain"
	"github.com/gvitanovic/cqrs/domain/event"
	"github.com/gvitanovic/cqrs/errors"
)

type ICommandService interface {
	Submit(ctx context.Context, cmd domain.Command) (Ack, error)
}

// Ack confirms the log accepted the event. The read model may not reflect it yet.
type Ack struct {
	EventID string
	OrderID domain.OrderID
}

// PublishPolicy bounds the time a caller waits for the log.
// Timeout applies to every attempt, MaxRetries counts attempts after the first.
type PublishPolicy struct {
	Timeout         time.Duration
	MaxRetries      uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

type CommandService struct {
	log       *slog.Logger
	publisher contract.Publisher
	topic     string
	policy    PublishPolicy
	now       func() time.Time
}

func NewCommandService(log *slog.Logger, publisher contract.Publisher, topic string, policy PublishPolicy) *CommandService {
	return &CommandService{log: log, publisher: publisher, topic: topic, policy: policy, now: time.Now}
}

// Submit validates cmd, turns it into an event keyed by its entity and
// publishes it. It holds no state of its own.
func (s *CommandService) Submit(ctx context.Context, cmd domain.Command) (Ack, error) {
	if err := domain.Validate(cmd); err != nil {
		return Ack{}, err
	}
	evt, err := s.toEvent(cmd)
	if err != nil {
		return Ack{}, err
	}
	bytes, err := event.Encode(evt)
	if err != nil {
		return Ack{}, fmt.Errorf("encode event: %w", err)
	}
	record := contract.Record{Topic: s.topic, Key: evt.Key(), Value: bytes}

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, s.publish(ctx, record)
	},
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(s.policy.MaxRetries+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.log.Warn("Publish failed, retrying", "order_id", evt.OrderID, "error", err, "in", next)
		}),
	)
	if err != nil {
		s.log.Error("Publish failed", "order_id", evt.OrderID, "error", err)
		return Ack{}, fmt.Errorf("%w: %w", errors.ErrPublishFailed, err)
	}

	s.log.Debug("Command published", "type", evt.Type, "order_id", evt.OrderID, "event_id", evt.ID)
	return Ack{EventID: evt.ID, OrderID: evt.OrderID}, nil
}

func (s *CommandService) publish(ctx context.Context, record contract.Record) error {
	if s.policy.Timeout <= 0 {
		return s.publisher.Publish(ctx, record)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, s.policy.Timeout)
	defer cancel()
	return s.publisher.Publish(attemptCtx, record)
}

func (s *CommandService) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if s.policy.InitialInterval > 0 {
		b.InitialInterval = s.policy.InitialInterval
	}
	if s.policy.MaxInterval > 0 {
		b.MaxInterval = s.policy.MaxInterval
	}
	return b
}

func (s *CommandService) toEvent(cmd domain.Command) (event.Event, error) {
	switch c := cmd.(type) {
	case domain.CreateOrderCommand:
		return event.NewCreateOrder(c, s.now()), nil
	case *domain.CreateOrderCommand:
		return event.NewCreateOrder(*c, s.now()), nil
	}
	return event.Event{}, fmt.Errorf("%w: %s", errors.ErrUnknownCommand, cmd.Type())
}
