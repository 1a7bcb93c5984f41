package eventlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gvitanovic/cqrs/contract"
	"github.com/twmb/franz-go/pkg/kgo"
)

var ErrClientClosed = errors.New("kafka client closed")

type KafkaConfig struct {
	Brokers  []string
	ClientID string
	Topic    string
	Group    string
}

func (c KafkaConfig) withDefaults() KafkaConfig {
	if c.ClientID == "" {
		c.ClientID = DefaultClientID
	}
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.Group == "" {
		c.Group = DefaultGroup
	}
	return c
}

// KafkaPublisher produces with acks from all in-sync replicas.
// The record key drives the partitioner so one order always maps to one partition.
type KafkaPublisher struct {
	client *kgo.Client
	log    *slog.Logger
}

func NewKafkaPublisher(log *slog.Logger, config KafkaConfig) (*KafkaPublisher, error) {
	config = config.withDefaults()
	client, err := kgo.NewClient(
		kgo.SeedBrokers(config.Brokers...),
		kgo.ClientID(config.ClientID),
		kgo.DefaultProduceTopic(config.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordPartitioner(kgo.StickyKeyPartitioner(nil)),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return &KafkaPublisher{client: client, log: log}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, record contract.Record) error {
	result := p.client.ProduceSync(ctx, &kgo.Record{
		Topic: record.Topic,
		Key:   []byte(record.Key),
		Value: record.Value,
	})
	produced, err := result.First()
	if err != nil {
		return err
	}
	p.log.Debug("Record produced",
		"topic", produced.Topic, "partition", produced.Partition, "offset", produced.Offset)
	return nil
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}

type offsetKey struct {
	topic     string
	partition int32
	offset    int64
}

// KafkaConsumer joins a consumer group starting from the earliest offset
// when the group has no commits yet. Offsets are committed explicitly,
// after the records were applied.
type KafkaConsumer struct {
	client *kgo.Client
	log    *slog.Logger

	mu sync.Mutex
	// polled records waiting for Commit, kept to commit with their leader epoch
	pending map[offsetKey]*kgo.Record
}

func NewKafkaConsumer(log *slog.Logger, config KafkaConfig) (*KafkaConsumer, error) {
	config = config.withDefaults()
	client, err := kgo.NewClient(
		kgo.SeedBrokers(config.Brokers...),
		kgo.ClientID(config.ClientID),
		kgo.ConsumerGroup(config.Group),
		kgo.ConsumeTopics(config.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return &KafkaConsumer{
		client:  client,
		log:     log,
		pending: make(map[offsetKey]*kgo.Record),
	}, nil
}

func (c *KafkaConsumer) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

func (c *KafkaConsumer) Poll(ctx context.Context) ([]contract.Record, error) {
	fetches := c.client.PollFetches(ctx)
	if fetches.IsClientClosed() {
		return nil, ErrClientClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, fetchErr := range fetches.Errors() {
		// Partition level errors are retried by the client itself
		c.log.Warn("Fetch error",
			"topic", fetchErr.Topic, "partition", fetchErr.Partition, "error", fetchErr.Err)
	}

	var records []contract.Record
	c.mu.Lock()
	defer c.mu.Unlock()
	fetches.EachRecord(func(r *kgo.Record) {
		c.pending[offsetKey{r.Topic, r.Partition, r.Offset}] = r
		records = append(records, contract.Record{
			Topic:     r.Topic,
			Key:       string(r.Key),
			Value:     r.Value,
			Partition: r.Partition,
			Offset:    r.Offset,
		})
	})
	return records, nil
}

func (c *KafkaConsumer) Commit(ctx context.Context, records ...contract.Record) error {
	c.mu.Lock()
	toCommit := make([]*kgo.Record, 0, len(records))
	for _, r := range records {
		key := offsetKey{r.Topic, r.Partition, r.Offset}
		if polled, ok := c.pending[key]; ok {
			toCommit = append(toCommit, polled)
			delete(c.pending, key)
		}
	}
	c.mu.Unlock()

	if len(toCommit) == 0 {
		return nil
	}
	return c.client.CommitRecords(ctx, toCommit...)
}

func (c *KafkaConsumer) Close() {
	c.client.Close()
}
