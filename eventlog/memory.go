package eventlog

import (
	"context"
	"fmt"
	"sync"

	"github.com/gvitanovic/cqrs/contract"
)

const defaultMaxPollRecords = 100

// MemoryLog is an in-process partitioned log with consumer group offsets.
// Delivery is at-least-once: records polled but not committed are handed
// out again to the next consumer joining the same group.
type MemoryLog struct {
	mu             sync.Mutex
	partitions     int32
	maxPollRecords int
	topics         map[string]*memoryTopic
	// closed and replaced on every publish to wake up pollers
	changed chan struct{}
}

type memoryTopic struct {
	partitions [][]contract.Record
	committed  map[string][]int64
	delivered  map[string][]int64
}

func NewMemoryLog(partitions int32) *MemoryLog {
	if partitions < 1 {
		partitions = 1
	}
	return &MemoryLog{
		partitions:     partitions,
		maxPollRecords: defaultMaxPollRecords,
		topics:         make(map[string]*memoryTopic),
		changed:        make(chan struct{}),
	}
}

// WithMaxPollRecords bounds the number of records returned by a single Poll.
func (l *MemoryLog) WithMaxPollRecords(n int) *MemoryLog {
	if n > 0 {
		l.maxPollRecords = n
	}
	return l
}

func (l *MemoryLog) topic(name string) *memoryTopic {
	t, ok := l.topics[name]
	if !ok {
		t = &memoryTopic{
			partitions: make([][]contract.Record, l.partitions),
			committed:  make(map[string][]int64),
			delivered:  make(map[string][]int64),
		}
		l.topics[name] = t
	}
	return t
}

func (t *memoryTopic) cursor(group string) []int64 {
	if _, ok := t.committed[group]; !ok {
		t.committed[group] = make([]int64, len(t.partitions))
		t.delivered[group] = make([]int64, len(t.partitions))
	}
	return t.delivered[group]
}

// Publish appends the record to the partition of its key.
// The record is durable for the lifetime of the log as soon as it returns.
func (l *MemoryLog) Publish(ctx context.Context, record contract.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.Topic == "" {
		return fmt.Errorf("record without topic")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.topic(record.Topic)
	record.Partition = PartitionFor(record.Key, l.partitions)
	record.Offset = int64(len(t.partitions[record.Partition]))
	t.partitions[record.Partition] = append(t.partitions[record.Partition], record)

	close(l.changed)
	l.changed = make(chan struct{})
	return nil
}

func (l *MemoryLog) Close() {}

// Consumer joins group on topic and resumes from the group's committed
// offsets. One live consumer per group is expected.
func (l *MemoryLog) Consumer(topic, group string) *MemoryConsumer {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := l.topic(topic)
	t.cursor(group)
	copy(t.delivered[group], t.committed[group])
	return &MemoryConsumer{log: l, topic: topic, group: group}
}

// Committed returns the next offset to consume for each partition.
func (l *MemoryLog) Committed(topic, group string) []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := l.topic(topic)
	t.cursor(group)
	return append([]int64(nil), t.committed[group]...)
}

type MemoryConsumer struct {
	log   *MemoryLog
	topic string
	group string
}

func (c *MemoryConsumer) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (c *MemoryConsumer) Poll(ctx context.Context) ([]contract.Record, error) {
	for {
		records, changed := c.next()
		if len(records) > 0 {
			return records, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// next drains partitions in order, keeping each partition's offsets ordered.
func (c *MemoryConsumer) next() ([]contract.Record, chan struct{}) {
	c.log.mu.Lock()
	defer c.log.mu.Unlock()

	t := c.log.topic(c.topic)
	delivered := t.cursor(c.group)
	var records []contract.Record
	for p, partition := range t.partitions {
		for delivered[p] < int64(len(partition)) && len(records) < c.log.maxPollRecords {
			records = append(records, partition[delivered[p]])
			delivered[p]++
		}
	}
	return records, c.log.changed
}

func (c *MemoryConsumer) Commit(ctx context.Context, records ...contract.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.log.mu.Lock()
	defer c.log.mu.Unlock()

	committed := c.log.topic(c.topic).committed[c.group]
	for _, r := range records {
		if r.Offset+1 > committed[r.Partition] {
			committed[r.Partition] = r.Offset + 1
		}
	}
	return nil
}

func (c *MemoryConsumer) Close() {}
