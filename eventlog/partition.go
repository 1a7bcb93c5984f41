// Package eventlog connects the gateways and the projection to the event log.
// Records sharing a key always land on the same partition, which is the only
// ordering the projection relies on.
package eventlog

import "github.com/cespare/xxhash/v2"

const (
	DefaultTopic    = "orders-commands"
	DefaultGroup    = "cqrs-group"
	DefaultClientID = "cqrs-app"
)

// PartitionFor maps a key onto one of n partitions.
func PartitionFor(key string, n int32) int32 {
	if n <= 1 {
		return 0
	}
	return int32(xxhash.Sum64String(key) % uint64(n))
}
