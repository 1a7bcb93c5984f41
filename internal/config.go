package internal

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gvitanovic/cqrs/contract"
	"github.com/gvitanovic/cqrs/repositories"
	"github.com/samber/lo"
)

const (
	StoreMemory = "memory"
	StoreBadger = "badger"
)

// SplitList turns "kafka-1:9092, kafka-2:9092" into its non empty items.
func SplitList(list string) []string {
	return lo.Compact(lo.Map(strings.Split(list, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
}

// OpenOrderStore builds the read model store named by backend.
// The returned close function is never nil.
func OpenOrderStore(backend, badgerFilepath string, log *slog.Logger) (contract.OrderStore, func(), error) {
	switch backend {
	case StoreMemory, "":
		return repositories.NewInMemoryOrderRepository(), func() {}, nil
	case StoreBadger:
		db, err := badger.Open(badger.DefaultOptions(badgerFilepath).
			WithLoggingLevel(badger.WARNING))
		if err != nil {
			return nil, func() {}, fmt.Errorf("database opening failed: %w", err)
		}
		closeDB := func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}
		return repositories.NewOrderRepository(db, log), closeDB, nil
	}
	return nil, func() {}, fmt.Errorf("unknown store backend %q", backend)
}
