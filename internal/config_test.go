package internal

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/gvitanovic/cqrs/domain"
	"github.com/stretchr/testify/require"
)

func TestSplitList(t *testing.T) {
	req := require.New(t)
	req.Equal([]string{"kafka-1:9092", "kafka-2:9092"}, SplitList(" kafka-1:9092, ,kafka-2:9092 "))
	req.Empty(SplitList(""))
}

func TestOpenOrderStore(t *testing.T) {
	req := require.New(t)

	store, closeStore, err := OpenOrderStore(StoreMemory, "", slog.Default())
	req.NoError(err)
	req.NotNil(store)
	closeStore()

	store, closeStore, err = OpenOrderStore(StoreBadger, filepath.Join(t.TempDir(), "orders"), slog.Default())
	req.NoError(err)
	req.NoError(store.Upsert("o1", domain.Order{Product: "widget", Quantity: 1}))
	closeStore()

	_, closeStore, err = OpenOrderStore("postgres", "", slog.Default())
	req.Error(err)
	closeStore()
}
