package repositories

import (
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gvitanovic/cqrs/domain"
)

const orderPrefix = "order:"

// OrderRepository is the durable read model, so that a restarted
// projection serves its last state before catching up with the log.
type OrderRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewOrderRepository(db *badger.DB, log *slog.Logger) OrderRepository {
	return OrderRepository{db: db, log: log}
}

func orderKey(id domain.OrderID) []byte {
	return []byte(orderPrefix + string(id))
}

// Upsert overwrites the order unconditionally, last write wins.
func (o OrderRepository) Upsert(id domain.OrderID, order domain.Order) error {
	bytes, err := encMode.Marshal(fromOrder(order))
	if err != nil {
		return err
	}
	return o.db.Update(func(txn *badger.Txn) error {
		return txn.Set(orderKey(id), bytes)
	})
}

func (o OrderRepository) Get(id domain.OrderID) (domain.Order, bool, error) {
	var order domain.Order
	err := o.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(orderKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			order, err = decodeOrder(val)
			return err
		})
	})
	switch {
	case err == badger.ErrKeyNotFound:
		return domain.Order{}, false, nil
	case err != nil:
		return domain.Order{}, false, err
	}
	return order, true, nil
}

// All reads every order inside a single read transaction, so the result
// is a consistent snapshot even while the projection keeps writing.
func (o OrderRepository) All() (domain.ReadModel, error) {
	model := domain.ReadModel{}
	err := o.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(orderPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id := domain.OrderID(strings.TrimPrefix(string(item.Key()), orderPrefix))
			err := item.Value(func(val []byte) error {
				order, err := decodeOrder(val)
				if err != nil {
					return err
				}
				model[id] = order
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return model, nil
}

func (o OrderRepository) Len() (int, error) {
	count := 0
	err := o.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		prefix := []byte(orderPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func decodeOrder(val []byte) (domain.Order, error) {
	var d diskOrder
	if err := decMode.Unmarshal(val, &d); err != nil {
		return domain.Order{}, err
	}
	return toOrder(d), nil
}

func fromOrder(order domain.Order) diskOrder {
	return diskOrder{Product: order.Product, Quantity: int64(order.Quantity)}
}

func toOrder(d diskOrder) domain.Order {
	return domain.Order{Product: d.Product, Quantity: int(d.Quantity)}
}
