package repositories

import (
	"sync"

	"github.com/gvitanovic/cqrs/domain"
)

// InMemoryOrderRepository keeps the read model in a map guarded by a
// RWMutex. Orders are values, a reader never sees a half written entry.
type InMemoryOrderRepository struct {
	mu     sync.RWMutex
	orders domain.ReadModel
}

func NewInMemoryOrderRepository() *InMemoryOrderRepository {
	return &InMemoryOrderRepository{orders: domain.ReadModel{}}
}

func (m *InMemoryOrderRepository) Upsert(id domain.OrderID, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[id] = order
	return nil
}

func (m *InMemoryOrderRepository) Get(id domain.OrderID) (domain.Order, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	order, ok := m.orders[id]
	return order, ok, nil
}

func (m *InMemoryOrderRepository) All() (domain.ReadModel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orders.Clone(), nil
}

func (m *InMemoryOrderRepository) Len() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders), nil
}
