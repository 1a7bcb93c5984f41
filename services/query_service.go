package services

import (
	"fmt"

	"github.com/gvitanovic/cqrs/contract"
	"github.com/gvitanovic/cqrs/domain"
	"github.com/gvitanovic/cqrs/errors"
)

type IQueryService interface {
	Get(id domain.OrderID) (domain.Order, error)
	GetAll() (domain.ReadModel, error)
	Ready() bool
}

// QueryService only ever reads the projection's current state, so results
// are eventually consistent with the commands accepted so far.
type QueryService struct {
	reader contract.OrderReader
}

func NewQueryService(reader contract.OrderReader) *QueryService {
	return &QueryService{reader: reader}
}

func (s *QueryService) Get(id domain.OrderID) (domain.Order, error) {
	order, ok, err := s.reader.Get(id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("read order %s: %w", id, err)
	}
	if !ok {
		return domain.Order{}, errors.ErrNotFound
	}
	return order, nil
}

// GetAll returns ErrEmpty when no order was projected yet. That signal
// cannot tell an empty store from a projection still catching up, Ready
// is the way to know the latter.
func (s *QueryService) GetAll() (domain.ReadModel, error) {
	all, err := s.reader.All()
	if err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}
	if len(all) == 0 {
		return nil, errors.ErrEmpty
	}
	return all, nil
}

func (s *QueryService) Ready() bool {
	return s.reader.Ready()
}
