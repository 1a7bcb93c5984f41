package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gvitanovic/cqrs/errors"
)

var validate = validator.New()

type CommandType string

const (
	CreateOrder CommandType = "CREATE_ORDER"
)

func (c CommandType) Known() bool {
	switch c {
	case CreateOrder:
		return true
	}
	return false
}

type Command interface {
	Type() CommandType
	EntityID() OrderID
}

// CreateOrderCommand carries the body of POST /create-order.
// Quantity is a pointer so that a missing field can be told apart from zero.
// Only presence is checked, a negative quantity goes through.
type CreateOrderCommand struct {
	OrderID  string `json:"orderId" validate:"required"`
	Product  string `json:"product" validate:"required"`
	Quantity *int   `json:"quantity" validate:"required"`
}

func (c CreateOrderCommand) Type() CommandType { return CreateOrder }

func (c CreateOrderCommand) EntityID() OrderID { return OrderID(c.OrderID) }

// Validate checks the required fields of a command before it is published.
func Validate(cmd Command) error {
	if cmd == nil || !cmd.Type().Known() {
		return errors.ErrUnknownCommand
	}
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrValidation, err)
	}
	return nil
}
