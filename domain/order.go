// Package domain contains core concepts of the order system.
// Orders are only ever written by the projection, never by queries.
package domain

import "maps"

type OrderID string

// Order is the folded state of a single entity in the read model.
type Order struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// ReadModel maps every known order to its current state.
type ReadModel map[OrderID]Order

// Clone returns a copy safe to hand out to readers.
func (r ReadModel) Clone() ReadModel {
	if r == nil {
		return ReadModel{}
	}
	return maps.Clone(r)
}
