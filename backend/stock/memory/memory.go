// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memory

import (
	"fmt"

	"github.com/dl-solarity/go-trees/backend/stock"
)

// inMemoryStock provides an in-memory implementation of the stock.Stock
// interface. Values are kept in a plain slice indexed by their id. Slot 0 is
// reserved for the null index and never handed out. Deleted slots are
// cleared but never reused.
type inMemoryStock[I stock.Index, V any] struct {
	values []V
}

// OpenStock creates an empty in-memory stock. It provides no durability;
// its content is lost when the process terminates.
func OpenStock[I stock.Index, V any]() stock.Stock[I, V] {
	var sentinel V
	return &inMemoryStock[I, V]{
		values: append(make([]V, 0, 16), sentinel),
	}
}

func (s *inMemoryStock[I, V]) New() (I, error) {
	var value V
	s.values = append(s.values, value)
	return I(len(s.values) - 1), nil
}

func (s *inMemoryStock[I, V]) Get(index I) (V, error) {
	var res V
	if index <= 0 || index >= I(len(s.values)) {
		return res, nil
	}
	return s.values[index], nil
}

func (s *inMemoryStock[I, V]) Set(index I, value V) error {
	if index <= 0 || index >= I(len(s.values)) {
		return fmt.Errorf("index out of range, got %d, range [1,%d)", index, len(s.values))
	}
	s.values[index] = value
	return nil
}

func (s *inMemoryStock[I, V]) Delete(index I) error {
	if index <= 0 || index >= I(len(s.values)) {
		return nil
	}
	var value V
	s.values[index] = value
	return nil
}

func (s *inMemoryStock[I, V]) Flush() error {
	return nil
}

func (s *inMemoryStock[I, V]) Close() error {
	return nil
}
