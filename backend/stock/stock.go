// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package stock

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/exp/constraints"
)

//go:generate mockgen -source stock.go -destination stock_mocks.go -package stock -exclude_interfaces Index

// Stock is a collection of fixed-sized values, each associated to a unique,
// Stock-controlled index serving as an identifier.
//
// Stocks mirror a persistent version of a memory-management system: indexes
// are pointers referencing memory locations, while values are the objects
// stored in those memory locations. The Stock interface's `New` operation is
// the allocation function and the `Delete` method the free function. The
// `Get` function corresponds to pointer dereferencing.
//
// Unlike a general-purpose allocator, a Stock hands out indexes in a dense,
// monotonically increasing sequence starting at 1 and never reuses an index
// after it has been deleted. Index 0 is reserved by all implementations as
// the null index, allowing clients to use it as an "absent" sentinel. The
// authenticated trees built on top rely on this discipline: a node id
// observed once always refers to the same node or to a tombstone, never to a
// recycled slot.
//
// I ... the type used to address values in the stock (=index space)
// V ... the type of values stored in the stock
type Stock[I Index, V any] interface {
	// New allocates an index for a new value to be maintained in the Stock.
	// The returned index is one larger than the previously returned index,
	// starting at 1. Index 0 is never returned.
	New() (I, error)

	// Get retrieves the value associated to an index. For index 0, deleted
	// indexes, and indexes that have never been allocated, the zero value is
	// returned. The life-cycle of indexes is expected to be managed by the
	// client code.
	Get(I) (V, error)

	// Set updates the value associated to the given index. The given index
	// must be alive, created through a New call on the same Stock and not
	// deleted since.
	Set(I, V) error

	// Delete tombstones the value associated to the given index. The slot is
	// cleared, but the index is not recycled; future New calls continue the
	// monotone sequence. Deleting the same index twice is a no-op.
	Delete(I) error

	// Flush writes any cached state to the underlying resources, if any.
	Flush() error

	// Close flushes and releases the underlying resources. No operation may
	// be performed on a closed Stock.
	Close() error
}

// Index defines the type constraints on Stock index types.
type Index interface {
	constraints.Integer
}

// EncodeIndex encodes an index into a binary form to be persisted.
func EncodeIndex[I Index](index I, trg []byte) {
	switch unsafe.Sizeof(index) {
	case 1:
		trg[0] = byte(index)
	case 2:
		binary.BigEndian.PutUint16(trg, uint16(index))
	case 4:
		binary.BigEndian.PutUint32(trg, uint32(index))
	case 8:
		fallthrough
	default:
		binary.BigEndian.PutUint64(trg, uint64(index))
	}
}

// DecodeIndex decodes an index value from its persistent binary form.
func DecodeIndex[I Index](src []byte) I {
	var index I
	switch unsafe.Sizeof(index) {
	case 1:
		return I(src[0])
	case 2:
		return I(binary.BigEndian.Uint16(src))
	case 4:
		return I(binary.BigEndian.Uint32(src))
	case 8:
		fallthrough
	default:
		return I(binary.BigEndian.Uint64(src))
	}
}

// ValueEncoder is a utility interface for handling the marshaling of values
// within stock instances. Each value is expected to be encoded into a fixed-
// sized byte array.
type ValueEncoder[V any] interface {
	// The number of bytes required for encoding the value.
	GetEncodedSize() int
	// Store encodes the given value into the given byte slice.
	Store([]byte, *V) error
	// Load restores the value encoded in the given byte slice.
	Load([]byte, *V) error
}
