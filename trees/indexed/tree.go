// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package indexed

import (
	"github.com/dl-solarity/go-trees/backend/stock"
	"github.com/dl-solarity/go-trees/backend/stock/memory"
	"github.com/dl-solarity/go-trees/common"
)

// This package implements an indexed Merkle tree, an append-only sorted
// linked list of values embedded as the bottom level of a fixed-height
// binary Merkle tree. Each leaf discloses the next larger value of the
// list, so the gap between a leaf and its successor certifies the absence
// of every value in between without any search over the tree.
//
// Insertions must name the low leaf, the leaf holding the largest value
// below the inserted one. The caller is expected to track or look up low
// leaves off-chain of this structure; the tree only validates the claim.
//
// Leaves are addressed by the dense ids of their store, which double as
// their positions in the hash tree. Position 0 is never allocated and
// serves as the null successor marker. No removal is offered.

// HeightHardCap bounds the height of the hash tree; a tree of height h
// holds at most 2^h-1 leaves.
const HeightHardCap = 32

const (
	// ErrNotInitialized is returned by operations on a tree that has not
	// been initialized yet.
	ErrNotInitialized = common.ConstError("tree is not initialized")
	// ErrAlreadyInitialized is returned by a repeated initialization.
	ErrAlreadyInitialized = common.ConstError("tree is already initialized")
	// ErrInvalidHeight is returned for a height of zero or beyond the hard
	// cap.
	ErrInvalidHeight = common.ConstError("height must be in (0, 32]")
	// ErrTreeNotEmpty is returned when hashers are replaced on a tree that
	// already contains elements.
	ErrTreeNotEmpty = common.ConstError("tree is not empty")
	// ErrNilHasher is returned when a nil hash function is installed.
	ErrNilHasher = common.ConstError("hasher must not be nil")
	// ErrInvalidLowLeaf is returned when the named low leaf does not
	// certify a gap containing the inserted value.
	ErrInvalidLowLeaf = common.ConstError("invalid low leaf")
	// ErrTreeIsFull is returned when the leaf capacity of the tree is
	// exhausted.
	ErrTreeIsFull = common.ConstError("tree is full")
	// ErrLeafNotFound is returned when a proof is requested for an
	// unallocated leaf index.
	ErrLeafNotFound = common.ConstError("leaf not found")
)

// Tree is an indexed Merkle tree over a leaf store. The zero value is not
// usable; trees are created with NewTree or NewInMemoryTree and must be
// initialized before the first insertion.
type Tree struct {
	store         stock.Stock[uint64, Leaf]
	leavesCount   uint64
	levels        [][]common.Hash
	height        uint32
	hash2         common.Hash2Func
	hash3         common.Hash3Func
	customHashers bool
}

// NewTree creates a tree persisting its leaves in the given store. The
// store must be fresh or previously used by an indexed tree of the same
// configuration.
func NewTree(store stock.Stock[uint64, Leaf]) *Tree {
	return &Tree{
		store: store,
		hash2: common.Keccak256Hash2,
		hash3: common.Keccak256Hash3,
	}
}

// NewInMemoryTree creates a tree backed by a volatile in-memory leaf store.
func NewInMemoryTree() *Tree {
	return NewTree(memory.OpenStock[uint64, Leaf]())
}

// Initialize fixes the height of the hash tree and plants the sentinel
// leaf holding the zero value, the permanent head of the sorted list. It
// may be called exactly once per tree.
func (t *Tree) Initialize(height uint32) error {
	if t.height != 0 {
		return ErrAlreadyInitialized
	}
	if height == 0 || height > HeightHardCap {
		return ErrInvalidHeight
	}
	t.height = height
	t.levels = make([][]common.Hash, height+1)

	id, err := t.store.New()
	if err != nil {
		return err
	}
	if err := t.store.Set(id, Leaf{}); err != nil {
		return err
	}
	t.leavesCount = 1
	return t.setLeafHash(id)
}

// SetHashers installs custom hash functions. Both must be deterministic,
// and they may only be replaced while the tree contains no elements beyond
// the sentinel leaf.
func (t *Tree) SetHashers(hash2 common.Hash2Func, hash3 common.Hash3Func) error {
	if t.leavesCount > 1 {
		return ErrTreeNotEmpty
	}
	if hash2 == nil || hash3 == nil {
		return ErrNilHasher
	}
	t.hash2 = hash2
	t.hash3 = hash3
	t.customHashers = true
	if t.leavesCount == 1 {
		return t.setLeafHash(1)
	}
	return nil
}

// IsCustomHasherSet is true if the default hash functions were replaced.
func (t *Tree) IsCustomHasherSet() bool {
	return t.customHashers
}

// Add inserts a value into the sorted list and returns the index of its
// new leaf. The low leaf must hold the largest contained value below the
// inserted one; the insertion is rejected with ErrInvalidLowLeaf if the
// named leaf does not certify such a gap. Equal values are rejected the
// same way, so the list stays strictly increasing.
func (t *Tree) Add(value common.Hash, lowLeafIndex uint64) (uint64, error) {
	if t.height == 0 {
		return 0, ErrNotInitialized
	}
	if lowLeafIndex == 0 || lowLeafIndex > t.leavesCount {
		return 0, ErrInvalidLowLeaf
	}
	low, err := t.store.Get(lowLeafIndex)
	if err != nil {
		return 0, err
	}
	if low.Value.Compare(value) >= 0 {
		return 0, ErrInvalidLowLeaf
	}
	if low.NextIndex != 0 {
		next, err := t.store.Get(low.NextIndex)
		if err != nil {
			return 0, err
		}
		if value.Compare(next.Value) >= 0 {
			return 0, ErrInvalidLowLeaf
		}
	}
	if t.leavesCount+1 >= uint64(1)<<t.height {
		return 0, ErrTreeIsFull
	}

	id, err := t.store.New()
	if err != nil {
		return 0, err
	}
	if err := t.store.Set(id, Leaf{Value: value, NextIndex: low.NextIndex}); err != nil {
		return 0, err
	}
	low.NextIndex = id
	if err := t.store.Set(lowLeafIndex, low); err != nil {
		return 0, err
	}
	t.leavesCount++

	if err := t.setLeafHash(id); err != nil {
		return 0, err
	}
	if err := t.setLeafHash(lowLeafIndex); err != nil {
		return 0, err
	}
	return id, nil
}

// Root returns the Merkle commitment of the whole tree, or the zero hash
// for an uninitialized tree.
func (t *Tree) Root() common.Hash {
	if t.height == 0 {
		return common.Hash{}
	}
	return t.read(t.height, 0)
}

// GetLeaf retrieves the leaf at the given index. The second result is
// false for unallocated indexes.
func (t *Tree) GetLeaf(index uint64) (Leaf, bool, error) {
	if index == 0 || index > t.leavesCount {
		return Leaf{}, false, nil
	}
	leaf, err := t.store.Get(index)
	if err != nil {
		return Leaf{}, false, err
	}
	return leaf, true, nil
}

// Height returns the height of the hash tree.
func (t *Tree) Height() uint32 {
	return t.height
}

// LeavesCount returns the number of allocated leaves, including the
// sentinel leaf.
func (t *Tree) LeavesCount() uint64 {
	return t.leavesCount
}

// Flush writes cached leaf data to the underlying store.
func (t *Tree) Flush() error {
	return t.store.Flush()
}

// Close flushes and closes the underlying store.
func (t *Tree) Close() error {
	return t.store.Close()
}

// ----------------------------------------------------------------------------
//                               Internals
// ----------------------------------------------------------------------------

// setLeafHash recomputes the commitment of the given leaf and of all its
// ancestors up to the root.
func (t *Tree) setLeafHash(index uint64) error {
	leaf, err := t.store.Get(index)
	if err != nil {
		return err
	}
	nextValue, err := t.nextValue(leaf)
	if err != nil {
		return err
	}
	t.write(0, index, t.hash3(leaf.Value, common.HashFromUint64(leaf.NextIndex), nextValue))

	pos := index
	for level := uint32(1); level <= t.height; level++ {
		pos /= 2
		t.write(level, pos, t.hash2(t.read(level-1, 2*pos), t.read(level-1, 2*pos+1)))
	}
	return nil
}

// nextValue resolves the value a leaf points at; the null successor of the
// largest value resolves to the zero hash.
func (t *Tree) nextValue(leaf Leaf) (common.Hash, error) {
	if leaf.NextIndex == 0 {
		return common.Hash{}, nil
	}
	next, err := t.store.Get(leaf.NextIndex)
	if err != nil {
		return common.Hash{}, err
	}
	return next.Value, nil
}

// read returns the node hash at the given level and position, with never
// written positions resolving to the zero hash.
func (t *Tree) read(level uint32, pos uint64) common.Hash {
	if pos >= uint64(len(t.levels[level])) {
		return common.Hash{}
	}
	return t.levels[level][pos]
}

func (t *Tree) write(level uint32, pos uint64, hash common.Hash) {
	for uint64(len(t.levels[level])) <= pos {
		t.levels[level] = append(t.levels[level], common.Hash{})
	}
	t.levels[level][pos] = hash
}
