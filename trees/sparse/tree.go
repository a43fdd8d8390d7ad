// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package sparse

import (
	"fmt"

	"github.com/dl-solarity/go-trees/backend/stock"
	"github.com/dl-solarity/go-trees/backend/stock/memory"
	"github.com/dl-solarity/go-trees/common"
)

// This package implements a sparse Merkle tree, an authenticated map from
// 32-byte indexes to 32-byte values. The tree is a binary trie over the bit
// representation of the index: bit i of the index, starting at the least
// significant bit, selects the left (0) or right (1) child at depth i. All
// absent subtrees share the implicit zero commitment, which keeps the stored
// tree proportional to the number of contained leaves rather than to the key
// space.
//
// Unlike the Cartesian tree, adding a value for an existing index is not an
// error but an in-place update; the sparse tree models an updatable map,
// not a set. No removal is offered; structural nodes are never deleted.
//
// Trees are not safe for concurrent mutation. Read operations may be
// performed in parallel as long as no mutation is in flight.

// MaxDepthHardCap is the number of bits in an index and therefore the
// largest admissible maximum depth.
const MaxDepthHardCap = 256

const (
	// ErrNotInitialized is returned by operations on a tree that has not
	// been initialized yet.
	ErrNotInitialized = common.ConstError("tree is not initialized")
	// ErrAlreadyInitialized is returned by a repeated initialization.
	ErrAlreadyInitialized = common.ConstError("tree is already initialized")
	// ErrInvalidDepth is returned for a maximum depth of zero or beyond the
	// hard cap.
	ErrInvalidDepth = common.ConstError("maximum depth must be in (0, 256]")
	// ErrDepthCanOnlyIncrease is returned when the maximum depth is lowered.
	ErrDepthCanOnlyIncrease = common.ConstError("maximum depth can only increase")
	// ErrDepthExceedsHardCap is returned when the maximum depth exceeds the
	// number of index bits.
	ErrDepthExceedsHardCap = common.ConstError("maximum depth exceeds 256")
	// ErrTreeNotEmpty is returned when hashers are replaced on a tree that
	// already contains nodes.
	ErrTreeNotEmpty = common.ConstError("tree is not empty")
	// ErrNilHasher is returned when a nil hash function is installed.
	ErrNilHasher = common.ConstError("hasher must not be nil")
	// ErrMaxDepthReached is returned when two leaves do not diverge within
	// the maximum depth.
	ErrMaxDepthReached = common.ConstError("maximum depth reached")
)

// Tree is a sparse Merkle tree over a node store. The zero value is not
// usable; trees are created with NewTree or NewInMemoryTree and must be
// initialized before the first mutation.
type Tree struct {
	store         stock.Stock[NodeId, Node]
	root          NodeId
	nodesCount    uint64
	maxDepth      uint32
	hash2         common.Hash2Func
	hash3         common.Hash3Func
	customHashers bool
}

// NewTree creates a tree persisting its nodes in the given store. The store
// must be used by at most one tree; node ids are not meaningful across tree
// instances.
func NewTree(store stock.Stock[NodeId, Node]) *Tree {
	return &Tree{
		store: store,
		hash2: common.Keccak256Hash2,
		hash3: common.Keccak256Hash3,
	}
}

// NewInMemoryTree creates a tree backed by a volatile in-memory node store.
func NewInMemoryTree() *Tree {
	return NewTree(memory.OpenStock[NodeId, Node]())
}

// Initialize sets the maximum depth and marks the tree as usable. It may be
// called exactly once per tree.
func (t *Tree) Initialize(maxDepth uint32) error {
	if t.maxDepth != 0 {
		return ErrAlreadyInitialized
	}
	if maxDepth == 0 || maxDepth > MaxDepthHardCap {
		return ErrInvalidDepth
	}
	t.maxDepth = maxDepth
	return nil
}

// SetMaxDepth raises the maximum depth of the tree. The depth may never
// shrink, since contained leaves may already sit on paths of the current
// length.
func (t *Tree) SetMaxDepth(maxDepth uint32) error {
	if t.maxDepth == 0 {
		return ErrNotInitialized
	}
	if maxDepth <= t.maxDepth {
		return ErrDepthCanOnlyIncrease
	}
	if maxDepth > MaxDepthHardCap {
		return ErrDepthExceedsHardCap
	}
	t.maxDepth = maxDepth
	return nil
}

// SetHashers installs custom hash functions. Both must be deterministic,
// and they may only be replaced while the tree contains no nodes.
func (t *Tree) SetHashers(hash2 common.Hash2Func, hash3 common.Hash3Func) error {
	if t.nodesCount != 0 {
		return ErrTreeNotEmpty
	}
	if hash2 == nil || hash3 == nil {
		return ErrNilHasher
	}
	t.hash2 = hash2
	t.hash3 = hash3
	t.customHashers = true
	return nil
}

// IsCustomHasherSet is true if the default hash functions were replaced.
func (t *Tree) IsCustomHasherSet() bool {
	return t.customHashers
}

// Add associates the given value with the given index and refreshes the
// commitments on the affected path. Adding to a present index overwrites
// its value in place. If the new index does not diverge from an existing
// leaf within the maximum depth, ErrMaxDepthReached is returned and the
// tree is unchanged.
func (t *Tree) Add(index, value common.Hash) error {
	if t.maxDepth == 0 {
		return ErrNotInitialized
	}
	root, err := t.add(t.root, index, value, 0)
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

func (t *Tree) add(id NodeId, index, value common.Hash, depth uint32) (NodeId, error) {
	node, err := t.store.Get(id)
	if err != nil {
		return 0, err
	}
	switch node.Type {
	case Empty:
		return t.newLeaf(index, value)
	case Leaf:
		if node.Key == index {
			node.Value = value
			node.NodeHash = t.leafHash(index, value)
			return id, t.store.Set(id, node)
		}
		return t.pushLeaf(id, node, index, value, depth)
	case Middle:
		if bit(index, depth) == 1 {
			child, err := t.add(node.ChildRight, index, value, depth+1)
			if err != nil {
				return 0, err
			}
			node.ChildRight = child
		} else {
			child, err := t.add(node.ChildLeft, index, value, depth+1)
			if err != nil {
				return 0, err
			}
			node.ChildLeft = child
		}
		if err := t.store.Set(id, node); err != nil {
			return 0, err
		}
		return id, t.updateHash(id)
	}
	return 0, fmt.Errorf("corrupted node store, unknown node type %v", node.Type)
}

// pushLeaf sinks an existing leaf and a new leaf down the trie until their
// bit paths diverge, materializing middle nodes along the shared prefix.
// Nothing is mutated before the divergence point has been found, so a depth
// overflow leaves the tree intact.
func (t *Tree) pushLeaf(oldId NodeId, oldLeaf Node, index, value common.Hash, depth uint32) (NodeId, error) {
	if depth >= t.maxDepth {
		return 0, ErrMaxDepthReached
	}
	oldBit := bit(oldLeaf.Key, depth)
	newBit := bit(index, depth)
	if oldBit == newBit {
		child, err := t.pushLeaf(oldId, oldLeaf, index, value, depth+1)
		if err != nil {
			return 0, err
		}
		if newBit == 1 {
			return t.newMiddle(EmptyId(), child)
		}
		return t.newMiddle(child, EmptyId())
	}
	newLeafId, err := t.newLeaf(index, value)
	if err != nil {
		return 0, err
	}
	if newBit == 1 {
		return t.newMiddle(oldId, newLeafId)
	}
	return t.newMiddle(newLeafId, oldId)
}

// Root returns the Merkle commitment of the whole tree, or the zero hash
// for an empty tree.
func (t *Tree) Root() (common.Hash, error) {
	return t.hashOf(t.root)
}

// RootId returns the id of the current root node, or the empty id for an
// empty tree.
func (t *Tree) RootId() NodeId {
	return t.root
}

// GetNode retrieves the node with the given id.
func (t *Tree) GetNode(id NodeId) (Node, error) {
	return t.store.Get(id)
}

// GetNodeByIndex locates the leaf holding the given index in O(depth)
// steps. The second result is false if the index is not present.
func (t *Tree) GetNodeByIndex(index common.Hash) (Node, bool, error) {
	id := t.root
	for depth := uint32(0); ; depth++ {
		node, err := t.store.Get(id)
		if err != nil {
			return Node{}, false, err
		}
		switch node.Type {
		case Empty:
			return Node{}, false, nil
		case Leaf:
			if node.Key == index {
				return node, true, nil
			}
			return Node{}, false, nil
		case Middle:
			if bit(index, depth) == 1 {
				id = node.ChildRight
			} else {
				id = node.ChildLeft
			}
		default:
			return Node{}, false, fmt.Errorf("corrupted node store, unknown node type %v", node.Type)
		}
	}
}

// MaxDepth returns the current maximum depth of the tree.
func (t *Tree) MaxDepth() uint32 {
	return t.maxDepth
}

// NodesCount returns the number of stored nodes, including the middle
// nodes materialized on shared bit prefixes.
func (t *Tree) NodesCount() uint64 {
	return t.nodesCount
}

// Flush writes cached node data to the underlying store.
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

func (t *Tree) newLeaf(index, value common.Hash) (NodeId, error) {
	id, err := t.store.New()
	if err != nil {
		return 0, err
	}
	node := Node{
		Type:     Leaf,
		Key:      index,
		Value:    value,
		NodeHash: t.leafHash(index, value),
	}
	if err := t.store.Set(id, node); err != nil {
		return 0, err
	}
	t.nodesCount++
	return id, nil
}

func (t *Tree) newMiddle(left, right NodeId) (NodeId, error) {
	id, err := t.store.New()
	if err != nil {
		return 0, err
	}
	leftHash, err := t.hashOf(left)
	if err != nil {
		return 0, err
	}
	rightHash, err := t.hashOf(right)
	if err != nil {
		return 0, err
	}
	node := Node{
		Type:       Middle,
		ChildLeft:  left,
		ChildRight: right,
		NodeHash:   t.hash2(leftHash, rightHash),
	}
	if err := t.store.Set(id, node); err != nil {
		return 0, err
	}
	t.nodesCount++
	return id, nil
}

// updateHash recomputes the commitment of the given middle node from the
// commitments of its children.
func (t *Tree) updateHash(id NodeId) error {
	node, err := t.store.Get(id)
	if err != nil {
		return err
	}
	leftHash, err := t.hashOf(node.ChildLeft)
	if err != nil {
		return err
	}
	rightHash, err := t.hashOf(node.ChildRight)
	if err != nil {
		return err
	}
	node.NodeHash = t.hash2(leftHash, rightHash)
	return t.store.Set(id, node)
}

// leafHash computes hash3(index, value, 1); the constant separates leaf
// commitments from middle commitments.
func (t *Tree) leafHash(index, value common.Hash) common.Hash {
	return t.hash3(index, value, common.HashFromUint64(1))
}

func (t *Tree) hashOf(id NodeId) (common.Hash, error) {
	if id.IsEmpty() {
		return common.Hash{}, nil
	}
	node, err := t.store.Get(id)
	if err != nil {
		return common.Hash{}, err
	}
	return node.NodeHash, nil
}

// bit extracts the depth-th bit of the index, starting at the least
// significant bit of the big-endian 32-byte value.
func bit(index common.Hash, depth uint32) byte {
	return (index[31-depth/8] >> (depth % 8)) & 1
}
