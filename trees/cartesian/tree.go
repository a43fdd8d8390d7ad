// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package cartesian

import (
	"github.com/dl-solarity/go-trees/backend/stock"
	"github.com/dl-solarity/go-trees/backend/stock/memory"
	"github.com/dl-solarity/go-trees/common"
)

// This package implements a Cartesian Merkle tree, an authenticated set of
// 32-byte keys. The tree is a treap: a binary search tree on the keys which
// is simultaneously a max-heap on per-node priorities derived from the keys
// by hashing. Since both the key order and the priorities are deterministic,
// the shape of the tree, and with it the root commitment, depends only on
// the set of contained keys, not on the order of insertions and removals.
//
// Every node carries a Merkle commitment of its subtree which is refreshed
// bottom-up after each structural change. Membership and non-membership of
// a key can be proven against the root commitment; see GetProof.
//
// Trees are not safe for concurrent mutation. Read operations may be
// performed in parallel as long as no mutation is in flight.

const (
	// ErrNotInitialized is returned by operations on a tree that has not
	// been initialized yet.
	ErrNotInitialized = common.ConstError("tree is not initialized")
	// ErrAlreadyInitialized is returned by a repeated initialization.
	ErrAlreadyInitialized = common.ConstError("tree is already initialized")
	// ErrInvalidProofSize is returned for a desired proof size of zero.
	ErrInvalidProofSize = common.ConstError("desired proof size must be positive")
	// ErrTreeNotEmpty is returned when hashers are replaced on a tree that
	// already contains nodes.
	ErrTreeNotEmpty = common.ConstError("tree is not empty")
	// ErrNilHasher is returned when a nil hash function is installed.
	ErrNilHasher = common.ConstError("hasher must not be nil")
	// ErrZeroKey is returned when the reserved all-zero key is inserted.
	ErrZeroKey = common.ConstError("the zero key is reserved")
	// ErrDuplicateKey is returned when an inserted key is already present.
	ErrDuplicateKey = common.ConstError("key already exists")
	// ErrKeyNotFound is returned when a removed key is not present.
	ErrKeyNotFound = common.ConstError("key does not exist")
	// ErrProofTooLarge is returned when a proof does not fit the desired
	// proof size.
	ErrProofTooLarge = common.ConstError("proof exceeds the desired proof size")
)

// Tree is a Cartesian Merkle tree over a node store. The zero value is not
// usable; trees are created with NewTree or NewInMemoryTree and must be
// initialized before the first mutation.
type Tree struct {
	store            stock.Stock[NodeId, Node]
	root             NodeId
	nodesCount       uint64
	deletedCount     uint64
	desiredProofSize uint32
	hash1            common.Hash1Func
	hash3            common.Hash3Func
	customHashers    bool
}

// NewTree creates a tree persisting its nodes in the given store. The store
// must be used by at most one tree; node ids are not meaningful across tree
// instances.
func NewTree(store stock.Stock[NodeId, Node]) *Tree {
	return &Tree{
		store: store,
		hash1: common.Keccak256Hash1,
		hash3: common.Keccak256Hash3,
	}
}

// NewInMemoryTree creates a tree backed by a volatile in-memory node store.
func NewInMemoryTree() *Tree {
	return NewTree(memory.OpenStock[NodeId, Node]())
}

// Initialize sets the default proof size and marks the tree as usable. It
// may be called exactly once per tree.
func (t *Tree) Initialize(desiredProofSize uint32) error {
	if t.desiredProofSize != 0 {
		return ErrAlreadyInitialized
	}
	if desiredProofSize == 0 {
		return ErrInvalidProofSize
	}
	t.desiredProofSize = desiredProofSize
	return nil
}

// SetDesiredProofSize changes the default sibling-array length used by
// GetProof when the caller does not request a specific size.
func (t *Tree) SetDesiredProofSize(desiredProofSize uint32) error {
	if t.desiredProofSize == 0 {
		return ErrNotInitialized
	}
	if desiredProofSize == 0 {
		return ErrInvalidProofSize
	}
	t.desiredProofSize = desiredProofSize
	return nil
}

// SetHashers installs custom hash functions. Both the priority derivation
// (hash1) and the commitment function (hash3) must be deterministic, and may
// only be replaced while the tree contains no nodes.
func (t *Tree) SetHashers(hash1 common.Hash1Func, hash3 common.Hash3Func) error {
	if t.NodesCount() != 0 {
		return ErrTreeNotEmpty
	}
	if hash1 == nil || hash3 == nil {
		return ErrNilHasher
	}
	t.hash1 = hash1
	t.hash3 = hash3
	t.customHashers = true
	return nil
}

// IsCustomHasherSet is true if the default hash functions were replaced.
func (t *Tree) IsCustomHasherSet() bool {
	return t.customHashers
}

// Add inserts the given key into the tree and refreshes the commitments on
// the insertion path. The all-zero key is reserved and rejected; inserting
// a present key fails with ErrDuplicateKey. On error the tree is unchanged.
func (t *Tree) Add(key common.Hash) error {
	if t.desiredProofSize == 0 {
		return ErrNotInitialized
	}
	if key.IsZero() {
		return ErrZeroKey
	}
	root, err := t.add(t.root, key)
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

// add inserts the key into the subtree rooted at the given node and returns
// the id of the new subtree root. Nothing is mutated until the insertion
// position has been located, so validation errors leave the tree intact.
func (t *Tree) add(id NodeId, key common.Hash) (NodeId, error) {
	if id.IsEmpty() {
		return t.newNode(key)
	}
	node, err := t.store.Get(id)
	if err != nil {
		return 0, err
	}
	if node.Key == key {
		return 0, ErrDuplicateKey
	}
	if key.Compare(node.Key) < 0 {
		child, err := t.add(node.ChildLeft, key)
		if err != nil {
			return 0, err
		}
		node.ChildLeft = child
		if err := t.store.Set(id, node); err != nil {
			return 0, err
		}
		childNode, err := t.store.Get(child)
		if err != nil {
			return 0, err
		}
		if node.Priority.Less(childNode.Priority) {
			if id, err = t.rotateRight(id); err != nil {
				return 0, err
			}
		}
	} else {
		child, err := t.add(node.ChildRight, key)
		if err != nil {
			return 0, err
		}
		node.ChildRight = child
		if err := t.store.Set(id, node); err != nil {
			return 0, err
		}
		childNode, err := t.store.Get(child)
		if err != nil {
			return 0, err
		}
		if node.Priority.Less(childNode.Priority) {
			if id, err = t.rotateLeft(id); err != nil {
				return 0, err
			}
		}
	}
	return id, t.updateHash(id)
}

// Remove deletes the given key from the tree, tombstones its node, and
// refreshes the commitments on the removal path. Removing from an empty
// tree is a silent no-op, mirroring the behavior of the EVM reference
// implementation; removing a key absent from a non-empty tree fails with
// ErrKeyNotFound.
func (t *Tree) Remove(key common.Hash) error {
	if t.desiredProofSize == 0 {
		return ErrNotInitialized
	}
	if t.root.IsEmpty() {
		return nil
	}
	root, err := t.remove(t.root, key)
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

func (t *Tree) remove(id NodeId, key common.Hash) (NodeId, error) {
	if id.IsEmpty() {
		return 0, ErrKeyNotFound
	}
	node, err := t.store.Get(id)
	if err != nil {
		return 0, err
	}
	cmp := key.Compare(node.Key)
	if cmp != 0 {
		child := node.ChildLeft
		if cmp > 0 {
			child = node.ChildRight
		}
		newChild, err := t.remove(child, key)
		if err != nil {
			return 0, err
		}
		if cmp < 0 {
			node.ChildLeft = newChild
		} else {
			node.ChildRight = newChild
		}
		if err := t.store.Set(id, node); err != nil {
			return 0, err
		}
		return id, t.updateHash(id)
	}

	// A node with at most one child is spliced out directly.
	if node.ChildLeft.IsEmpty() || node.ChildRight.IsEmpty() {
		child := node.ChildLeft
		if child.IsEmpty() {
			child = node.ChildRight
		}
		if err := t.store.Delete(id); err != nil {
			return 0, err
		}
		t.deletedCount++
		return child, nil
	}

	// Both children are present: the higher-priority child is rotated up to
	// keep the heap order among the surviving nodes, and the removal
	// continues in the subtree the node was pushed into.
	leftNode, err := t.store.Get(node.ChildLeft)
	if err != nil {
		return 0, err
	}
	rightNode, err := t.store.Get(node.ChildRight)
	if err != nil {
		return 0, err
	}
	var newRoot NodeId
	if rightNode.Priority.Less(leftNode.Priority) {
		newRoot, err = t.rotateRight(id)
	} else {
		newRoot, err = t.rotateLeft(id)
	}
	if err != nil {
		return 0, err
	}
	return t.remove(newRoot, key)
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

// GetNode retrieves the node with the given id. The zero node is returned
// for the empty id and for tombstoned nodes.
func (t *Tree) GetNode(id NodeId) (Node, error) {
	return t.store.Get(id)
}

// GetNodeByKey locates the node holding the given key in O(log n) expected
// steps. The second result is false if the key is not present.
func (t *Tree) GetNodeByKey(key common.Hash) (Node, bool, error) {
	id := t.root
	for !id.IsEmpty() {
		node, err := t.store.Get(id)
		if err != nil {
			return Node{}, false, err
		}
		cmp := key.Compare(node.Key)
		if cmp == 0 {
			return node, true, nil
		}
		if cmp < 0 {
			id = node.ChildLeft
		} else {
			id = node.ChildRight
		}
	}
	return Node{}, false, nil
}

// NodesCount returns the number of live nodes, i.e. the number of keys in
// the tree.
func (t *Tree) NodesCount() uint64 {
	return t.nodesCount - t.deletedCount
}

// DesiredProofSize returns the default sibling-array length of proofs.
func (t *Tree) DesiredProofSize() uint32 {
	return t.desiredProofSize
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

func (t *Tree) newNode(key common.Hash) (NodeId, error) {
	id, err := t.store.New()
	if err != nil {
		return 0, err
	}
	var priority Priority
	keyHash := t.hash1(key)
	copy(priority[:], keyHash[:16])
	node := Node{
		Key:        key,
		Priority:   priority,
		MerkleHash: t.hash3(key, common.Hash{}, common.Hash{}),
	}
	if err := t.store.Set(id, node); err != nil {
		return 0, err
	}
	t.nodesCount++
	return id, nil
}

// rotateRight promotes the left child of the given node to the root of the
// subtree. The demoted node's commitment is refreshed; refreshing the
// promoted node is left to the caller, which typically modifies it further.
func (t *Tree) rotateRight(id NodeId) (NodeId, error) {
	node, err := t.store.Get(id)
	if err != nil {
		return 0, err
	}
	promoted := node.ChildLeft
	promotedNode, err := t.store.Get(promoted)
	if err != nil {
		return 0, err
	}
	node.ChildLeft = promotedNode.ChildRight
	promotedNode.ChildRight = id
	if err := t.store.Set(id, node); err != nil {
		return 0, err
	}
	if err := t.store.Set(promoted, promotedNode); err != nil {
		return 0, err
	}
	return promoted, t.updateHash(id)
}

// rotateLeft promotes the right child of the given node, mirroring
// rotateRight.
func (t *Tree) rotateLeft(id NodeId) (NodeId, error) {
	node, err := t.store.Get(id)
	if err != nil {
		return 0, err
	}
	promoted := node.ChildRight
	promotedNode, err := t.store.Get(promoted)
	if err != nil {
		return 0, err
	}
	node.ChildRight = promotedNode.ChildLeft
	promotedNode.ChildLeft = id
	if err := t.store.Set(id, node); err != nil {
		return 0, err
	}
	if err := t.store.Set(promoted, promotedNode); err != nil {
		return 0, err
	}
	return promoted, t.updateHash(id)
}

// updateHash recomputes the Merkle commitment of the given node from the
// commitments of its children.
func (t *Tree) updateHash(id NodeId) error {
	node, err := t.store.Get(id)
	if err != nil {
		return err
	}
	left, err := t.hashOf(node.ChildLeft)
	if err != nil {
		return err
	}
	right, err := t.hashOf(node.ChildRight)
	if err != nil {
		return err
	}
	node.MerkleHash = hashNode(t.hash3, node.Key, left, right)
	return t.store.Set(id, node)
}

func (t *Tree) hashOf(id NodeId) (common.Hash, error) {
	if id.IsEmpty() {
		return common.Hash{}, nil
	}
	node, err := t.store.Get(id)
	if err != nil {
		return common.Hash{}, err
	}
	return node.MerkleHash, nil
}
