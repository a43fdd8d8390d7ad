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
	"github.com/dl-solarity/go-trees/common"
)

// Proof certifies the presence or absence of a key in a tree with a given
// root commitment.
//
// The Siblings array lists, from the root towards the key position, pairs of
// (visited node key, commitment of the subtree not taken), followed by one
// terminal pair holding the two child commitments of the last visited node.
// For a membership proof the last visited node is the node holding the key;
// for a non-membership proof it is the node at which the search hit an empty
// child, and its key is disclosed as NonExistenceKey. Since the key of that
// node differs from the queried key while occupying its search position, no
// node with the queried key can exist anywhere in the tree.
//
// Siblings is allocated at the desired proof size; only the first
// SiblingsLength entries are populated.
type Proof struct {
	Root            common.Hash
	Siblings        []common.Hash
	SiblingsLength  int
	Existence       bool
	Key             common.Hash
	NonExistenceKey common.Hash
}

// GetProof produces a membership or non-membership proof for the given key.
// A desiredProofSize of 0 requests the tree's default. If the proof entries
// would exceed the requested size, ErrProofTooLarge is returned.
func (t *Tree) GetProof(key common.Hash, desiredProofSize uint32) (Proof, error) {
	if t.desiredProofSize == 0 {
		return Proof{}, ErrNotInitialized
	}
	size := int(desiredProofSize)
	if size == 0 {
		size = int(t.desiredProofSize)
	}

	root, err := t.Root()
	if err != nil {
		return Proof{}, err
	}
	proof := Proof{
		Root:     root,
		Siblings: make([]common.Hash, size),
		Key:      key,
	}

	length := 0
	id := t.root
	for !id.IsEmpty() {
		node, err := t.store.Get(id)
		if err != nil {
			return Proof{}, err
		}
		if length+2 > size {
			return Proof{}, ErrProofTooLarge
		}

		if node.Key == key {
			left, right, err := t.childHashes(node)
			if err != nil {
				return Proof{}, err
			}
			proof.Siblings[length] = left
			proof.Siblings[length+1] = right
			length += 2
			proof.Existence = true
			break
		}

		next, other := node.ChildLeft, node.ChildRight
		if key.Compare(node.Key) > 0 {
			next, other = node.ChildRight, node.ChildLeft
		}
		if next.IsEmpty() {
			left, right, err := t.childHashes(node)
			if err != nil {
				return Proof{}, err
			}
			proof.Siblings[length] = left
			proof.Siblings[length+1] = right
			length += 2
			proof.NonExistenceKey = node.Key
			break
		}

		otherHash, err := t.hashOf(other)
		if err != nil {
			return Proof{}, err
		}
		proof.Siblings[length] = node.Key
		proof.Siblings[length+1] = otherHash
		length += 2
		id = next
	}
	proof.SiblingsLength = length
	return proof, nil
}

func (t *Tree) childHashes(node Node) (common.Hash, common.Hash, error) {
	left, err := t.hashOf(node.ChildLeft)
	if err != nil {
		return common.Hash{}, common.Hash{}, err
	}
	right, err := t.hashOf(node.ChildRight)
	if err != nil {
		return common.Hash{}, common.Hash{}, err
	}
	return left, right, nil
}

// VerifyProof recomputes the root commitment from the given proof and
// compares it against the proof's root. A nil hash3 selects the default
// hasher. The caller is expected to compare proof.Root against a trusted
// commitment and proof.Key against the queried key.
func VerifyProof(proof Proof, hash3 common.Hash3Func) bool {
	if hash3 == nil {
		hash3 = common.Keccak256Hash3
	}
	length := proof.SiblingsLength
	if length == 0 {
		// Only the empty tree produces an empty proof.
		return !proof.Existence && proof.Root.IsZero()
	}
	if length%2 != 0 || length > len(proof.Siblings) {
		return false
	}

	key := proof.Key
	if !proof.Existence {
		key = proof.NonExistenceKey
		if key == proof.Key {
			return false
		}
	}

	computed := hashNode(hash3, key, proof.Siblings[length-2], proof.Siblings[length-1])
	for i := length - 4; i >= 0; i -= 2 {
		computed = hashNode(hash3, proof.Siblings[i], computed, proof.Siblings[i+1])
	}
	return computed == proof.Root
}

func hashNode(hash3 common.Hash3Func, key, a, b common.Hash) common.Hash {
	if b.Compare(a) < 0 {
		a, b = b, a
	}
	return hash3(key, a, b)
}
