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

	"github.com/dl-solarity/go-trees/common"
)

// Proof certifies the presence or absence of an index in a sparse Merkle
// tree with a given root. Siblings holds one entry per depth level, padded
// with zero hashes below the depth at which the queried path ends.
//
// Three outcomes are possible. If Existence is set, Index is contained with
// Value. Otherwise, if AuxExistence is set, the path of the queried index
// is occupied by a different leaf, disclosed as AuxIndex and AuxValue.
// Otherwise the path ends in an empty subtree and no auxiliary leaf is
// disclosed.
type Proof struct {
	Root         common.Hash
	Siblings     []common.Hash
	Existence    bool
	Index        common.Hash
	Value        common.Hash
	AuxExistence bool
	AuxIndex     common.Hash
	AuxValue     common.Hash
}

// GetProof computes a Merkle proof of the presence or absence of the given
// index under the current root. The siblings array always has MaxDepth
// entries so that proofs of one tree are interchangeable in size.
func (t *Tree) GetProof(index common.Hash) (Proof, error) {
	if t.maxDepth == 0 {
		return Proof{}, ErrNotInitialized
	}
	root, err := t.hashOf(t.root)
	if err != nil {
		return Proof{}, err
	}
	proof := Proof{
		Root:     root,
		Siblings: make([]common.Hash, t.maxDepth),
		Index:    index,
	}

	id := t.root
	for depth := uint32(0); ; depth++ {
		node, err := t.store.Get(id)
		if err != nil {
			return Proof{}, err
		}
		switch node.Type {
		case Empty:
			return proof, nil
		case Leaf:
			if node.Key == index {
				proof.Existence = true
				proof.Value = node.Value
			} else {
				proof.AuxExistence = true
				proof.AuxIndex = node.Key
				proof.AuxValue = node.Value
			}
			return proof, nil
		case Middle:
			var sibling NodeId
			if bit(index, depth) == 1 {
				sibling, id = node.ChildLeft, node.ChildRight
			} else {
				sibling, id = node.ChildRight, node.ChildLeft
			}
			siblingHash, err := t.hashOf(sibling)
			if err != nil {
				return Proof{}, err
			}
			proof.Siblings[depth] = siblingHash
		default:
			return Proof{}, fmt.Errorf("corrupted node store, unknown node type %v", node.Type)
		}
	}
}

// VerifyProof checks a proof against the root it carries. Passing nil
// hashers selects the keccak256 defaults; proofs of trees with custom
// hashers must be verified with the same functions.
//
// The depth of the proven path is recovered from the siblings array: the
// parent of any leaf, and of any empty path end, always has a non-empty
// second child, so the deepest non-zero sibling marks the last middle node
// on the path.
func VerifyProof(proof Proof, hash2 common.Hash2Func, hash3 common.Hash3Func) bool {
	if hash2 == nil {
		hash2 = common.Keccak256Hash2
	}
	if hash3 == nil {
		hash3 = common.Keccak256Hash3
	}

	var current common.Hash
	switch {
	case proof.Existence:
		current = hash3(proof.Index, proof.Value, common.HashFromUint64(1))
	case proof.AuxExistence:
		if proof.AuxIndex == proof.Index {
			return false
		}
		current = hash3(proof.AuxIndex, proof.AuxValue, common.HashFromUint64(1))
	default:
		// The queried path ends in an empty subtree.
		current = common.Hash{}
	}

	depth := 0
	for i := len(proof.Siblings) - 1; i >= 0; i-- {
		if !proof.Siblings[i].IsZero() {
			depth = i + 1
			break
		}
	}
	if depth > MaxDepthHardCap {
		return false
	}

	for i := depth - 1; i >= 0; i-- {
		if bit(proof.Index, uint32(i)) == 1 {
			current = hash2(proof.Siblings[i], current)
		} else {
			current = hash2(current, proof.Siblings[i])
		}
	}
	return current == proof.Root
}
