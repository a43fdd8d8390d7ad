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
	"errors"

	"github.com/dl-solarity/go-trees/common"
)

// Proof certifies that the disclosed leaf is stored at LeafIndex in an
// indexed Merkle tree with the given root. Siblings holds one positional
// entry per level of the hash tree. NextValue is the value the leaf points
// at and is part of the leaf commitment; verifiers use it to reason about
// the gap above the leaf value.
type Proof struct {
	Root      common.Hash
	Siblings  []common.Hash
	LeafIndex uint64
	Leaf      Leaf
	NextValue common.Hash
}

// NonMembershipProof certifies the absence of Value by disclosing its low
// leaf, whose gap to its successor contains the absent value.
type NonMembershipProof struct {
	Value   common.Hash
	LowLeaf Proof
}

// GetProof computes a Merkle proof for the leaf at the given index under
// the current root.
func (t *Tree) GetProof(leafIndex uint64) (Proof, error) {
	if t.height == 0 {
		return Proof{}, ErrNotInitialized
	}
	if leafIndex == 0 || leafIndex > t.leavesCount {
		return Proof{}, ErrLeafNotFound
	}
	leaf, err := t.store.Get(leafIndex)
	if err != nil {
		return Proof{}, err
	}
	nextValue, err := t.nextValue(leaf)
	if err != nil {
		return Proof{}, err
	}

	proof := Proof{
		Root:      t.Root(),
		Siblings:  make([]common.Hash, t.height),
		LeafIndex: leafIndex,
		Leaf:      leaf,
		NextValue: nextValue,
	}
	pos := leafIndex
	for level := uint32(0); level < t.height; level++ {
		proof.Siblings[level] = t.read(level, pos^1)
		pos /= 2
	}
	return proof, nil
}

// GetNonMembershipProof certifies that the given value is not contained in
// the tree. The low leaf must hold the largest contained value below the
// queried one, exactly as for Add; a leaf not certifying such a gap is
// rejected with ErrInvalidLowLeaf.
func (t *Tree) GetNonMembershipProof(value common.Hash, lowLeafIndex uint64) (NonMembershipProof, error) {
	proof, err := t.GetProof(lowLeafIndex)
	if err != nil {
		if errors.Is(err, ErrLeafNotFound) {
			return NonMembershipProof{}, ErrInvalidLowLeaf
		}
		return NonMembershipProof{}, err
	}
	if proof.Leaf.Value.Compare(value) >= 0 {
		return NonMembershipProof{}, ErrInvalidLowLeaf
	}
	if proof.Leaf.NextIndex != 0 && value.Compare(proof.NextValue) >= 0 {
		return NonMembershipProof{}, ErrInvalidLowLeaf
	}
	return NonMembershipProof{Value: value, LowLeaf: proof}, nil
}

// VerifyProof checks a proof against the root it carries. Passing nil
// hashers selects the keccak256 defaults; proofs of trees with custom
// hashers must be verified with the same functions.
func VerifyProof(proof Proof, hash2 common.Hash2Func, hash3 common.Hash3Func) bool {
	if hash2 == nil {
		hash2 = common.Keccak256Hash2
	}
	if hash3 == nil {
		hash3 = common.Keccak256Hash3
	}
	if proof.LeafIndex == 0 || proof.LeafIndex >= uint64(1)<<len(proof.Siblings) {
		return false
	}

	current := hash3(proof.Leaf.Value, common.HashFromUint64(proof.Leaf.NextIndex), proof.NextValue)
	pos := proof.LeafIndex
	for _, sibling := range proof.Siblings {
		if pos&1 == 1 {
			current = hash2(sibling, current)
		} else {
			current = hash2(current, sibling)
		}
		pos /= 2
	}
	return current == proof.Root
}

// VerifyNonMembershipProof checks that the disclosed low leaf is contained
// under the claimed root and that its gap covers the absent value.
func VerifyNonMembershipProof(proof NonMembershipProof, hash2 common.Hash2Func, hash3 common.Hash3Func) bool {
	if !VerifyProof(proof.LowLeaf, hash2, hash3) {
		return false
	}
	leaf := proof.LowLeaf.Leaf
	if leaf.Value.Compare(proof.Value) >= 0 {
		return false
	}
	return leaf.NextIndex == 0 || proof.Value.Compare(proof.LowLeaf.NextValue) < 0
}
