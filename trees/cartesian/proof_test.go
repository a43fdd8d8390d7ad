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
	"errors"
	"testing"

	"github.com/dl-solarity/go-trees/common"
)

func TestGetProof_MembershipProofsVerify(t *testing.T) {
	keys := make([]common.Hash, 0, 50)
	for i := 0; i < 50; i++ {
		keys = append(keys, common.Keccak256Hash1(common.HashFromUint64(uint64(i))))
	}
	tree := buildTree(t, keys)
	root, err := tree.Root()
	if err != nil {
		t.Fatalf("failed to get root: %v", err)
	}

	for _, key := range keys {
		proof, err := tree.GetProof(key, 0)
		if err != nil {
			t.Fatalf("failed to get proof for %v: %v", key, err)
		}
		if !proof.Existence {
			t.Fatalf("present key %v reported as absent", key)
		}
		if proof.Key != key {
			t.Errorf("proof for wrong key, got %v, wanted %v", proof.Key, key)
		}
		if proof.Root != root {
			t.Errorf("proof against wrong root, got %v, wanted %v", proof.Root, root)
		}
		if !VerifyProof(proof, nil) {
			t.Errorf("membership proof for %v does not verify", key)
		}
	}
}

func TestGetProof_NonMembershipProofsVerify(t *testing.T) {
	keys := make([]common.Hash, 0, 50)
	for i := 0; i < 50; i++ {
		keys = append(keys, common.Keccak256Hash1(common.HashFromUint64(uint64(i))))
	}
	tree := buildTree(t, keys)

	for i := 50; i < 100; i++ {
		key := common.Keccak256Hash1(common.HashFromUint64(uint64(i)))
		proof, err := tree.GetProof(key, 0)
		if err != nil {
			t.Fatalf("failed to get proof for %v: %v", key, err)
		}
		if proof.Existence {
			t.Fatalf("absent key %v reported as present", key)
		}
		if proof.NonExistenceKey == key || proof.NonExistenceKey.IsZero() {
			t.Errorf("invalid non-existence key %v for query %v", proof.NonExistenceKey, key)
		}
		if !VerifyProof(proof, nil) {
			t.Errorf("non-membership proof for %v does not verify", key)
		}
	}
}

func TestGetProof_EmptyTree(t *testing.T) {
	tree := NewInMemoryTree()
	if err := tree.Initialize(10); err != nil {
		t.Fatalf("failed to initialize tree: %v", err)
	}
	proof, err := tree.GetProof(common.HashFromUint64(1), 0)
	if err != nil {
		t.Fatalf("failed to get proof: %v", err)
	}
	if proof.Existence {
		t.Errorf("key reported as present in an empty tree")
	}
	if proof.SiblingsLength != 0 {
		t.Errorf("unexpected proof length, got %d, wanted 0", proof.SiblingsLength)
	}
	if !proof.Root.IsZero() {
		t.Errorf("unexpected root for empty tree, got %v", proof.Root)
	}
	if !VerifyProof(proof, nil) {
		t.Errorf("empty-tree proof does not verify")
	}
}

func TestGetProof_RespectsDesiredProofSize(t *testing.T) {
	keys := make([]common.Hash, 0, 64)
	for i := 0; i < 64; i++ {
		keys = append(keys, common.Keccak256Hash1(common.HashFromUint64(uint64(i))))
	}
	tree := buildTree(t, keys)

	// The default size of 64 entries fits every proof of this tree.
	proof, err := tree.GetProof(keys[0], 0)
	if err != nil {
		t.Fatalf("failed to get proof: %v", err)
	}
	if got, want := len(proof.Siblings), 64; got != want {
		t.Errorf("unexpected sibling array length, got %d, wanted %d", got, want)
	}

	// A deep key cannot be proven with two entries in a 64-key tree.
	deepest := keys[0]
	depth := 0
	for _, key := range keys {
		proof, err := tree.GetProof(key, 0)
		if err != nil {
			t.Fatalf("failed to get proof: %v", err)
		}
		if proof.SiblingsLength > depth {
			depth = proof.SiblingsLength
			deepest = key
		}
	}
	if depth <= 2 {
		t.Fatalf("unexpectedly shallow tree, deepest proof has %d entries", depth)
	}
	if _, err := tree.GetProof(deepest, 2); !errors.Is(err, ErrProofTooLarge) {
		t.Errorf("expected %v, got %v", ErrProofTooLarge, err)
	}
}

func TestGetProof_AfterRemovalProofsTrackTheNewRoot(t *testing.T) {
	keys := make([]common.Hash, 0, 20)
	for i := 0; i < 20; i++ {
		keys = append(keys, common.Keccak256Hash1(common.HashFromUint64(uint64(i))))
	}
	tree := buildTree(t, keys)
	removed := keys[7]
	if err := tree.Remove(removed); err != nil {
		t.Fatalf("failed to remove key: %v", err)
	}
	root, err := tree.Root()
	if err != nil {
		t.Fatalf("failed to get root: %v", err)
	}

	proof, err := tree.GetProof(removed, 0)
	if err != nil {
		t.Fatalf("failed to get proof: %v", err)
	}
	if proof.Existence {
		t.Errorf("removed key still reported as present")
	}
	if proof.Root != root {
		t.Errorf("proof against stale root, got %v, wanted %v", proof.Root, root)
	}
	if !VerifyProof(proof, nil) {
		t.Errorf("non-membership proof for removed key does not verify")
	}

	for _, key := range keys {
		if key == removed {
			continue
		}
		proof, err := tree.GetProof(key, 0)
		if err != nil {
			t.Fatalf("failed to get proof: %v", err)
		}
		if !proof.Existence || !VerifyProof(proof, nil) {
			t.Errorf("membership proof for %v broken after removal", key)
		}
	}
}

func TestVerifyProof_RejectsTamperedProofs(t *testing.T) {
	keys := make([]common.Hash, 0, 16)
	for i := 0; i < 16; i++ {
		keys = append(keys, common.Keccak256Hash1(common.HashFromUint64(uint64(i))))
	}
	tree := buildTree(t, keys)
	proof, err := tree.GetProof(keys[3], 0)
	if err != nil {
		t.Fatalf("failed to get proof: %v", err)
	}
	if !VerifyProof(proof, nil) {
		t.Fatalf("untampered proof does not verify")
	}

	tampered := proof
	tampered.Siblings = append([]common.Hash{}, proof.Siblings...)
	tampered.Siblings[0][0] ^= 1
	if VerifyProof(tampered, nil) {
		t.Errorf("proof with modified sibling verifies")
	}

	tampered = proof
	tampered.Root[0] ^= 1
	if VerifyProof(tampered, nil) {
		t.Errorf("proof with modified root verifies")
	}

	tampered = proof
	tampered.Key = common.HashFromUint64(9999)
	if VerifyProof(tampered, nil) {
		t.Errorf("proof with substituted key verifies")
	}

	// Claiming non-existence of a present key fails because the disclosed
	// non-existence key must differ from the queried key.
	tampered = proof
	tampered.Existence = false
	tampered.NonExistenceKey = proof.Key
	if VerifyProof(tampered, nil) {
		t.Errorf("proof with flipped existence flag verifies")
	}
}

func TestVerifyProof_UsesProvidedHasher(t *testing.T) {
	reversed := func(a, b, c common.Hash) common.Hash {
		return common.Keccak256Hash3(c, b, a)
	}
	tree := NewInMemoryTree()
	if err := tree.Initialize(10); err != nil {
		t.Fatalf("failed to initialize tree: %v", err)
	}
	if err := tree.SetHashers(common.Keccak256Hash1, reversed); err != nil {
		t.Fatalf("failed to set hashers: %v", err)
	}
	for i := uint64(1); i <= 8; i++ {
		if err := tree.Add(common.HashFromUint64(i)); err != nil {
			t.Fatalf("failed to add key: %v", err)
		}
	}
	proof, err := tree.GetProof(common.HashFromUint64(3), 0)
	if err != nil {
		t.Fatalf("failed to get proof: %v", err)
	}
	if !VerifyProof(proof, reversed) {
		t.Errorf("proof does not verify under the tree's hasher")
	}
	if VerifyProof(proof, nil) {
		t.Errorf("proof verifies under the wrong hasher")
	}
}
