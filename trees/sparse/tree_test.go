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
	"errors"
	"math/rand"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/dl-solarity/go-trees/backend/stock"
	"github.com/dl-solarity/go-trees/backend/stock/ldb"
	"github.com/dl-solarity/go-trees/common"
)

func TestTree_OperationsRequireInitialization(t *testing.T) {
	tree := NewInMemoryTree()
	if err := tree.Add(common.HashFromUint64(1), common.HashFromUint64(2)); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected %v, got %v", ErrNotInitialized, err)
	}
	if _, err := tree.GetProof(common.HashFromUint64(1)); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected %v, got %v", ErrNotInitialized, err)
	}
	if err := tree.SetMaxDepth(10); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected %v, got %v", ErrNotInitialized, err)
	}
}

func TestTree_InitializeValidatesDepth(t *testing.T) {
	tree := NewInMemoryTree()
	if err := tree.Initialize(0); !errors.Is(err, ErrInvalidDepth) {
		t.Errorf("expected %v, got %v", ErrInvalidDepth, err)
	}
	if err := tree.Initialize(257); !errors.Is(err, ErrInvalidDepth) {
		t.Errorf("expected %v, got %v", ErrInvalidDepth, err)
	}
	if err := tree.Initialize(20); err != nil {
		t.Fatalf("failed to initialize tree: %v", err)
	}
	if got, want := tree.MaxDepth(), uint32(20); got != want {
		t.Errorf("unexpected maximum depth, got %d, wanted %d", got, want)
	}
	if err := tree.Initialize(30); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("expected %v, got %v", ErrAlreadyInitialized, err)
	}
}

func TestTree_SetMaxDepthOnlyGrows(t *testing.T) {
	tree := NewInMemoryTree()
	if err := tree.Initialize(20); err != nil {
		t.Fatalf("failed to initialize tree: %v", err)
	}
	if err := tree.SetMaxDepth(20); !errors.Is(err, ErrDepthCanOnlyIncrease) {
		t.Errorf("expected %v, got %v", ErrDepthCanOnlyIncrease, err)
	}
	if err := tree.SetMaxDepth(10); !errors.Is(err, ErrDepthCanOnlyIncrease) {
		t.Errorf("expected %v, got %v", ErrDepthCanOnlyIncrease, err)
	}
	if err := tree.SetMaxDepth(257); !errors.Is(err, ErrDepthExceedsHardCap) {
		t.Errorf("expected %v, got %v", ErrDepthExceedsHardCap, err)
	}
	if err := tree.SetMaxDepth(40); err != nil {
		t.Fatalf("failed to raise maximum depth: %v", err)
	}
	if got, want := tree.MaxDepth(), uint32(40); got != want {
		t.Errorf("unexpected maximum depth, got %d, wanted %d", got, want)
	}
}

func TestTree_SetHashersIsGuarded(t *testing.T) {
	tree := NewInMemoryTree()
	if err := tree.Initialize(20); err != nil {
		t.Fatalf("failed to initialize tree: %v", err)
	}
	if tree.IsCustomHasherSet() {
		t.Errorf("fresh tree reports custom hashers")
	}
	if err := tree.SetHashers(nil, nil); !errors.Is(err, ErrNilHasher) {
		t.Errorf("expected %v, got %v", ErrNilHasher, err)
	}
	if err := tree.SetHashers(common.Keccak256Hash2, common.Keccak256Hash3); err != nil {
		t.Fatalf("failed to set hashers on empty tree: %v", err)
	}
	if !tree.IsCustomHasherSet() {
		t.Errorf("custom hashers not reported as set")
	}

	if err := tree.Add(common.HashFromUint64(1), common.HashFromUint64(2)); err != nil {
		t.Fatalf("failed to add element: %v", err)
	}
	if err := tree.SetHashers(common.Keccak256Hash2, common.Keccak256Hash3); !errors.Is(err, ErrTreeNotEmpty) {
		t.Errorf("expected %v, got %v", ErrTreeNotEmpty, err)
	}
}

func TestTree_AddAndLookupScenario(t *testing.T) {
	tree := NewInMemoryTree()
	if err := tree.Initialize(20); err != nil {
		t.Fatalf("failed to initialize tree: %v", err)
	}

	roots := []common.Hash{}
	for _, index := range []uint64{5, 3, 8} {
		if err := tree.Add(common.HashFromUint64(index), common.HashFromUint64(index*100)); err != nil {
			t.Fatalf("failed to add element %d: %v", index, err)
		}
		root, err := tree.Root()
		if err != nil {
			t.Fatalf("failed to get root: %v", err)
		}
		roots = append(roots, root)
		checkTreeInvariants(t, tree)
	}
	for i := 0; i < len(roots); i++ {
		for j := i + 1; j < len(roots); j++ {
			if roots[i] == roots[j] {
				t.Errorf("roots after insertion %d and %d are identical: %v", i, j, roots[i])
			}
		}
	}

	for _, index := range []uint64{5, 3, 8} {
		node, found, err := tree.GetNodeByIndex(common.HashFromUint64(index))
		if err != nil {
			t.Fatalf("failed to look up index: %v", err)
		}
		if !found {
			t.Fatalf("present index %d not found", index)
		}
		if got, want := node.Value, common.HashFromUint64(index*100); got != want {
			t.Errorf("unexpected value for index %d, got %v, wanted %v", index, got, want)
		}
	}
	if _, found, err := tree.GetNodeByIndex(common.HashFromUint64(4)); err != nil || found {
		t.Errorf("absent index reported as found: found %t, err %v", found, err)
	}
}

func TestTree_AddOverwritesExistingIndexInPlace(t *testing.T) {
	tree := NewInMemoryTree()
	if err := tree.Initialize(20); err != nil {
		t.Fatalf("failed to initialize tree: %v", err)
	}
	index := common.HashFromUint64(42)
	if err := tree.Add(index, common.HashFromUint64(1)); err != nil {
		t.Fatalf("failed to add element: %v", err)
	}
	firstRoot, err := tree.Root()
	if err != nil {
		t.Fatalf("failed to get root: %v", err)
	}
	nodes := tree.NodesCount()

	// Re-adding the same association is idempotent.
	if err := tree.Add(index, common.HashFromUint64(1)); err != nil {
		t.Fatalf("failed to re-add element: %v", err)
	}
	sameRoot, err := tree.Root()
	if err != nil {
		t.Fatalf("failed to get root: %v", err)
	}
	if sameRoot != firstRoot {
		t.Errorf("idempotent update changed the root, got %v, wanted %v", sameRoot, firstRoot)
	}
	if got := tree.NodesCount(); got != nodes {
		t.Errorf("idempotent update allocated nodes, got %d, wanted %d", got, nodes)
	}

	// A new value moves the commitment but allocates no node.
	if err := tree.Add(index, common.HashFromUint64(2)); err != nil {
		t.Fatalf("failed to overwrite element: %v", err)
	}
	newRoot, err := tree.Root()
	if err != nil {
		t.Fatalf("failed to get root: %v", err)
	}
	if newRoot == firstRoot {
		t.Errorf("overwriting a value had no effect on the commitment")
	}
	if got := tree.NodesCount(); got != nodes {
		t.Errorf("overwrite allocated nodes, got %d, wanted %d", got, nodes)
	}
	node, found, err := tree.GetNodeByIndex(index)
	if err != nil || !found {
		t.Fatalf("failed to look up index: found %t, err %v", found, err)
	}
	if got, want := node.Value, common.HashFromUint64(2); got != want {
		t.Errorf("unexpected value after overwrite, got %v, wanted %v", got, want)
	}
}

func TestTree_InsertionOrderDoesNotAffectRoot(t *testing.T) {
	const N = 32
	indexes := make([]common.Hash, 0, N)
	for i := 0; i < N; i++ {
		indexes = append(indexes, common.Keccak256Hash1(common.HashFromUint64(uint64(i))))
	}

	reference := buildTree(t, indexes)
	wantRoot, err := reference.Root()
	if err != nil {
		t.Fatalf("failed to get root: %v", err)
	}

	r := rand.New(rand.NewSource(42))
	for run := 0; run < 20; run++ {
		shuffled := make([]common.Hash, N)
		for i, j := range r.Perm(N) {
			shuffled[i] = indexes[j]
		}
		tree := buildTree(t, shuffled)
		got, err := tree.Root()
		if err != nil {
			t.Fatalf("failed to get root: %v", err)
		}
		if got != wantRoot {
			t.Fatalf("root depends on insertion order, got %v, wanted %v", got, wantRoot)
		}
	}
}

func TestTree_AddMaterializesSharedPrefixes(t *testing.T) {
	tree := NewInMemoryTree()
	if err := tree.Initialize(20); err != nil {
		t.Fatalf("failed to initialize tree: %v", err)
	}

	// A single leaf sits at the root without any middle node.
	if err := tree.Add(common.HashFromUint64(1), common.HashFromUint64(100)); err != nil {
		t.Fatalf("failed to add element: %v", err)
	}
	if got, want := tree.NodesCount(), uint64(1); got != want {
		t.Errorf("unexpected number of nodes, got %d, wanted %d", got, want)
	}

	// Index 2 diverges from index 1 at bit 0, adding one middle node.
	if err := tree.Add(common.HashFromUint64(2), common.HashFromUint64(200)); err != nil {
		t.Fatalf("failed to add element: %v", err)
	}
	if got, want := tree.NodesCount(), uint64(3); got != want {
		t.Errorf("unexpected number of nodes, got %d, wanted %d", got, want)
	}

	// Index 3 shares bit 0 with index 1 and diverges at bit 1, adding a
	// leaf and one divergence middle below the root.
	if err := tree.Add(common.HashFromUint64(3), common.HashFromUint64(300)); err != nil {
		t.Fatalf("failed to add element: %v", err)
	}
	if got, want := tree.NodesCount(), uint64(5); got != want {
		t.Errorf("unexpected number of nodes, got %d, wanted %d", got, want)
	}
	checkTreeInvariants(t, tree)
}

func TestTree_AddFailsBeyondMaxDepth(t *testing.T) {
	tree := NewInMemoryTree()
	if err := tree.Initialize(2); err != nil {
		t.Fatalf("failed to initialize tree: %v", err)
	}

	// Indexes 0b000 and 0b100 share their first two bits, so a tree of
	// depth 2 cannot separate them.
	if err := tree.Add(common.HashFromUint64(0), common.HashFromUint64(100)); err != nil {
		t.Fatalf("failed to add element: %v", err)
	}
	before, err := tree.Root()
	if err != nil {
		t.Fatalf("failed to get root: %v", err)
	}
	if err := tree.Add(common.HashFromUint64(4), common.HashFromUint64(200)); !errors.Is(err, ErrMaxDepthReached) {
		t.Errorf("expected %v, got %v", ErrMaxDepthReached, err)
	}
	after, err := tree.Root()
	if err != nil {
		t.Fatalf("failed to get root: %v", err)
	}
	if before != after {
		t.Errorf("root modified by rejected insertion, got %v, wanted %v", after, before)
	}
	if got, want := tree.NodesCount(), uint64(1); got != want {
		t.Errorf("unexpected number of nodes, got %d, wanted %d", got, want)
	}

	// Raising the depth makes the same insertion succeed.
	if err := tree.SetMaxDepth(3); err != nil {
		t.Fatalf("failed to raise maximum depth: %v", err)
	}
	if err := tree.Add(common.HashFromUint64(4), common.HashFromUint64(200)); err != nil {
		t.Errorf("failed to add element after raising the depth: %v", err)
	}
	checkTreeInvariants(t, tree)
}

func TestTree_CustomHashersChangeTheCommitment(t *testing.T) {
	plain := NewInMemoryTree()
	if err := plain.Initialize(20); err != nil {
		t.Fatalf("failed to initialize tree: %v", err)
	}
	custom := NewInMemoryTree()
	if err := custom.Initialize(20); err != nil {
		t.Fatalf("failed to initialize tree: %v", err)
	}
	reversed := func(a, b common.Hash) common.Hash {
		return common.Keccak256Hash2(b, a)
	}
	if err := custom.SetHashers(reversed, common.Keccak256Hash3); err != nil {
		t.Fatalf("failed to set hashers: %v", err)
	}

	for i := uint64(1); i <= 4; i++ {
		if err := plain.Add(common.HashFromUint64(i), common.HashFromUint64(i)); err != nil {
			t.Fatalf("failed to add element: %v", err)
		}
		if err := custom.Add(common.HashFromUint64(i), common.HashFromUint64(i)); err != nil {
			t.Fatalf("failed to add element: %v", err)
		}
	}
	plainRoot, err := plain.Root()
	if err != nil {
		t.Fatalf("failed to get root: %v", err)
	}
	customRoot, err := custom.Root()
	if err != nil {
		t.Fatalf("failed to get root: %v", err)
	}
	if plainRoot == customRoot {
		t.Errorf("custom hashers had no effect on the commitment")
	}
}

func TestTree_StoreErrorsArePropagated(t *testing.T) {
	injected := errors.New("injected error")

	t.Run("allocation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := stock.NewMockStock[NodeId, Node](ctrl)
		store.EXPECT().Get(EmptyId()).Return(Node{}, nil)
		store.EXPECT().New().Return(NodeId(0), injected)

		tree := NewTree(store)
		if err := tree.Initialize(20); err != nil {
			t.Fatalf("failed to initialize tree: %v", err)
		}
		if err := tree.Add(common.HashFromUint64(1), common.HashFromUint64(2)); !errors.Is(err, injected) {
			t.Errorf("expected injected error, got %v", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := stock.NewMockStock[NodeId, Node](ctrl)
		store.EXPECT().Get(EmptyId()).Return(Node{}, nil)
		store.EXPECT().New().Return(NodeId(1), nil)
		store.EXPECT().Set(NodeId(1), gomock.Any()).Return(injected)

		tree := NewTree(store)
		if err := tree.Initialize(20); err != nil {
			t.Fatalf("failed to initialize tree: %v", err)
		}
		if err := tree.Add(common.HashFromUint64(1), common.HashFromUint64(2)); !errors.Is(err, injected) {
			t.Errorf("expected injected error, got %v", err)
		}
	})
}

func TestTree_WorksOnADurableStore(t *testing.T) {
	store, err := ldb.OpenStock[NodeId, Node](NodeEncoder{}, t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	tree := NewTree(store)
	if err := tree.Initialize(256); err != nil {
		t.Fatalf("failed to initialize tree: %v", err)
	}
	defer func() {
		if err := tree.Close(); err != nil {
			t.Fatalf("failed to close tree: %v", err)
		}
	}()

	indexes := make([]common.Hash, 0, 20)
	for i := 0; i < 20; i++ {
		index := common.Keccak256Hash1(common.HashFromUint64(uint64(i)))
		indexes = append(indexes, index)
		if err := tree.Add(index, common.HashFromUint64(uint64(i))); err != nil {
			t.Fatalf("failed to add element: %v", err)
		}
	}
	checkTreeInvariants(t, tree)
	if err := tree.Flush(); err != nil {
		t.Fatalf("failed to flush tree: %v", err)
	}

	for _, index := range indexes {
		proof, err := tree.GetProof(index)
		if err != nil {
			t.Fatalf("failed to get proof: %v", err)
		}
		if !proof.Existence || !VerifyProof(proof, nil, nil) {
			t.Errorf("existence proof for %v does not verify", index)
		}
	}
}

func buildTree(t *testing.T, indexes []common.Hash) *Tree {
	t.Helper()
	tree := NewInMemoryTree()
	if err := tree.Initialize(256); err != nil {
		t.Fatalf("failed to initialize tree: %v", err)
	}
	for i, index := range indexes {
		if err := tree.Add(index, common.HashFromUint64(uint64(i+1))); err != nil {
			t.Fatalf("failed to add element %v: %v", index, err)
		}
	}
	return tree
}

// checkTreeInvariants verifies the placement and the commitment of every
// live node against the bit path leading to it.
func checkTreeInvariants(t *testing.T, tree *Tree) {
	t.Helper()
	var visit func(id NodeId, depth uint32, path common.Hash)
	visit = func(id NodeId, depth uint32, path common.Hash) {
		node, err := tree.GetNode(id)
		if err != nil {
			t.Fatalf("failed to get node %v: %v", id, err)
		}
		switch node.Type {
		case Leaf:
			for i := uint32(0); i < depth; i++ {
				if bit(node.Key, i) != bit(path, i) {
					t.Fatalf("leaf %v misplaced, bit %d disagrees with its path", node.Key, i)
				}
			}
			if want := common.Keccak256Hash3(node.Key, node.Value, common.HashFromUint64(1)); node.NodeHash != want {
				t.Fatalf("stale commitment on leaf %v, got %v, wanted %v", node.Key, node.NodeHash, want)
			}
		case Middle:
			if node.ChildLeft.IsEmpty() && node.ChildRight.IsEmpty() {
				t.Fatalf("middle node %v has no children", id)
			}
			left := common.Hash{}
			right := common.Hash{}
			if !node.ChildLeft.IsEmpty() {
				child, err := tree.GetNode(node.ChildLeft)
				if err != nil {
					t.Fatalf("failed to get node: %v", err)
				}
				left = child.NodeHash
				visit(node.ChildLeft, depth+1, path)
			}
			if !node.ChildRight.IsEmpty() {
				child, err := tree.GetNode(node.ChildRight)
				if err != nil {
					t.Fatalf("failed to get node: %v", err)
				}
				right = child.NodeHash
				withBit := path
				withBit[31-depth/8] |= 1 << (depth % 8)
				visit(node.ChildRight, depth+1, withBit)
			}
			if want := common.Keccak256Hash2(left, right); node.NodeHash != want {
				t.Fatalf("stale commitment on middle node %v, got %v, wanted %v", id, node.NodeHash, want)
			}
		default:
			t.Fatalf("unexpected node type %v in live tree", node.Type)
		}
	}
	if !tree.RootId().IsEmpty() {
		visit(tree.RootId(), 0, common.Hash{})
	}
}
