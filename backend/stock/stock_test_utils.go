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
	"testing"
)

// IntEncoder is a simple test encoder for int values.
type IntEncoder struct{}

func (IntEncoder) GetEncodedSize() int {
	return 4
}

func (IntEncoder) Load(src []byte, value *int) error {
	*value = int(binary.BigEndian.Uint32(src))
	return nil
}

func (IntEncoder) Store(trg []byte, value *int) error {
	binary.BigEndian.PutUint32(trg, uint32(*value))
	return nil
}

type NamedStockFactory struct {
	ImplementationName string
	Open               func(t *testing.T, directory string) (Stock[int, int], error)
}

// RunStockTests runs a set of black-box unit tests against a generic Stock
// implementation defined by the given factory. It is intended to be used
// in implementation specific unit test packages to cover basic compliance
// properties as imposed by the Stock interface.
func RunStockTests(t *testing.T, factory NamedStockFactory) {
	wrap := func(test func(*testing.T, NamedStockFactory)) func(*testing.T) {
		return func(t *testing.T) {
			t.Parallel()
			test(t, factory)
		}
	}
	t.Run("NewCreatesFreshIndexValues", wrap(testNewCreatesFreshIndexValues))
	t.Run("ZeroIndexIsNeverHandedOut", wrap(testZeroIndexIsNeverHandedOut))
	t.Run("IndexesAreDense", wrap(testIndexesAreDense))
	t.Run("LookUpsRetrieveTheSameValue", wrap(testLookUpsRetrieveTheSameValue))
	t.Run("LookUpOfUnallocatedIndexIsZero", wrap(testLookUpOfUnallocatedIndexIsZero))
	t.Run("DeletedElementsAreCleared", wrap(testDeletedElementsAreCleared))
	t.Run("DeletedIndexesAreNotReused", wrap(testDeletedIndexesAreNotReused))
	t.Run("LargeNumberOfElements", wrap(testLargeNumberOfElements))
	t.Run("CanBeFlushed", wrap(testCanBeFlushed))
	t.Run("CanBeClosed", wrap(testCanBeClosed))
}

func testNewCreatesFreshIndexValues(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()
	index1, err := stock.New()
	if err != nil {
		t.Fatalf("failed to create new element: %v", err)
	}
	index2, err := stock.New()
	if err != nil {
		t.Fatalf("failed to create new element: %v", err)
	}
	if index1 == index2 {
		t.Errorf("Expected different index values, got %v and %v", index1, index2)
	}
}

func testZeroIndexIsNeverHandedOut(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()
	for i := 0; i < 100; i++ {
		index, err := stock.New()
		if err != nil {
			t.Fatalf("failed to create new element: %v", err)
		}
		if index == 0 {
			t.Fatalf("stock handed out the reserved null index")
		}
	}
}

func testIndexesAreDense(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()
	for want := 1; want <= 50; want++ {
		got, err := stock.New()
		if err != nil {
			t.Fatalf("failed to create new element: %v", err)
		}
		if got != want {
			t.Errorf("indexes not dense, got %d, wanted %d", got, want)
		}
	}
}

func testLookUpsRetrieveTheSameValue(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()
	index1, err := stock.New()
	if err != nil {
		t.Fatalf("failed to create new element: %v", err)
	}
	if err := stock.Set(index1, 1); err != nil {
		t.Fatalf("failed to update value for index 1: %v", err)
	}

	index2, err := stock.New()
	if err != nil {
		t.Fatalf("failed to create new element: %v", err)
	}
	if err := stock.Set(index2, 2); err != nil {
		t.Fatalf("failed to update value for index 2: %v", err)
	}

	got, err := stock.Get(index1)
	if err != nil || got != 1 {
		t.Errorf("failed to obtain value for index %d: got %d with err %v, wanted %d", index1, got, err, 1)
	}
	got, err = stock.Get(index2)
	if err != nil || got != 2 {
		t.Errorf("failed to obtain value for index %d: got %d with err %v, wanted %d", index2, got, err, 2)
	}
}

func testLookUpOfUnallocatedIndexIsZero(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()
	for _, index := range []int{0, 1, 42} {
		got, err := stock.Get(index)
		if err != nil {
			t.Fatalf("failed to read unallocated index %d: %v", index, err)
		}
		if got != 0 {
			t.Errorf("unallocated index %d not zero, got %d", index, got)
		}
	}
}

func testDeletedElementsAreCleared(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()
	index, err := stock.New()
	if err != nil {
		t.Fatalf("failed to create new element: %v", err)
	}
	if err := stock.Set(index, 12); err != nil {
		t.Fatalf("failed to update value: %v", err)
	}
	if err := stock.Delete(index); err != nil {
		t.Fatalf("failed to delete element: %v", err)
	}
	got, err := stock.Get(index)
	if err != nil {
		t.Fatalf("failed to read deleted index: %v", err)
	}
	if got != 0 {
		t.Errorf("deleted slot not cleared, got %d", got)
	}
	// Deleting twice is a no-op.
	if err := stock.Delete(index); err != nil {
		t.Errorf("repeated delete failed: %v", err)
	}
}

func testDeletedIndexesAreNotReused(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		index, err := stock.New()
		if err != nil {
			t.Fatalf("failed to create new element: %v", err)
		}
		if seen[index] {
			t.Fatalf("index %d handed out twice", index)
		}
		seen[index] = true
		if err := stock.Delete(index); err != nil {
			t.Fatalf("failed to delete element: %v", err)
		}
	}
}

func testLargeNumberOfElements(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()
	const N = 10_000
	for i := 0; i < N; i++ {
		index, err := stock.New()
		if err != nil {
			t.Fatalf("failed to create new element: %v", err)
		}
		if err := stock.Set(index, i); err != nil {
			t.Fatalf("failed to update value: %v", err)
		}
	}
	for i := 0; i < N; i++ {
		got, err := stock.Get(i + 1)
		if err != nil {
			t.Fatalf("failed to read element %d: %v", i+1, err)
		}
		if got != i {
			t.Errorf("wrong value for index %d, got %d, wanted %d", i+1, got, i)
		}
	}
}

func testCanBeFlushed(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	defer stock.Close()
	if _, err := stock.New(); err != nil {
		t.Fatalf("failed to create new element: %v", err)
	}
	if err := stock.Flush(); err != nil {
		t.Errorf("failed to flush stock: %v", err)
	}
}

func testCanBeClosed(t *testing.T, factory NamedStockFactory) {
	stock, err := factory.Open(t, t.TempDir())
	if err != nil {
		t.Fatalf("failed to create empty stock: %v", err)
	}
	if err := stock.Close(); err != nil {
		t.Errorf("failed to close stock: %v", err)
	}
}
