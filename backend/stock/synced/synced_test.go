// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package synced

import (
	"sync"
	"testing"

	"github.com/dl-solarity/go-trees/backend/stock"
	"github.com/dl-solarity/go-trees/backend/stock/memory"
)

func TestSyncedStock(t *testing.T) {
	stock.RunStockTests(t, stock.NamedStockFactory{
		ImplementationName: "synced",
		Open:               openStock,
	})
}

func openStock(t *testing.T, directory string) (stock.Stock[int, int], error) {
	return Sync(memory.OpenStock[int, int]()), nil
}

func TestSync_WrappingIsIdempotent(t *testing.T) {
	nested := memory.OpenStock[int, int]()
	wrapped := Sync(nested)
	if Sync(wrapped) != wrapped {
		t.Errorf("re-wrapping a synced stock should return the same instance")
	}
}

func TestSyncedStock_ParallelAllocationsAreUnique(t *testing.T) {
	s := Sync(memory.OpenStock[int, int]())
	defer s.Close()

	const workers = 8
	const perWorker = 1000
	results := make([][]int, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			ids := make([]int, 0, perWorker)
			for j := 0; j < perWorker; j++ {
				id, err := s.New()
				if err != nil {
					t.Errorf("failed to create new element: %v", err)
					return
				}
				ids = append(ids, id)
			}
			results[i] = ids
		}(i)
	}
	wg.Wait()

	seen := map[int]bool{}
	for _, ids := range results {
		for _, id := range ids {
			if seen[id] {
				t.Fatalf("index %d handed out twice", id)
			}
			seen[id] = true
		}
	}
	if got, want := len(seen), workers*perWorker; got != want {
		t.Errorf("unexpected number of allocations, got %d, wanted %d", got, want)
	}
}
