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
	"encoding/binary"
	"fmt"

	"github.com/dl-solarity/go-trees/common"
)

// Leaf is an element of the sorted linked list forming the bottom level of
// an indexed Merkle tree. NextIndex addresses the leaf holding the next
// larger value; a NextIndex of 0 marks the largest value of the list, since
// leaf index 0 is never allocated.
type Leaf struct {
	Value     common.Hash
	NextIndex uint64
}

// LeafEncoder encodes leaves into a fixed-size binary form for durable
// leaf stores.
type LeafEncoder struct{}

const encodedLeafSize = 32 + 8

func (LeafEncoder) GetEncodedSize() int {
	return encodedLeafSize
}

func (LeafEncoder) Store(dst []byte, leaf *Leaf) error {
	if len(dst) < encodedLeafSize {
		return fmt.Errorf("buffer too small, got %d, wanted %d", len(dst), encodedLeafSize)
	}
	copy(dst[0:32], leaf.Value[:])
	binary.BigEndian.PutUint64(dst[32:40], leaf.NextIndex)
	return nil
}

func (LeafEncoder) Load(src []byte, leaf *Leaf) error {
	if len(src) < encodedLeafSize {
		return fmt.Errorf("buffer too small, got %d, wanted %d", len(src), encodedLeafSize)
	}
	copy(leaf.Value[:], src[0:32])
	leaf.NextIndex = binary.BigEndian.Uint64(src[32:40])
	return nil
}
