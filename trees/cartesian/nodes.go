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
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/dl-solarity/go-trees/common"
)

// NodeId is used to address nodes within a Cartesian Merkle tree. Ids serve
// the same role as pointers in in-memory implementations of trees; they are
// handed out by the node store in a dense, monotonically increasing sequence
// and are never recycled once a node has been removed. Id 0 is reserved for
// the empty node.
type NodeId uint64

// EmptyId returns the node id representing the empty node.
func EmptyId() NodeId {
	return NodeId(0)
}

// IsEmpty is true if the id is addressing the empty node.
func (n NodeId) IsEmpty() bool {
	return n == 0
}

func (n NodeId) String() string {
	if n.IsEmpty() {
		return "E"
	}
	return fmt.Sprintf("N-%d", uint64(n))
}

// Priority is the 16-byte heap priority of a node. It is derived
// deterministically from the node key as the 128-bit truncation of the
// 1-ary hash, and compared as a big-endian unsigned number. The max-heap
// order over priorities is what keeps the tree balanced in expectation.
type Priority [16]byte

// Less compares two priorities in big-endian number order.
func (p Priority) Less(other Priority) bool {
	return bytes.Compare(p[:], other[:]) < 0
}

// Node is a single node of a Cartesian Merkle tree. The zero value
// represents the empty node.
//
// Every node satisfies two orders at once: the keys form a binary search
// tree, and the priorities form a max-heap. MerkleHash commits to the
// subtree rooted at the node as hash3(key, min(lh, rh), max(lh, rh)), where
// lh and rh are the child commitments and the commitment of an absent child
// is the zero hash. Sorting the child hashes makes the commitment
// independent of the left/right position of the children, so proofs do not
// need to disclose the tree shape.
type Node struct {
	Key        common.Hash
	Priority   Priority
	ChildLeft  NodeId
	ChildRight NodeId
	MerkleHash common.Hash
}

// NodeEncoder encodes tree nodes into a fixed-size binary form for durable
// node stores.
type NodeEncoder struct{}

const encodedNodeSize = 16 + 8 + 8 + 32 + 32

func (NodeEncoder) GetEncodedSize() int {
	return encodedNodeSize
}

func (NodeEncoder) Store(dst []byte, node *Node) error {
	if len(dst) < encodedNodeSize {
		return fmt.Errorf("buffer too small, got %d, wanted %d", len(dst), encodedNodeSize)
	}
	copy(dst[0:16], node.Priority[:])
	binary.BigEndian.PutUint64(dst[16:24], uint64(node.ChildLeft))
	binary.BigEndian.PutUint64(dst[24:32], uint64(node.ChildRight))
	copy(dst[32:64], node.Key[:])
	copy(dst[64:96], node.MerkleHash[:])
	return nil
}

func (NodeEncoder) Load(src []byte, node *Node) error {
	if len(src) < encodedNodeSize {
		return fmt.Errorf("buffer too small, got %d, wanted %d", len(src), encodedNodeSize)
	}
	copy(node.Priority[:], src[0:16])
	node.ChildLeft = NodeId(binary.BigEndian.Uint64(src[16:24]))
	node.ChildRight = NodeId(binary.BigEndian.Uint64(src[24:32]))
	copy(node.Key[:], src[32:64])
	copy(node.MerkleHash[:], src[64:96])
	return nil
}
