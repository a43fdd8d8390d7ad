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
	"encoding/binary"
	"fmt"

	"github.com/dl-solarity/go-trees/common"
)

// NodeId is used to address nodes within a sparse Merkle tree. Ids are
// handed out by the node store in a dense, monotonically increasing
// sequence. Id 0 is reserved for the empty node, which doubles as the root
// of every empty subtree.
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

// NodeType distinguishes the three kinds of nodes of a sparse Merkle tree.
type NodeType byte

const (
	// Empty marks the implicit all-zero subtree; it is never stored.
	Empty NodeType = iota
	// Leaf nodes carry an index and its associated value.
	Leaf
	// Middle nodes split the key space by one bit of the index.
	Middle
)

func (t NodeType) String() string {
	switch t {
	case Empty:
		return "empty"
	case Leaf:
		return "leaf"
	case Middle:
		return "middle"
	}
	return fmt.Sprintf("unknown(%d)", byte(t))
}

// Node is a single node of a sparse Merkle tree. The zero value represents
// the empty node.
//
// A leaf commits to its content as hash3(key, value, 1); the trailing
// constant 1 domain-separates leaves from middle nodes. A middle node
// commits to hash2(leftHash, rightHash) with the zero hash standing in for
// absent children; unlike the Cartesian tree, the commitment is positional,
// since the bit path already fixes the position of every node.
type Node struct {
	Type       NodeType
	ChildLeft  NodeId
	ChildRight NodeId
	Key        common.Hash
	Value      common.Hash
	NodeHash   common.Hash
}

// NodeEncoder encodes tree nodes into a fixed-size binary form for durable
// node stores.
type NodeEncoder struct{}

const encodedNodeSize = 1 + 8 + 8 + 32 + 32 + 32

func (NodeEncoder) GetEncodedSize() int {
	return encodedNodeSize
}

func (NodeEncoder) Store(dst []byte, node *Node) error {
	if len(dst) < encodedNodeSize {
		return fmt.Errorf("buffer too small, got %d, wanted %d", len(dst), encodedNodeSize)
	}
	dst[0] = byte(node.Type)
	binary.BigEndian.PutUint64(dst[1:9], uint64(node.ChildLeft))
	binary.BigEndian.PutUint64(dst[9:17], uint64(node.ChildRight))
	copy(dst[17:49], node.Key[:])
	copy(dst[49:81], node.Value[:])
	copy(dst[81:113], node.NodeHash[:])
	return nil
}

func (NodeEncoder) Load(src []byte, node *Node) error {
	if len(src) < encodedNodeSize {
		return fmt.Errorf("buffer too small, got %d, wanted %d", len(src), encodedNodeSize)
	}
	node.Type = NodeType(src[0])
	node.ChildLeft = NodeId(binary.BigEndian.Uint64(src[1:9]))
	node.ChildRight = NodeId(binary.BigEndian.Uint64(src[9:17]))
	copy(node.Key[:], src[17:49])
	copy(node.Value[:], src[49:81])
	copy(node.NodeHash[:], src[81:113])
	return nil
}
