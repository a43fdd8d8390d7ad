// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
)

// Hash is a 32-byte value used both for opaque tree keys and for Merkle
// commitments. Keys are compared as big-endian unsigned integers, matching
// the byte-wise lexicographic order.
type Hash [32]byte

// HashFromBytes creates a Hash from the given byte slice. Inputs shorter
// than 32 bytes are right-aligned, i.e. interpreted as big-endian numbers.
func HashFromBytes(data []byte) Hash {
	var res Hash
	if len(data) > len(res) {
		data = data[len(data)-len(res):]
	}
	copy(res[len(res)-len(data):], data)
	return res
}

// HashFromUint64 creates a Hash holding the given value as a big-endian
// number.
func HashFromUint64(value uint64) Hash {
	var res Hash
	binary.BigEndian.PutUint64(res[24:], value)
	return res
}

// Compare returns -1, 0, or 1 if this hash is less, equal, or greater than
// the given hash in big-endian number order.
func (h Hash) Compare(other Hash) int {
	return bytes.Compare(h[:], other[:])
}

// IsZero is true for the all-zero hash, which is used as the commitment of
// empty subtrees and as the reserved null key.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}
