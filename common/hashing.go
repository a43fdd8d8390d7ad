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

// The authenticated trees combine node content into commitments using 1-ary,
// 2-ary, and 3-ary hash functions over fixed 32-byte inputs. The functions
// are pluggable per tree instance; the defaults below hash the big-endian
// concatenation of the inputs (32/64/96 bytes) with Keccak-256, matching the
// conventions of EVM implementations of the same structures.

// Hash1Func combines a single 32-byte input into a commitment. It is used to
// derive node priorities in the Cartesian Merkle tree.
type Hash1Func func(a Hash) Hash

// Hash2Func combines two 32-byte inputs into a commitment.
type Hash2Func func(a, b Hash) Hash

// Hash3Func combines three 32-byte inputs into a commitment.
type Hash3Func func(a, b, c Hash) Hash

// Keccak256Hash1 is the default Hash1Func.
func Keccak256Hash1(a Hash) Hash {
	return Keccak256(a[:])
}

// Keccak256Hash2 is the default Hash2Func, hashing the 64-byte
// concatenation of its inputs.
func Keccak256Hash2(a, b Hash) Hash {
	var data [64]byte
	copy(data[0:32], a[:])
	copy(data[32:64], b[:])
	return Keccak256(data[:])
}

// Keccak256Hash3 is the default Hash3Func, hashing the 96-byte
// concatenation of its inputs.
func Keccak256Hash3(a, b, c Hash) Hash {
	var data [96]byte
	copy(data[0:32], a[:])
	copy(data[32:64], b[:])
	copy(data[64:96], c[:])
	return Keccak256(data[:])
}
