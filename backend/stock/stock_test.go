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

import "testing"

func TestEncodeIndex_RoundTrips(t *testing.T) {
	t.Run("uint8", func(t *testing.T) {
		buffer := make([]byte, 1)
		for _, value := range []uint8{0, 1, 127, 255} {
			EncodeIndex(value, buffer)
			if got := DecodeIndex[uint8](buffer); got != value {
				t.Errorf("round trip failed, got %d, wanted %d", got, value)
			}
		}
	})
	t.Run("uint16", func(t *testing.T) {
		buffer := make([]byte, 2)
		for _, value := range []uint16{0, 1, 256, 65535} {
			EncodeIndex(value, buffer)
			if got := DecodeIndex[uint16](buffer); got != value {
				t.Errorf("round trip failed, got %d, wanted %d", got, value)
			}
		}
	})
	t.Run("uint32", func(t *testing.T) {
		buffer := make([]byte, 4)
		for _, value := range []uint32{0, 1, 1 << 20, 1<<32 - 1} {
			EncodeIndex(value, buffer)
			if got := DecodeIndex[uint32](buffer); got != value {
				t.Errorf("round trip failed, got %d, wanted %d", got, value)
			}
		}
	})
	t.Run("uint64", func(t *testing.T) {
		buffer := make([]byte, 8)
		for _, value := range []uint64{0, 1, 1 << 40, 1<<64 - 1} {
			EncodeIndex(value, buffer)
			if got := DecodeIndex[uint64](buffer); got != value {
				t.Errorf("round trip failed, got %d, wanted %d", got, value)
			}
		}
	})
}

func TestEncodeIndex_UsesBigEndianByteOrder(t *testing.T) {
	buffer := make([]byte, 8)
	EncodeIndex(uint64(1), buffer)
	if buffer[7] != 1 {
		t.Errorf("expected big-endian encoding, got %v", buffer)
	}
}
