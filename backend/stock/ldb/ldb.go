// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ldb

import (
	"encoding/json"
	"fmt"
	"unsafe"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/dl-solarity/go-trees/backend/stock"
)

// TableSpace divides the key-value storage into spaces by adding a prefix to
// the key.
type TableSpace byte

const (
	// ValueKey is the table space for stock values, keyed by encoded index.
	ValueKey TableSpace = 'V'
	// MetadataKey is the key of the single metadata record.
	MetadataKey TableSpace = 'M'
)

// ldbStock is a LevelDB-backed implementation of the stock.Stock interface.
// Values are written through on every update; the allocation counter is
// persisted on Flush and Close and restored when the stock is reopened on
// the same directory.
type ldbStock[I stock.Index, V any] struct {
	db        *leveldb.DB
	encoder   stock.ValueEncoder[V]
	nextIndex I
}

// OpenStock opens a stock stored in a LevelDB instance in the given
// directory, creating it if it does not exist.
func OpenStock[I stock.Index, V any](encoder stock.ValueEncoder[V], directory string) (stock.Stock[I, V], error) {
	db, err := leveldb.OpenFile(directory, nil)
	if err != nil {
		return nil, err
	}

	res := &ldbStock[I, V]{
		db:        db,
		encoder:   encoder,
		nextIndex: 1,
	}

	data, err := db.Get([]byte{byte(MetadataKey)}, nil)
	if err == leveldb.ErrNotFound {
		return res, nil
	}
	if err != nil {
		db.Close()
		return nil, err
	}

	var meta metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		db.Close()
		return nil, err
	}
	if meta.Version != dataFormatVersion {
		db.Close()
		return nil, fmt.Errorf("invalid data format version, got %d, wanted %d", meta.Version, dataFormatVersion)
	}
	indexSize := int(unsafe.Sizeof(I(0)))
	if meta.IndexTypeSize != indexSize {
		db.Close()
		return nil, fmt.Errorf("invalid index type encoding, expected %d byte, found %d", indexSize, meta.IndexTypeSize)
	}
	valueSize := encoder.GetEncodedSize()
	if meta.ValueTypeSize != valueSize {
		db.Close()
		return nil, fmt.Errorf("invalid value type encoding, expected %d byte, found %d", valueSize, meta.ValueTypeSize)
	}

	res.nextIndex = I(meta.NextIndex)
	return res, nil
}

func (s *ldbStock[I, V]) New() (I, error) {
	index := s.nextIndex
	s.nextIndex++
	return index, nil
}

func (s *ldbStock[I, V]) Get(index I) (V, error) {
	var res V
	if index <= 0 || index >= s.nextIndex {
		return res, nil
	}
	data, err := s.db.Get(s.toDBKey(index), nil)
	if err == leveldb.ErrNotFound {
		return res, nil
	}
	if err != nil {
		return res, err
	}
	if err := s.encoder.Load(data, &res); err != nil {
		return res, err
	}
	return res, nil
}

func (s *ldbStock[I, V]) Set(index I, value V) error {
	if index <= 0 || index >= s.nextIndex {
		return fmt.Errorf("index out of range, got %d, range [1,%d)", index, s.nextIndex)
	}
	buffer := make([]byte, s.encoder.GetEncodedSize())
	if err := s.encoder.Store(buffer, &value); err != nil {
		return err
	}
	return s.db.Put(s.toDBKey(index), buffer, nil)
}

func (s *ldbStock[I, V]) Delete(index I) error {
	if index <= 0 || index >= s.nextIndex {
		return nil
	}
	return s.db.Delete(s.toDBKey(index), nil)
}

func (s *ldbStock[I, V]) Flush() error {
	meta, err := json.Marshal(metadata{
		Version:       dataFormatVersion,
		IndexTypeSize: int(unsafe.Sizeof(I(0))),
		ValueTypeSize: s.encoder.GetEncodedSize(),
		NextIndex:     uint64(s.nextIndex),
	})
	if err != nil {
		return err
	}
	return s.db.Put([]byte{byte(MetadataKey)}, meta, nil)
}

func (s *ldbStock[I, V]) Close() error {
	if err := s.Flush(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

func (s *ldbStock[I, V]) toDBKey(index I) []byte {
	indexSize := int(unsafe.Sizeof(index))
	key := make([]byte, 1+indexSize)
	key[0] = byte(ValueKey)
	stock.EncodeIndex(index, key[1:])
	return key
}

const dataFormatVersion = 0

// metadata is the helper type to read and write metadata from/to the disk.
type metadata struct {
	Version       int
	IndexTypeSize int
	ValueTypeSize int
	NextIndex     uint64
}
