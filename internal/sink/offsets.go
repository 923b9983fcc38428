// Loggen - Synthetic OTT User Behavior Log Generator
// Copyright 2026 OTT Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ottlab/loggen

package sink

import (
	"encoding/binary"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// offsetSource hands out the monotone per-hour-key flush offsets,
// starting at 0 for an unseen key.
type offsetSource interface {
	next(key HourKey) (int, error)
	close() error
}

// newOffsetSource returns the Badger-backed store when a path is
// configured, so offsets survive restarts; otherwise an in-memory map.
// scope separates the counter namespaces of writers sharing one store.
func newOffsetSource(path, scope string, logger zerolog.Logger) (offsetSource, error) {
	if path == "" {
		return &memOffsets{counters: make(map[HourKey]int)}, nil
	}
	return newBadgerOffsets(path, scope, logger)
}

type memOffsets struct {
	counters map[HourKey]int
}

func (m *memOffsets) next(key HourKey) (int, error) {
	offset := m.counters[key]
	m.counters[key] = offset + 1
	return offset, nil
}

func (m *memOffsets) close() error { return nil }

// badgerOffsets persists per-hour-key counters in a Badger store so a
// restarted run continues offsets instead of overwriting earlier files.
type badgerOffsets struct {
	db    *badger.DB
	scope string
}

func newBadgerOffsets(path, scope string, logger zerolog.Logger) (*badgerOffsets, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithCompactL0OnClose(true)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open offset store at %s: %w", path, err)
	}
	logger.Info().Str("path", path).Str("scope", scope).Msg("offset store opened")
	return &badgerOffsets{db: db, scope: scope}, nil
}

func (b *badgerOffsets) offsetKey(key HourKey) []byte {
	return []byte("offset/" + b.scope + "/" + key.String())
}

func (b *badgerOffsets) next(key HourKey) (int, error) {
	var offset uint64
	err := b.db.Update(func(txn *badger.Txn) error {
		k := b.offsetKey(key)
		item, err := txn.Get(k)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			offset = 0
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error {
				offset = binary.BigEndian.Uint64(val)
				return nil
			}); err != nil {
				return err
			}
		}

		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], offset+1)
		return txn.Set(k, buf[:])
	})
	if err != nil {
		return 0, fmt.Errorf("advance offset for %s: %w", key, err)
	}
	return int(offset), nil
}

func (b *badgerOffsets) close() error { return b.db.Close() }
