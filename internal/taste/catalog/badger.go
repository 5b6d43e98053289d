// VibeMatch - Listener Matching by Music Taste
// Copyright 2026 The VibeMatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Fraga9/VibeMatch

package catalog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// BadgerDB snapshot key layout:
//
//	meta/dim                  uint32 big endian
//	artist/<name>             msgpack badgerRecord
//	track/<name>              msgpack badgerRecord
//	alias/<type>/<alias>      canonical name
const (
	badgerDimKey     = "meta/dim"
	badgerAliasSpace = "alias/"
)

type badgerRecord struct {
	Seq    int       `msgpack:"seq"`
	Vector []float32 `msgpack:"vector"`
}

type seqEntry struct {
	seq int
	Entry
}

func openBadger(dir string, readOnly bool) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	opts.ReadOnly = readOnly
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	return db, nil
}

// LoadBadger reads a catalog snapshot written by WriteBadger.
func LoadBadger(dir string) (*Catalog, error) {
	db, err := openBadger(dir, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer db.Close()

	var (
		dim     int
		entries = map[EntityType][]seqEntry{}
		aliases = map[EntityType]map[string]string{Artist: {}, Track: {}}
	)

	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerDimKey))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err == nil {
			if verr := item.Value(func(val []byte) error {
				if len(val) != 4 {
					return fmt.Errorf("bad %s value", badgerDimKey)
				}
				dim = int(binary.BigEndian.Uint32(val))
				return nil
			}); verr != nil {
				return verr
			}
		}

		for _, t := range []EntityType{Artist, Track} {
			recs, err := scanRecords(txn, t)
			if err != nil {
				return err
			}
			entries[t] = recs
		}
		return scanAliases(txn, aliases)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: read snapshot %s: %w", ErrUnavailable, dir, err)
	}

	opts := []Option{WithSource("badger://" + dir)}
	for t, a := range aliases {
		if len(a) > 0 {
			opts = append(opts, WithAliases(t, a))
		}
	}
	c, err := New(dim, ordered(entries[Artist]), ordered(entries[Track]), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if c.Len(Artist)+c.Len(Track) == 0 {
		return nil, fmt.Errorf("%w: snapshot %s is empty", ErrUnavailable, dir)
	}
	return c, nil
}

func scanRecords(txn *badger.Txn, t EntityType) ([]seqEntry, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	it := txn.NewIterator(opts)
	defer it.Close()

	prefix := []byte(t.String() + "/")
	var out []seqEntry
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		name := strings.TrimPrefix(string(item.Key()), string(prefix))

		var rec badgerRecord
		if err := item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &rec)
		}); err != nil {
			return nil, fmt.Errorf("decode %s: %w", item.Key(), err)
		}
		out = append(out, seqEntry{seq: rec.Seq, Entry: Entry{Name: name, Vector: rec.Vector}})
	}
	return out, nil
}

func scanAliases(txn *badger.Txn, into map[EntityType]map[string]string) error {
	opts := badger.DefaultIteratorOptions
	it := txn.NewIterator(opts)
	defer it.Close()

	prefix := []byte(badgerAliasSpace)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		rest := strings.TrimPrefix(string(item.Key()), badgerAliasSpace)
		et, alias, ok := strings.Cut(rest, "/")
		if !ok {
			continue
		}
		t, err := ParseEntityType(et)
		if err != nil {
			continue
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		into[t][alias] = string(val)
	}
	return nil
}

func ordered(recs []seqEntry) []Entry {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]Entry, len(recs))
	for i, r := range recs {
		out[i] = r.Entry
	}
	return out
}

// WriteBadger writes the catalog into a BadgerDB directory. Existing keys
// of the same names are overwritten.
func WriteBadger(c *Catalog, dir string) error {
	db, err := openBadger(dir, false)
	if err != nil {
		return err
	}
	defer db.Close()

	wb := db.NewWriteBatch()
	if err := fillBatch(wb, c); err != nil {
		wb.Cancel()
		return err
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush catalog snapshot: %w", err)
	}
	return nil
}

func fillBatch(wb *badger.WriteBatch, c *Catalog) error {
	dim := make([]byte, 4)
	binary.BigEndian.PutUint32(dim, uint32(c.Dim()))
	if err := wb.Set([]byte(badgerDimKey), dim); err != nil {
		return fmt.Errorf("write dim: %w", err)
	}

	for _, t := range []EntityType{Artist, Track} {
		for i, e := range c.Entries(t) {
			val, err := msgpack.Marshal(badgerRecord{Seq: i, Vector: e.Vector})
			if err != nil {
				return fmt.Errorf("encode %s: %w", e.Name, err)
			}
			if err := wb.Set([]byte(t.String()+"/"+e.Name), val); err != nil {
				return fmt.Errorf("write %s: %w", e.Name, err)
			}
		}
		for alias, canonical := range c.Aliases(t) {
			key := badgerAliasSpace + t.String() + "/" + alias
			if err := wb.Set([]byte(key), []byte(canonical)); err != nil {
				return fmt.Errorf("write alias %s: %w", alias, err)
			}
		}
	}
	return nil
}
