// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package catalog remembers the entry listings of archives it has already scanned,
// so that a large archive need not be walked header by header every time.
package catalog

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/pebble/v2"
	"github.com/cockroachdb/pebble/v2/vfs"
	"github.com/elliotnunn/lhafs/internal/lzh"
)

// span is how much of each end of an archive goes into its fingerprint
const span = 64 << 10

// version changes whenever the stored form of a listing does
const version = 1

// Fingerprint identifies an archive by its contents.
type Fingerprint uint64

func (f Fingerprint) String() string { return fmt.Sprintf("%016x", uint64(f)) }

func (f Fingerprint) key() []byte { return []byte("lhafs/" + f.String()) }

// Sum hashes the size and the first and last 64 KiB of an archive.
func Sum(disk io.ReaderAt, size int64) (Fingerprint, error) {
	var h xxhash.Digest
	h.Reset()
	binary.Write(&h, binary.BigEndian, size)
	if _, err := io.Copy(&h, io.NewSectionReader(disk, 0, min(size, span))); err != nil {
		return 0, err
	}
	if size > span {
		tail := max(span, size-span)
		if _, err := io.Copy(&h, io.NewSectionReader(disk, tail, size-tail)); err != nil {
			return 0, err
		}
	}
	return Fingerprint(h.Sum64()), nil
}

type Catalog struct {
	db *pebble.DB
}

type record struct {
	Version int
	Entries []*lzh.Entry
}

// Open opens or creates the database in dir, or an ephemeral one if dir is empty.
func Open(dir string) (*Catalog, error) {
	opts := &pebble.Options{}
	if dir == "" {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, err
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error { return c.db.Close() }

// Load returns false if the archive has not been seen, or was recorded in an older form.
func (c *Catalog) Load(fp Fingerprint) ([]*lzh.Entry, bool, error) {
	val, closer, err := c.db.Get(fp.key())
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	var rec record
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, false, fmt.Errorf("catalog entry %v: %w", fp, err)
	}
	if rec.Version != version {
		return nil, false, nil
	}
	return rec.Entries, true, nil
}

func (c *Catalog) Store(fp Fingerprint, list []*lzh.Entry) error {
	val, err := json.Marshal(record{Version: version, Entries: list})
	if err != nil {
		return err
	}
	return c.db.Set(fp.key(), val, pebble.Sync)
}

// Listing returns the entries of an archive, scanning it only if it is not already known.
// A listing cut short by a bad header is returned with the error but not remembered.
func (c *Catalog) Listing(disk io.ReaderAt, size int64) ([]*lzh.Entry, error) {
	fp, err := Sum(disk, size)
	if err != nil {
		return nil, err
	}
	if list, ok, err := c.Load(fp); err != nil {
		return nil, err
	} else if ok {
		return list, nil
	}

	var list []*lzh.Entry
	for e, err := range lzh.Scan(disk) {
		if err != nil {
			return list, err
		}
		list = append(list, e)
	}
	return list, c.Store(fp, list)
}
