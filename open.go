// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	bufra "github.com/avvmoto/buf-readerat"

	"github.com/elliotnunn/lhafs/internal/catalog"
	"github.com/elliotnunn/lhafs/internal/lzh"
)

// archive is an open archive file, already unwrapped from any compression
type archive struct {
	name string
	f    *os.File
	disk io.ReaderAt
	size int64
}

func openArchive(name string) (*archive, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	s, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	// syscalls to os.File are slow, so buffer them
	var disk io.ReaderAt = &lockedReaderAt{r: bufra.NewBufReaderAt(f, 4096)}
	disk, size, inner, err := unwrap(disk, s.Size(), name)
	if err != nil {
		f.Close()
		return nil, err
	}
	if inner != name {
		slog.Debug("archiveUnwrapped", "path", name, "inner", inner, "size", size)
	}
	return &archive{name: name, f: f, disk: disk, size: size}, nil
}

func (a *archive) Close() error { return a.f.Close() }

func (a *archive) FS() (fs.FS, error) { return lzh.New(a.disk) }

// entries scans the archive, consulting the listing cache if there is one
func (a *archive) entries() ([]*lzh.Entry, error) {
	if cacheDir == "" {
		var list []*lzh.Entry
		for e, err := range lzh.Scan(a.disk) {
			if err != nil {
				return list, err
			}
			list = append(list, e)
		}
		return list, nil
	}

	c, err := catalog.Open(cacheDir)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	return c.Listing(a.disk, a.size)
}

// lockedReaderAt lets the buffered reader be shared by the background scan and the readers of the tree
type lockedReaderAt struct {
	mu sync.Mutex
	r  io.ReaderAt
}

func (l *lockedReaderAt) ReadAt(p []byte, off int64) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.ReadAt(p, off)
}
