// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package fskeleton

import (
	"io"
	"io/fs"
	"testing/iotest"
	"time"
)

var _ node = new(fileent)

type fileent struct {
	name    string
	size    int64
	mode    fs.FileMode
	modtime time.Time
	sys     any

	data any // io.ReaderAt
	// or func() (io.Reader, error)
	// or error
}

func (f *fileent) open() (fs.File, error) {
	if ra, ok := f.data.(io.ReaderAt); ok {
		return &rafile{ent: f, SectionReader: io.NewSectionReader(ra, 0, f.size)}, nil
	}
	return &file{ent: f}, nil
}

// common to fs.DirEntry and fs.FileInfo
func (f *fileent) Name() string { return f.name }
func (f *fileent) IsDir() bool  { return false }

// fs.DirEntry
func (f *fileent) Type() fs.FileMode          { return 0 }
func (f *fileent) Info() (fs.FileInfo, error) { return f, nil }

// fs.FileInfo
func (f *fileent) Size() int64        { return f.size }
func (f *fileent) Mode() fs.FileMode  { return f.mode }
func (f *fileent) ModTime() time.Time { return f.modtime }
func (f *fileent) Sys() any           { return f.sys }

// An Open()ed file
type file struct {
	ent *fileent
	rd  io.Reader
}

type rafile struct {
	ent *fileent
	*io.SectionReader
}

func (f *rafile) Close() error               { return nil }
func (f *rafile) Stat() (fs.FileInfo, error) { return f.ent, nil }

func (f *file) Stat() (fs.FileInfo, error) { return f.ent, nil }
func (f *file) Read(p []byte) (n int, err error) {
	if f.rd == nil {
		switch d := f.ent.data.(type) {
		case func() (io.Reader, error):
			f.rd, err = d()
			if err != nil {
				return n, err
			}
		case error:
			f.rd = iotest.ErrReader(d)
		default:
			panic("file.data is not any of our known types")
		}
	}
	return f.rd.Read(p)
}

func (f *file) Close() error {
	if cl, ok := f.rd.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
