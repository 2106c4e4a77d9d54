// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package fskeleton attempts to factor out the common and error-prone code in different [io.FS] implementations.
// Notably, it is only useful for static filesystems where
// the whole directory tree and all metadata is known in advance,
// although the tree may be published while a background goroutine is still discovering it.
package fskeleton

import (
	"io"
	"io/fs"
	"strings"
	"sync"
	"time"
)

func New() *FS {
	fsys := &FS{root: newDir()}
	fsys.root.name = "."
	fsys.wcond = sync.NewCond(&fsys.mu)
	return fsys
}

// FS is safe for concurrent use from multiple goroutines. It should not be copied after creation.
type FS struct {
	root *dirent

	mu    sync.Mutex
	wcond *sync.Cond // points to mu
	order []walkent  // creation order
	done  bool
}

type walkent struct {
	name string
	mode fs.FileMode
}

var (
	_ fs.StatFS    = new(FS)
	_ fs.ReadDirFS = new(FS)
)

// CreateDir creates a directory at the specified path.
//
// In common with the other Create*() functions, any missing parent directories will be created implicitly.
// Implicit directories can later be made explicit (only once) with [FS.CreateDir].
//
// mode, mtime and sys are returned by the corresponding methods of [fs.FileInfo].
func (fsys *FS) CreateDir(name string, mode fs.FileMode, mtime time.Time, sys any) error {
	if !fs.ValidPath(name) {
		return fs.ErrInvalid
	}
	nu := newDir()
	nu.name, nu.mode, nu.modtime, nu.sys = base(name), mode&^fs.ModeType, mtime, sys
	return fsys.create(name, nu)
}

func (fsys *FS) createFile(name string, data any, size int64, mode fs.FileMode, mtime time.Time, sys any) error {
	if !fs.ValidPath(name) || name == "." {
		return fs.ErrInvalid
	}
	nu := &fileent{
		name:    base(name),
		size:    size,
		mode:    mode &^ fs.ModeType,
		modtime: mtime,
		sys:     sys,
		data:    data,
	}
	return fsys.create(name, nu)
}

// CreateErrorFile creates a regular file at the specified path,
// which always returns the error of your choice on Read (but not on Close).
func (fsys *FS) CreateErrorFile(name string, err error, size int64, mode fs.FileMode, mtime time.Time, sys any) error {
	return fsys.createFile(name, err, size, mode, mtime, sys)
}

// CreateReaderFile creates a regular file at the specified path, which implements the bare minimum of [fs.File].
// The function is called on the first Read, once per Open.
func (fsys *FS) CreateReaderFile(name string, r func() (io.Reader, error), size int64, mode fs.FileMode, mtime time.Time, sys any) error {
	return fsys.createFile(name, r, size, mode, mtime, sys)
}

// CreateReaderAtFile creates a regular file at the specified path, which additionally implements [io.ReaderAt] and [io.Seeker].
func (fsys *FS) CreateReaderAtFile(name string, r io.ReaderAt, size int64, mode fs.FileMode, mtime time.Time, sys any) error {
	return fsys.createFile(name, r, size, mode, mtime, sys)
}

// CreateSymlink creates a symbolic link at the specified path.
//
// The target argument must be an absolute path satisfying [fs.ValidPath],
// such as one returned by [CleanLinkTarget].
// There is no need to set the the [fs.ModeSymlink] bit.
func (fsys *FS) CreateSymlink(name, target string, mode fs.FileMode, mtime time.Time, sys any) error {
	if !fs.ValidPath(name) || name == "." || !fs.ValidPath(target) {
		return fs.ErrInvalid
	}
	nu := &linkent{name: base(name), target: target, mode: mode &^ fs.ModeType, modtime: mtime, sys: sys}
	return fsys.create(name, nu)
}

// NoMore prevents all future Create*() calls, which will fail with an error wrapping [fs.ErrPermission].
//
// NoMore unblocks any blocked calls waiting for a file to appear.
func (fsys *FS) NoMore() {
	fsys.root.iCond.L.Lock()
	fsys.root.iOK = true
	fsys.root.iCond.Broadcast()
	fsys.root.iCond.L.Unlock()
	fsys.root.noMore()

	fsys.mu.Lock()
	fsys.done = true
	fsys.wcond.Broadcast()
	fsys.mu.Unlock()
}

type node interface {
	fs.DirEntry
	fs.FileInfo
	open() (fs.File, error)
}

func (fsys *FS) create(name string, n node) error {
	comps := components(name)
	if len(comps) == 0 {
		if dir, ok := n.(*dirent); ok {
			return fsys.root.replace(dir)
		}
		return fs.ErrExist
	}

	at := fsys.root
	for i, c := range comps[:len(comps)-1] {
		sub, created, err := at.implicitSubdir(c)
		if err != nil {
			return err
		}
		if created {
			fsys.record(strings.Join(comps[:i+1], "/"), fs.ModeDir)
		}
		at = sub
	}
	if err := at.put(n); err != nil {
		return err
	}
	if _, ok := n.(*dirent); !ok || !fsys.recorded(name) {
		fsys.record(name, n.Type())
	}
	return nil
}

func (fsys *FS) record(name string, mode fs.FileMode) {
	fsys.mu.Lock()
	fsys.order = append(fsys.order, walkent{name, mode})
	fsys.wcond.Broadcast()
	fsys.mu.Unlock()
}

// recorded is only consulted for directories, which may have been created implicitly
func (fsys *FS) recorded(name string) bool {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	for _, w := range fsys.order {
		if w.name == name {
			return true
		}
	}
	return false
}

func components(name string) []string {
	if name == "." {
		return nil
	}
	return strings.Split(name, "/")
}

func base(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}
