// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package webdavadapter publishes an [fs.FS] as a read-only [webdav.FileSystem],
// so that an archive can be mounted by a desktop file manager.
package webdavadapter

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/webdav"
)

var errNoSeek = errors.New("file does not support seeking")

type FileSystem struct {
	Inner fs.FS
}

// The create/update/delete calls are refused

func (*FileSystem) Mkdir(ctx context.Context, name string, perm os.FileMode) error {
	slog.Debug("webdavRefused", "op", "mkdir", "name", name)
	return fs.ErrPermission
}

func (*FileSystem) RemoveAll(ctx context.Context, name string) error {
	slog.Debug("webdavRefused", "op", "removeall", "name", name)
	return fs.ErrPermission
}

func (*FileSystem) Rename(ctx context.Context, oldName, newName string) error {
	slog.Debug("webdavRefused", "op", "rename", "name", oldName)
	return fs.ErrPermission
}

func (fsys *FileSystem) OpenFile(_ context.Context, name string, flag int, perm os.FileMode) (webdav.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		return nil, fs.ErrPermission
	}
	p := pathCvt(name)
	f, err := fsys.Inner.Open(p)
	if errors.Is(err, fs.ErrInvalid) {
		return nil, fs.ErrNotExist
	} else if err != nil {
		return nil, err
	}
	return &File{Inner: f, fsys: fsys.Inner, name: p}, nil
}

func (fsys *FileSystem) Stat(_ context.Context, name string) (os.FileInfo, error) {
	s, err := fs.Stat(fsys.Inner, pathCvt(name))
	if errors.Is(err, fs.ErrInvalid) {
		err = fs.ErrNotExist
	}
	return s, err
}

// [FileSystem.OpenFile] is guaranteed to return [*File]
type File struct {
	Inner fs.File
	fsys  fs.FS
	name  string
}

func (f *File) Close() error                      { return f.Inner.Close() }
func (f *File) Read(p []byte) (n int, err error)  { return f.Inner.Read(p) }
func (f *File) Stat() (fs.FileInfo, error)        { return f.Inner.Stat() }
func (f *File) Write(p []byte) (n int, err error) { return 0, fs.ErrPermission }

func (f *File) Seek(offset int64, whence int) (int64, error) {
	if s, ok := f.Inner.(io.Seeker); ok {
		return s.Seek(offset, whence)
	}
	return 0, errNoSeek
}

// Readdir follows symbolic links, which WebDAV clients cannot represent
func (f *File) Readdir(count int) ([]fs.FileInfo, error) {
	rdf, ok := f.Inner.(fs.ReadDirFile)
	if !ok {
		return nil, io.EOF
	}
	list, err := rdf.ReadDir(count)
	infos := make([]fs.FileInfo, 0, len(list))
	for _, de := range list {
		infos = append(infos, &FileInfo{Inner: de, fsys: f.fsys, name: path.Join(f.name, de.Name())})
	}
	return infos, err
}

// FileInfo defers the cost of finding out about a directory entry until a property is requested
type FileInfo struct {
	Inner fs.DirEntry
	fsys  fs.FS
	name  string

	once   sync.Once
	target fs.FileInfo
}

func (i *FileInfo) resolve() fs.FileInfo {
	i.once.Do(func() {
		var err error
		if i.Inner.Type() == fs.ModeSymlink {
			i.target, err = fs.Stat(i.fsys, i.name)
		} else {
			i.target, err = i.Inner.Info()
		}
		if err != nil {
			slog.Debug("webdavStatError", "name", i.name, "err", err)
		}
	})
	return i.target
}

func (i *FileInfo) Name() string { return i.Inner.Name() }

func (i *FileInfo) Size() int64 {
	if t := i.resolve(); t != nil {
		return t.Size()
	}
	return 0
}

func (i *FileInfo) Mode() fs.FileMode {
	if i.IsDir() {
		return fs.ModeDir | 0o555
	}
	return 0o444
}

func (i *FileInfo) ModTime() time.Time {
	if t := i.resolve(); t != nil {
		return t.ModTime()
	}
	return time.Unix(0, 0)
}

func (i *FileInfo) IsDir() bool {
	if t := i.resolve(); t != nil {
		return t.IsDir()
	}
	return i.Inner.IsDir()
}

func (i *FileInfo) Sys() any { return nil }

func pathCvt(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return "."
	}
	return p
}
