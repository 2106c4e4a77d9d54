// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package fskeleton

import (
	"io/fs"
	"path"
	"slices"
	"strings"
)

// Open opens the named file.
// It blocks until the file is created or [FS.NoMore] rules it out.
func (fsys *FS) Open(name string) (f fs.File, err error) {
	defer func() {
		if err != nil {
			err = &fs.PathError{Op: "open", Path: name, Err: err}
		}
	}()

	n, err := fsys.lookup(name, true)
	if err != nil {
		return nil, err
	}
	return n.open()
}

// ReadLink returns the destination of the named symbolic link.
func (fsys *FS) ReadLink(name string) (target string, err error) {
	defer func() {
		if err != nil {
			err = &fs.PathError{Op: "readlink", Path: name, Err: err}
		}
	}()

	n, err := fsys.lookup(name, false)
	if err != nil {
		return "", err
	}
	l, ok := n.(*linkent)
	if !ok {
		return "", fs.ErrInvalid
	}
	return l.target, nil
}

// Lstat returns a FileInfo describing the named file.
// If the file is a symlink, the returned FileInfo describes the symbolic link, not the linked file.
func (fsys *FS) Lstat(name string) (info fs.FileInfo, err error) {
	defer func() {
		if err != nil {
			err = &fs.PathError{Op: "lstat", Path: name, Err: err}
		}
	}()
	return fsys.lookup(name, false)
}

// Stat returns a FileInfo describing the named file.
func (fsys *FS) Stat(name string) (info fs.FileInfo, err error) {
	defer func() {
		if err != nil {
			err = &fs.PathError{Op: "stat", Path: name, Err: err}
		}
	}()
	return fsys.lookup(name, true)
}

// ReadDir waits for the directory to be complete and lists it sorted by name.
func (fsys *FS) ReadDir(name string) (list []fs.DirEntry, err error) {
	defer func() {
		if err != nil {
			err = &fs.PathError{Op: "readdir", Path: name, Err: err}
		}
	}()

	n, err := fsys.lookup(name, true)
	if err != nil {
		return nil, err
	}
	d, ok := n.(*dirent)
	if !ok {
		return nil, fs.ErrInvalid
	}
	list, _ = (&dir{ent: d}).ReadDir(-1)
	slices.SortFunc(list, func(a, b fs.DirEntry) int { return strings.Compare(a.Name(), b.Name()) })
	return list, nil
}

func (fsys *FS) lookup(name string, followLastLink bool) (node, error) {
	if !fs.ValidPath(name) {
		return nil, fs.ErrInvalid
	}

	var (
		at                node = fsys.root
		comps                  = components(name)
		symlinkLoopDetect map[*linkent]struct{}
	)
	for len(comps) > 0 {
		d, ok := at.(*dirent)
		if !ok {
			return nil, fs.ErrNotExist
		}
		c := comps[0]
		comps = comps[1:]

		next, err := d.lookup(c)
		if err != nil {
			return nil, err
		}
		at = next

		// Is it a symlink that should be followed?
		if l, ok := at.(*linkent); ok && (len(comps) > 0 || followLastLink) {
			if _, bad := symlinkLoopDetect[l]; bad {
				return nil, fs.ErrNotExist
			}
			if symlinkLoopDetect == nil {
				symlinkLoopDetect = make(map[*linkent]struct{})
			}
			symlinkLoopDetect[l] = struct{}{}

			at = fsys.root // symlink paths are relative to root
			comps = components(path.Join(append([]string{l.target}, comps...)...))
		}
	}
	return at, nil
}
