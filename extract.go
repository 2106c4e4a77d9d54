// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
)

var includes []string

var extractCmd = &cobra.Command{
	Use:   "extract ARCHIVE [DEST]",
	Short: "Unpack an archive into a directory",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest := "."
		if len(args) == 2 {
			dest = args[1]
		}
		a, err := openArchive(args[0])
		if err != nil {
			return err
		}
		defer a.Close()
		fsys, err := a.FS()
		if err != nil {
			return err
		}
		return extract(fsys, dest, includes)
	},
}

func init() {
	extractCmd.Flags().StringArrayVar(&includes, "include", nil, "only extract paths matching this glob (may be repeated)")
}

var errExtract = errors.New("some files could not be extracted")

// extract copies the tree into dest, stopping at nothing short of a failure to write.
// Files that cannot be decoded are reported and left out.
func extract(fsys fs.FS, dest string, patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("bad --include pattern %q", p)
		}
	}

	type stamp struct {
		name  string
		mtime time.Time
	}
	var dirs []stamp
	failed := false

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		} else if p == "." || !included(p, patterns) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		target := filepath.Join(dest, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		switch info.Mode().Type() {
		case fs.ModeDir:
			if err := os.MkdirAll(target, info.Mode().Perm()|0o700); err != nil {
				return err
			}
			dirs = append(dirs, stamp{target, info.ModTime()})
		case fs.ModeSymlink:
			link, err := fs.ReadLink(fsys, p)
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(filepath.FromSlash(path.Dir(p)), filepath.FromSlash(link))
			if err != nil {
				return err
			}
			os.Remove(target)
			if err := os.Symlink(rel, target); err != nil {
				return err
			}
			if err := setLinkTime(target, info.ModTime()); err != nil {
				slog.Debug("extractLinkTime", "path", p, "err", err)
			}
		default:
			dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm()|0o200)
			if err != nil {
				return err
			}
			if err := copyFile(dst, fsys, p); err != nil {
				os.Remove(target)
				slog.Warn("extractError", "path", p, "err", err)
				failed = true
			} else if !info.ModTime().IsZero() {
				os.Chtimes(target, info.ModTime(), info.ModTime())
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// deepest first, after their contents
	for _, d := range slices.Backward(dirs) {
		if !d.mtime.IsZero() {
			os.Chtimes(d.name, d.mtime, d.mtime)
		}
	}
	if failed {
		return errExtract
	}
	return nil
}

// copyFile always closes dst
func copyFile(dst *os.File, fsys fs.FS, p string) error {
	src, err := fsys.Open(p)
	if err != nil {
		dst.Close()
		return err
	}
	defer src.Close()
	_, err = io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	return err
}

// included reports whether any pattern matches, or whether there are no patterns
func included(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}
