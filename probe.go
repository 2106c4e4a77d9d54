// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/therootcompany/xz"
)

// maxUnwrapped bounds the memory spent on a compressed archive
const maxUnwrapped = 1 << 32

// unwrap decompresses a gzip, bzip2 or xz archive into memory,
// returning anything else unchanged
func unwrap(disk io.ReaderAt, size int64, name string) (io.ReaderAt, int64, string, error) {
	var header [6]byte
	n, _ := disk.ReadAt(header[:], 0)
	matchAt := func(s string) bool {
		return n >= len(s) && string(header[:len(s)]) == s
	}
	whole := io.NewSectionReader(disk, 0, size)

	var r io.Reader
	var inner string
	switch {
	case matchAt("\x1f\x8b"): // gzip
		zr, err := gzip.NewReader(whole)
		if err != nil {
			return nil, 0, "", err
		}
		r, inner = zr, changeSuffix(filepath.Base(name), ".gz .gzip")
	case matchAt("BZh"): // bzip2
		r, inner = bzip2.NewReader(whole), changeSuffix(filepath.Base(name), ".bz .bz2 .bzip2")
	case matchAt("\xfd7zXZ\x00"): // xz
		xr, err := xz.NewReader(whole, xz.DefaultDictMax)
		if err != nil {
			return nil, 0, "", err
		}
		r, inner = xr, changeSuffix(filepath.Base(name), ".xz")
	default:
		return disk, size, name, nil
	}

	buf, err := io.ReadAll(io.LimitReader(r, maxUnwrapped+1))
	if err != nil {
		return nil, 0, "", fmt.Errorf("%s: %w", name, err)
	} else if len(buf) > maxUnwrapped {
		return nil, 0, "", fmt.Errorf("%s: too large to decompress into memory", name)
	}
	return bytes.NewReader(buf), int64(len(buf)), inner, nil
}

func changeSuffix(s string, suffixes string) string {
	for _, from := range strings.Split(suffixes, " ") {
		if strings.HasSuffix(s, from) && len(s) > len(from) {
			return s[:len(s)-len(from)]
		}
	}
	return s
}
