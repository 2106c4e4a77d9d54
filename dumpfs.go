// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"fmt"
	"io"

	"github.com/elliotnunn/lhafs/internal/lzh"
)

func dumpEntries(w io.Writer, list []*lzh.Entry) {
	const tfmt = "2006-01-02T15:04:05"
	fmt.Fprintf(w, "%-11s %-5s %-2s %10s %10s %6s %-4s %-19s %-10s %s\n",
		"MODE", "METHD", "LV", "PACKED", "SIZE", "RATIO", "CRC", "MODIFIED", "OS", "NAME")

	var packed, size int64
	for _, e := range list {
		crc := "----"
		if e.HasCRC {
			crc = fmt.Sprintf("%04x", e.CRC)
		}
		name := e.Name
		if e.Link != "" {
			name += " -> " + e.Link
		}
		mtime := "-"
		if !e.ModTime.IsZero() {
			mtime = e.ModTime.Format(tfmt)
		}
		fmt.Fprintf(w, "%-11v %-5s %-2d %10d %10d %6s %-4s %-19s %-10s %s\n",
			e.Mode(), e.Method, e.Level, e.PackedSize, e.OriginalSize, ratio(e.PackedSize, e.OriginalSize),
			crc, mtime, lzh.OSName(e.OS), name)
		packed += e.PackedSize
		size += e.OriginalSize
	}
	fmt.Fprintf(w, "%d entries, %d bytes packed into %d (%s)\n", len(list), size, packed, ratio(packed, size))
}

func ratio(packed, size int64) string {
	if size == 0 {
		return "******"
	}
	return fmt.Sprintf("%5.1f%%", float64(packed)*100/float64(size))
}
