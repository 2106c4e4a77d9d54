// Copyright (c) Elliot Nunn
// Licensed under the MIT license

//go:build unix

package main

import (
	"time"

	"golang.org/x/sys/unix"
)

// setLinkTime stamps the link itself, not what it points to
func setLinkTime(name string, mtime time.Time) error {
	if mtime.IsZero() {
		return nil
	}
	ts := unix.NsecToTimespec(mtime.UnixNano())
	return unix.UtimesNanoAt(unix.AT_FDCWD, name, []unix.Timespec{ts, ts}, unix.AT_SYMLINK_NOFOLLOW)
}
