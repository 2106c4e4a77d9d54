// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package lzh

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/elliotnunn/lhafs/internal/lha"
)

// Header layouts
//
//	level 0  size(1) sum(1) method(5) packed(4) original(4) dostime(4) attr(1) level(1)
//	         namelen(1) name crc(2) [os(1) ext]
//	level 1  as level 0 up to crc, then os(1) ... next(2), extended headers follow the base header
//	         and are counted in the packed size
//	level 2  size(2) method(5) packed(4) original(4) unixtime(4) attr(1) level(1)
//	         crc(2) os(1) next(2) extended headers [padding]
//	level 3  4(2) method(5) packed(4) original(4) unixtime(4) attr(1) level(1)
//	         crc(2) os(1) size(4) next(4) extended headers
//
// Each extended header is type(1) body next(2 or 4).
const (
	commonSize  = 21 // through the level byte
	level2Size  = 26
	level3Size  = 32
	maxExtTotal = 1 << 20
)

var le = binary.LittleEndian

type extState struct {
	name, dir    []byte
	headerCRC    uint16
	hasHeaderCRC bool
	crcAt        int  // position of the header CRC within an in-memory header
	stamped      bool // ModTime came from a Unix or Windows timestamp
}

// readHeader returns io.EOF at the end-of-archive mark or the end of the file.
func readHeader(disk io.ReaderAt, off int64) (*Entry, error) {
	var peek [commonSize + 1]byte
	n, err := disk.ReadAt(peek[:], off)
	if n == 0 || peek[0] == 0 {
		if err == nil || err == io.EOF {
			return nil, io.EOF
		}
		return nil, err
	}
	if n < commonSize {
		return nil, fmt.Errorf("%w: truncated at offset %d", ErrHeader, off)
	}

	e := &Entry{HeaderOffset: off, Level: int(peek[20])}
	switch e.Level {
	case 0, 1:
		err = e.readLevel01(disk, int(peek[0]))
	case 2:
		err = e.readLevel2(disk, int(le.Uint16(peek[:])))
	case 3:
		err = e.readLevel3(disk, int(le.Uint16(peek[:])))
	default:
		err = fmt.Errorf("%w: unknown level %d", ErrHeader, e.Level)
	}
	if err != nil {
		return nil, fmt.Errorf("%w at offset %d", err, off)
	}
	return e, nil
}

// common reads the fields shared by every level and returns the raw timestamp
func (e *Entry) common(h []byte) uint32 {
	e.Method = string(h[2:7])
	e.PackedSize = int64(le.Uint32(h[7:]))
	e.OriginalSize = int64(le.Uint32(h[11:]))
	e.Attribute = h[19]
	return le.Uint32(h[15:])
}

func (e *Entry) readLevel01(disk io.ReaderAt, hsize int) error {
	if hsize+2 < commonSize+1 {
		return fmt.Errorf("%w: header size %d", ErrHeader, hsize)
	}
	h, err := readFull(disk, e.HeaderOffset, hsize+2)
	if err != nil {
		return err
	}
	var sum byte
	for _, c := range h[2:] {
		sum += c
	}
	if sum != h[1] {
		return fmt.Errorf("%w: header sum %#02x, expected %#02x", ErrHeader, sum, h[1])
	}

	stamp := e.common(h)
	nlen := int(h[21])
	if 22+nlen > len(h) {
		return fmt.Errorf("%w: name overruns header", ErrHeader)
	}
	x := extState{name: h[22 : 22+nlen], crcAt: -1}
	rest := h[22+nlen:]
	e.DataOffset = e.HeaderOffset + int64(len(h))

	if e.Level == 0 {
		switch len(rest) {
		case 0: // no CRC at all
		case 1:
			return fmt.Errorf("%w: unknown level 0 layout", ErrHeader)
		default:
			e.CRC, e.HasCRC = le.Uint16(rest), true
			rest = rest[2:]
			if len(rest) == 0 {
				break
			}
			e.OS, rest = rest[0], rest[1:]
			if e.OS == osUnix && len(rest) >= 11 { // minor version, time, mode, uid, gid
				e.ModTime = time.Unix(int64(le.Uint32(rest[1:])), 0).UTC()
				e.UnixMode = le.Uint16(rest[5:])
				e.UID = int(le.Uint16(rest[7:]))
				e.GID = int(le.Uint16(rest[9:]))
				x.stamped = true
			} else if e.OS == osUnix {
				e.OS = osGeneric
			}
		}
	} else {
		if len(rest) < 5 {
			return fmt.Errorf("%w: level 1 header too short", ErrHeader)
		}
		e.CRC, e.HasCRC = le.Uint16(rest), true
		e.OS = rest[2]
		total, err := e.readExtFrom(disk, e.DataOffset, int(le.Uint16(h[len(h)-2:])), &x)
		if err != nil {
			return err
		}
		e.PackedSize -= total
		e.DataOffset += total
	}
	return e.finish(stamp, &x)
}

func (e *Entry) readLevel2(disk io.ReaderAt, hsize int) error {
	if hsize < level2Size {
		return fmt.Errorf("%w: header size %d", ErrHeader, hsize)
	}
	h, err := readFull(disk, e.HeaderOffset, hsize)
	if err != nil {
		return err
	}
	stamp := e.common(h)
	e.CRC, e.HasCRC = le.Uint16(h[21:]), true
	e.OS = h[23]
	x := extState{crcAt: -1}
	if err := e.walkExt(h, level2Size, int(le.Uint16(h[24:])), 2, &x); err != nil {
		return err
	}
	if err := checkHeaderCRC(h, &x); err != nil {
		return err
	}
	e.DataOffset = e.HeaderOffset + int64(hsize) // trailing padding byte included
	return e.finish(stamp, &x)
}

func (e *Entry) readLevel3(disk io.ReaderAt, sizeLen int) error {
	if sizeLen != 4 {
		return fmt.Errorf("%w: level 3 size field of %d bytes", ErrHeader, sizeLen)
	}
	fixed, err := readFull(disk, e.HeaderOffset, level3Size)
	if err != nil {
		return err
	}
	hsize := int64(le.Uint32(fixed[24:]))
	if hsize < level3Size || hsize > maxExtTotal {
		return fmt.Errorf("%w: header size %d", ErrHeader, hsize)
	}
	h, err := readFull(disk, e.HeaderOffset, int(hsize))
	if err != nil {
		return err
	}
	stamp := e.common(h)
	e.CRC, e.HasCRC = le.Uint16(h[21:]), true
	e.OS = h[23]
	x := extState{crcAt: -1}
	if err := e.walkExt(h, level3Size, int(le.Uint32(h[28:])), 4, &x); err != nil {
		return err
	}
	if err := checkHeaderCRC(h, &x); err != nil {
		return err
	}
	e.DataOffset = e.HeaderOffset + hsize
	return e.finish(stamp, &x)
}

// walkExt handles extended headers already read along with the base header (levels 2 and 3)
func (e *Entry) walkExt(h []byte, pos, next, sizeLen int, x *extState) error {
	for next != 0 {
		if next < 1+sizeLen || next > len(h)-pos {
			return fmt.Errorf("%w: extended header of %d bytes", ErrHeader, next)
		}
		rec := h[pos : pos+next]
		if rec[0] == 0x00 {
			x.crcAt = pos + 1
		}
		e.ext(rec[0], rec[1:next-sizeLen], x)
		pos += next
		if sizeLen == 2 {
			next = int(le.Uint16(rec[next-2:]))
		} else {
			next = int(le.Uint32(rec[next-4:]))
		}
	}
	return nil
}

// readExtFrom reads the extended headers that trail a level 1 base header
func (e *Entry) readExtFrom(disk io.ReaderAt, pos int64, next int, x *extState) (total int64, err error) {
	for next != 0 {
		if next < 3 {
			return 0, fmt.Errorf("%w: extended header of %d bytes", ErrHeader, next)
		}
		total += int64(next)
		if total > maxExtTotal {
			return 0, fmt.Errorf("%w: extended headers too long", ErrHeader)
		}
		rec, err := readFull(disk, pos, next)
		if err != nil {
			return 0, err
		}
		e.ext(rec[0], rec[1:next-2], x)
		pos += int64(next)
		next = int(le.Uint16(rec[next-2:]))
	}
	return total, nil
}

func (e *Entry) ext(typ byte, body []byte, x *extState) {
	switch typ {
	case 0x00: // header CRC
		if len(body) >= 2 {
			x.headerCRC, x.hasHeaderCRC = le.Uint16(body), true
		}
	case 0x01:
		x.name = body
	case 0x02: // directory, 0xff-separated
		x.dir = body
	case 0x3f:
		e.Comment = decodeText(body, e.OS)
	case 0x40: // MS-DOS attribute, 2 bytes
		if len(body) >= 1 {
			e.Attribute = body[0]
		}
	case 0x41: // Windows FILETIME creation, modification, access
		if len(body) >= 16 && e.Level < 2 {
			e.ModTime = filetime(le.Uint64(body[8:]))
			x.stamped = true
		}
	case 0x42: // 64-bit sizes
		if len(body) >= 16 {
			e.PackedSize = int64(le.Uint64(body))
			e.OriginalSize = int64(le.Uint64(body[8:]))
		}
	case 0x50:
		if len(body) >= 2 {
			e.UnixMode = le.Uint16(body)
		}
	case 0x51:
		if len(body) >= 4 {
			e.GID = int(le.Uint16(body))
			e.UID = int(le.Uint16(body[2:]))
		}
	case 0x52:
		e.Group = string(body)
	case 0x53:
		e.User = string(body)
	case 0x54:
		if len(body) >= 4 {
			e.ModTime = time.Unix(int64(le.Uint32(body)), 0).UTC()
			x.stamped = true
		}
	}
}

func checkHeaderCRC(h []byte, x *extState) error {
	if !x.hasHeaderCRC || x.crcAt < 0 {
		return nil
	}
	c := slices.Clone(h)
	c[x.crcAt], c[x.crcAt+1] = 0, 0
	if got := lha.UpdateCRC16(0, c); got != x.headerCRC {
		return fmt.Errorf("%w: header CRC %#04x, expected %#04x", ErrHeader, got, x.headerCRC)
	}
	return nil
}

// finish settles the fields that depend on the whole header
func (e *Entry) finish(stamp uint32, x *extState) error {
	if e.PackedSize < 0 || e.OriginalSize < 0 {
		return fmt.Errorf("%w: negative size", ErrHeader)
	}
	if !x.stamped {
		if e.Level >= 2 {
			e.ModTime = time.Unix(int64(stamp), 0).UTC()
		} else {
			e.ModTime = dosTime(stamp)
		}
	}

	raw := x.name
	if len(x.dir) > 0 {
		raw = slices.Concat(x.dir, []byte{0xff}, x.name)
	}
	if e.OS == osAmiga && e.Method == lha.LH0.String() && e.OriginalSize == 0 &&
		len(raw) > 0 && isSep(raw[len(raw)-1]) {
		e.Method = lha.LHD.String()
	}
	if e.UnixMode&0o170000 == 0o120000 {
		if i := bytes.IndexByte(raw, '|'); i >= 0 {
			e.Link = convertSeps(raw[i+1:], e.OS)
			raw = raw[:i]
		}
	}
	e.Name = decodeName(raw, e.OS)
	return nil
}

func readFull(disk io.ReaderAt, off int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := disk.ReadAt(buf, off)
	if got == n {
		return buf, nil
	}
	if err == nil || err == io.EOF {
		err = fmt.Errorf("%w: truncated", ErrHeader)
	}
	return nil, err
}

// dosTime converts an MS-DOS date and time, which carry no zone, as UTC.
func dosTime(t uint32) time.Time {
	if t == 0 {
		return time.Time{}
	}
	return time.Date(
		int(t>>25)+1980, time.Month(t>>21&0xf), int(t>>16&0x1f),
		int(t>>11&0x1f), int(t>>5&0x3f), int(t&0x1f)*2,
		0, time.UTC)
}

// filetimeEpoch is 1970-01-01 in 100ns ticks since 1601-01-01
const filetimeEpoch = 116444736000000000

func filetime(ft uint64) time.Time {
	d := int64(ft) - filetimeEpoch
	return time.Unix(d/1e7, d%1e7*100).UTC()
}
