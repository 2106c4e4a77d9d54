// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package lzh reads LHA and LArc archives (.lzh, .lha, .lzs) as an [fs.FS].
package lzh

import (
	"errors"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"time"

	"github.com/elliotnunn/lhafs/internal/decompressioncache"
	"github.com/elliotnunn/lhafs/internal/fskeleton"
	"github.com/elliotnunn/lhafs/internal/lha"
)

var (
	ErrFormat = errors.New("not an LHA archive")
	ErrHeader = errors.New("bad LHA entry header")
)

// OS identifiers found in the headers
const (
	osGeneric = 0
	osMSDOS   = 'M'
	osUnix    = 'U'
	osMac     = 'm'
	osAmiga   = 'A'
	osJava    = 'J'
	osHuman   = 'H'
	osWin95   = 'w'
	osWinNT   = 'W'
)

// Entry is one parsed entry header.
type Entry struct {
	Name   string // cleaned, slash-separated, relative to the archive root
	Link   string // symlink target as stored
	Method string // five-byte tag such as "-lh5-"
	Level  int
	OS     byte

	PackedSize   int64
	OriginalSize int64
	ModTime      time.Time
	Attribute    byte   // MS-DOS attribute bits
	UnixMode     uint16 // zero unless the header carries one
	UID, GID     int
	User, Group  string
	Comment      string
	CRC          uint16
	HasCRC       bool

	HeaderOffset int64
	DataOffset   int64
}

// IsDir also honours a Unix directory mode.
func (e *Entry) IsDir() bool {
	return e.Method == lha.LHD.String() || e.UnixMode&0o170000 == 0o040000
}

// Mode translates whichever permissions the header carries.
func (e *Entry) Mode() fs.FileMode {
	var mode fs.FileMode
	switch {
	case e.UnixMode != 0:
		mode = fs.FileMode(e.UnixMode & 0o777)
	case e.Attribute&0x01 != 0: // read only
		mode = 0o444
	default:
		mode = 0o644
	}
	switch {
	case e.IsDir():
		if e.UnixMode == 0 {
			mode |= 0o111
		}
		mode |= fs.ModeDir
	case e.Link != "":
		mode |= fs.ModeSymlink
	}
	return mode
}

func (e *Entry) params() (lha.Params, error) {
	m, err := lha.ParseMethod(e.Method)
	if err != nil {
		return lha.Params{}, err
	}
	return lha.Params{
		Method:       m,
		OriginalSize: e.OriginalSize,
		PackedSize:   e.PackedSize,
	}, nil
}

// Open decodes the entry from the start, checking the CRC at the end.
func (e *Entry) Open(disk io.ReaderAt) (io.Reader, error) {
	p, err := e.params()
	if err != nil {
		return nil, err
	}
	r, err := lha.NewReader(io.NewSectionReader(disk, e.DataOffset, e.PackedSize), p)
	if err != nil {
		return nil, err
	}
	if !e.HasCRC {
		return r, nil
	}
	return &lha.CheckReader{R: r, Want: e.CRC}, nil
}

// ReaderAt gives random access to the decoded entry.
// Stored entries are read straight from the archive without a CRC check.
func (e *Entry) ReaderAt(disk io.ReaderAt) (io.ReaderAt, error) {
	p, err := e.params()
	if err != nil {
		return nil, err
	}
	packed := io.NewSectionReader(disk, e.DataOffset, e.PackedSize)
	if p.Method.IsStored() && e.PackedSize == e.OriginalSize {
		return packed, nil
	}
	r, err := lha.NewReader(packed, p)
	if err != nil {
		return nil, err
	}
	return decompressioncache.New(e.stepper(disk, r), e.OriginalSize, e.Name), nil
}

// stepper resumes a copy of the decoder each time, so that it can be called again after eviction.
func (e *Entry) stepper(disk io.ReaderAt, from *lha.Reader) decompressioncache.Stepper {
	return func() (decompressioncache.Stepper, []byte, error) {
		r := from.Snapshot()
		at := r.Consumed()
		r.Resume(io.NewSectionReader(disk, e.DataOffset+at, e.PackedSize-at))
		blob, err := r.Next()
		if err == io.EOF && e.HasCRC && r.Sum16() != e.CRC {
			err = lha.ErrChecksum
		}
		if err != nil {
			return nil, nil, err
		}
		return e.stepper(disk, r), blob, nil
	}
}

// New returns a filesystem that fills in while the archive is scanned in the background.
// Only the absence of any recognisable header is reported as an error.
func New(disk io.ReaderAt) (fs.FS, error) {
	start, err := findStart(disk)
	if err != nil {
		return nil, err
	}
	fsys := fskeleton.New()
	go build(fsys, disk, start)
	return fsys, nil
}

func build(fsys *fskeleton.FS, disk io.ReaderAt, start int64) {
	defer fsys.NoMore()
	for e, err := range scanFrom(disk, start) {
		if err != nil {
			slog.Warn("lzhHeaderError", "err", err)
			return
		}
		if err := create(fsys, disk, e); err != nil {
			slog.Warn("lzhEntryError", "name", e.Name, "offset", e.HeaderOffset, "err", err)
		}
	}
}

func create(fsys *fskeleton.FS, disk io.ReaderAt, e *Entry) error {
	if e.Name == "" {
		return errEmptyName
	}
	mode := e.Mode()
	switch {
	case e.IsDir():
		return fsys.CreateDir(e.Name, mode, e.ModTime, e)
	case e.Link != "":
		target := fskeleton.CleanLinkTarget(e.Name, e.Link)
		if target == "" {
			return errLinkEscapes
		}
		return fsys.CreateSymlink(e.Name, target, mode, e.ModTime, e)
	}
	ra, err := e.ReaderAt(disk)
	if err != nil {
		return fsys.CreateErrorFile(e.Name, err, e.OriginalSize, mode, e.ModTime, e)
	}
	return fsys.CreateReaderAtFile(e.Name, ra, e.OriginalSize, mode, e.ModTime, e)
}

var (
	errEmptyName   = errors.New("entry has no usable name")
	errLinkEscapes = errors.New("symlink target outside the archive")
)

// Scan yields every entry header in order.
// A header that cannot be parsed is yielded as an error and ends the scan.
func Scan(disk io.ReaderAt) iter.Seq2[*Entry, error] {
	return func(yield func(*Entry, error) bool) {
		start, err := findStart(disk)
		if err != nil {
			yield(nil, err)
			return
		}
		for e, err := range scanFrom(disk, start) {
			if !yield(e, err) {
				return
			}
		}
	}
}

func scanFrom(disk io.ReaderAt, off int64) iter.Seq2[*Entry, error] {
	return func(yield func(*Entry, error) bool) {
		for {
			e, err := readHeader(disk, off)
			if err == io.EOF {
				return
			} else if err != nil {
				yield(nil, err)
				return
			}
			if !yield(e, nil) {
				return
			}
			off = e.DataOffset + e.PackedSize
		}
	}
}

// sfxLimit is how far into a self-extracting executable the first header is sought.
const sfxLimit = 64 << 10

func findStart(disk io.ReaderAt) (int64, error) {
	buf := make([]byte, sfxLimit+commonSize+1)
	n, err := disk.ReadAt(buf, 0)
	if n == 0 {
		if err == nil || err == io.EOF {
			err = ErrFormat
		}
		return 0, err
	}
	buf = buf[:n]
	if n == 1 && buf[0] == 0 {
		return 0, nil // empty archive
	}

	for p := 0; p+commonSize < len(buf) && p <= sfxLimit; p++ {
		if buf[p+2] != '-' || buf[p+3] != 'l' || buf[p+6] != '-' || buf[p+20] > 3 {
			continue
		}
		if _, err := readHeader(disk, int64(p)); err == nil {
			return int64(p), nil
		}
	}
	return 0, ErrFormat
}
