// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package lha decodes the compressed data of LHA and LArc archive entries.
//
// It knows nothing about the archive container: the caller supplies the method,
// the sizes from the entry header, and a reader positioned at the packed data.
package lha

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
)

var (
	ErrMethod   = errors.New("unsupported LHA compression method")
	ErrDicBits  = errors.New("unsupported LHA dictionary size")
	ErrBadTable = errors.New("bad LHA Huffman table")
	ErrChecksum = errors.New("LHA checksum mismatch")
)

// storeDicBits sizes the window that stored data passes through.
const storeDicBits = 13

// Params are the facts about an entry that the header parser knows.
type Params struct {
	Method       Method
	DicBits      int // zero selects the method's own window size
	OriginalSize int64
	PackedSize   int64
}

// Reader decompresses a single entry.
// Output is produced a whole window at a time, so a Reader holds at most one window of backlog.
type Reader struct {
	fam    family
	br     bitReader
	packed int64

	window      []byte
	mask        int
	loc         int
	pend        int // backlog is window[pend:pendEnd]
	pendEnd     int
	size        int64
	written     int64
	decodeCount int64 // bytes spoken for by tokens so far
	adjust      int
	copyPos     int
	copyLeft    int
	crc         uint16
	err         error

	st  staticTables
	dyn dynTree
	lz  larcState
}

// NewReader checks the parameters and primes the decoder.
// The window of 1<<DicBits bytes is allocated here.
func NewReader(src io.Reader, p Params) (*Reader, error) {
	if int(p.Method) >= len(methods) {
		return nil, fmt.Errorf("%w: %v", ErrMethod, p.Method)
	}
	def := methods[p.Method]
	dicbits := p.DicBits
	if dicbits == 0 {
		dicbits = def.dicbits
	}

	switch def.fam {
	case famStore, famDir:
		if p.DicBits == 0 {
			dicbits = storeDicBits
		} else if dicbits < 1 || dicbits > 16 {
			return nil, fmt.Errorf("%w: %d bits for %v", ErrDicBits, dicbits, p.Method)
		}
	case famSt1:
		if dicbits != 12 && dicbits != 13 && dicbits != 15 && dicbits != 16 {
			return nil, fmt.Errorf("%w: %d bits for %v", ErrDicBits, dicbits, p.Method)
		}
	default:
		if dicbits != def.dicbits {
			return nil, fmt.Errorf("%w: %d bits for %v", ErrDicBits, dicbits, p.Method)
		}
	}

	r := &Reader{
		fam:    def.fam,
		packed: p.PackedSize,
		window: make([]byte, 1<<dicbits),
		mask:   1<<dicbits - 1,
		size:   p.OriginalSize,
		adjust: 256 - threshold,
	}
	if def.fam == famDir || r.size < 0 {
		r.size = 0
	}
	for i := range r.window {
		r.window[i] = ' '
	}

	r.br.init(byteReader(src), p.PackedSize)
	switch r.fam {
	case famFix:
		r.startFix()
	case famDyn:
		r.dyn.startC(286, maxmatch)
		r.dyn.startP(dicbits)
	case famSt0:
		r.st.np = 1 << (13 - 6)
	case famSt1:
		r.startSt1(dicbits)
	case famLzs:
		r.adjust = 256 - 2
	case famLz5:
		r.startLz5()
	}
	return r, nil
}

func byteReader(src io.Reader) io.ByteReader {
	if br, ok := src.(io.ByteReader); ok {
		return br
	}
	return bufio.NewReader(src)
}

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) status() error {
	switch {
	case r.pend < r.pendEnd:
		return nil
	case r.err != nil:
		return r.err
	case r.br.err != nil:
		return r.br.err
	case r.written >= r.size:
		return io.EOF
	}
	return nil
}

// Read returns io.EOF once the original size has been produced.
// A packed stream that runs short is padded with zero bits rather than reported.
func (r *Reader) Read(p []byte) (n int, err error) {
	for n < len(p) {
		if !r.fill() {
			break
		}
		m := copy(p[n:], r.window[r.pend:r.pendEnd])
		r.pend += m
		n += m
	}
	return n, r.status()
}

// Decode fills dst[off:off+count] and returns how many bytes it managed, 0 at the end.
func (r *Reader) Decode(dst []byte, off, count int) int {
	n, _ := io.ReadFull(r, dst[off:off+count])
	return n
}

// Next returns the next run of output, which is a whole window unless it is the last.
// The slice is only valid until the next call.
func (r *Reader) Next() ([]byte, error) {
	if !r.fill() {
		return nil, r.status()
	}
	b := r.window[r.pend:r.pendEnd]
	r.pend = r.pendEnd
	return b, nil
}

// Sum16 is the CRC-16 of the output so far.
func (r *Reader) Sum16() uint16 { return r.crc }

// Size is the number of bytes the Reader will produce.
func (r *Reader) Size() int64 { return r.size }

// Offset is the number of bytes handed out so far.
func (r *Reader) Offset() int64 { return r.written - int64(r.pendEnd-r.pend) }

// Consumed is how far into the packed data the decoder has fetched.
func (r *Reader) Consumed() int64 { return r.packed - r.br.remaining }

// Snapshot copies the complete decoder state without its source.
// Call Resume with a reader positioned Consumed bytes into the packed data before using it.
func (r *Reader) Snapshot() *Reader {
	c := *r
	c.window = slices.Clone(r.window)
	c.br.src = nil
	return &c
}

// Resume attaches a source to a Snapshot.
func (r *Reader) Resume(src io.Reader) {
	if r.br.remaining > 0 {
		r.br.src = byteReader(src)
	}
}
