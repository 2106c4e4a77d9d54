// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package lha

import "io"

// bitReader is the only thing that reads the packed stream.
// Once the packed size is used up, or the source runs dry, it feeds zero bytes forever.
type bitReader struct {
	src       io.ByteReader
	remaining int64 // packed bytes not yet fetched
	bitbuf    uint16
	subbitbuf byte
	bitcount  uint
	err       error // first non-EOF error from src
}

func (b *bitReader) init(src io.ByteReader, packed int64) {
	*b = bitReader{src: src, remaining: packed}
	b.fillbuf(16)
}

// fillbuf shifts n bits out of the top of bitbuf and shifts n fresh bits in.
func (b *bitReader) fillbuf(n uint) {
	for n > b.bitcount {
		n -= b.bitcount
		b.bitbuf = b.bitbuf<<b.bitcount + uint16(b.subbitbuf>>(8-b.bitcount))
		b.subbitbuf = b.nextByte()
		b.bitcount = 8
	}
	b.bitcount -= n
	b.bitbuf = b.bitbuf<<n + uint16(b.subbitbuf>>(8-n))
	b.subbitbuf <<= n
}

func (b *bitReader) nextByte() byte {
	if b.remaining <= 0 || b.src == nil {
		return 0
	}
	b.remaining--
	c, err := b.src.ReadByte()
	if err != nil {
		if err != io.EOF && b.err == nil {
			b.err = err
		}
		b.src = nil // truncated: zeros from now on
		return 0
	}
	return c
}

// getbits returns the top n bits of the register and then consumes them.
func (b *bitReader) getbits(n uint) uint16 {
	x := b.bitbuf >> (16 - n)
	b.fillbuf(n)
	return x
}

func (b *bitReader) peekbits(n uint) uint16 {
	return b.bitbuf >> (16 - n)
}
