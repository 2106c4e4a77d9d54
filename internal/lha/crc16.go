// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package lha

import "io"

var crctab [256]uint16

func init() {
	for i := range uint16(256) {
		k := i
		for range 8 {
			if k&1 != 0 {
				k = (k >> 1) ^ 0xa001
			} else {
				k >>= 1
			}
		}
		crctab[i] = k
	}
}

// UpdateCRC16 continues the archive checksum (CRC-16/ARC: reflected poly 0x8005, init 0) over buf.
func UpdateCRC16(crc uint16, buf []byte) uint16 {
	for _, ch := range buf {
		crc = crctab[byte(crc)^ch] ^ crc>>8
	}
	return crc
}

// CheckReader wraps a Reader and compares its running CRC
// with the value from the entry header once the output is exhausted.
type CheckReader struct {
	R    *Reader
	Want uint16
}

func (r *CheckReader) Read(p []byte) (n int, err error) {
	n, err = r.R.Read(p)
	if err == io.EOF && r.R.Sum16() != r.Want {
		err = ErrChecksum
	}
	return
}
