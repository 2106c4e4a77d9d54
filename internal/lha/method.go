// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package lha

import "fmt"

// Method is a compression method as named in an entry header.
type Method uint8

const (
	LH0 Method = iota // stored
	LH1               // 4 KiB window, adaptive Huffman literals, fixed positions
	LH2               // 8 KiB window, adaptive Huffman
	LH3               // 8 KiB window, static Huffman
	LH4               // 4 KiB window, static Huffman
	LH5               // 8 KiB window
	LH6               // 32 KiB window
	LH7               // 64 KiB window
	LZS               // LArc 2 KiB window
	LZ5               // LArc 4 KiB window
	LZ4               // LArc stored
	LHD               // directory
)

// family is the decoder pair a method is bound to.
type family uint8

const (
	famStore family = iota
	famFix          // -lh1-
	famDyn          // -lh2-
	famSt0          // -lh3-
	famSt1          // -lh4- to -lh7-
	famLzs
	famLz5
	famDir
)

var methods = [...]struct {
	tag     string
	fam     family
	dicbits int
}{
	LH0: {"-lh0-", famStore, 0},
	LH1: {"-lh1-", famFix, 12},
	LH2: {"-lh2-", famDyn, 13},
	LH3: {"-lh3-", famSt0, 13},
	LH4: {"-lh4-", famSt1, 12},
	LH5: {"-lh5-", famSt1, 13},
	LH6: {"-lh6-", famSt1, 15},
	LH7: {"-lh7-", famSt1, 16},
	LZS: {"-lzs-", famLzs, 11},
	LZ5: {"-lz5-", famLz5, 12},
	LZ4: {"-lz4-", famStore, 0},
	LHD: {"-lhd-", famDir, 0},
}

// ParseMethod accepts the five-byte tag, dashes included.
func ParseMethod(tag string) (Method, error) {
	for m, e := range methods {
		if e.tag == tag {
			return Method(m), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrMethod, tag)
}

func (m Method) String() string {
	if int(m) < len(methods) {
		return methods[m].tag
	}
	return fmt.Sprintf("Method(%d)", uint8(m))
}

// DicBits is log2 of the window the method was compressed with, or 0 for methods without a window.
func (m Method) DicBits() int {
	if int(m) < len(methods) {
		return methods[m].dicbits
	}
	return 0
}

func (m Method) IsDir() bool { return m == LHD }

// IsStored reports whether the packed bytes are the file bytes.
func (m Method) IsStored() bool {
	return int(m) < len(methods) && methods[m].fam == famStore
}
