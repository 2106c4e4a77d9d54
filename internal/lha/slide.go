// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package lha

const (
	threshold = 3
	maxmatch  = 256
)

func (r *Reader) fill() bool {
	if r.pend == r.pendEnd {
		r.step()
	}
	return r.pend < r.pendEnd
}

// step runs the reconstruction loop until a window is flushed,
// the original size is reached, or the decoder fails.
func (r *Reader) step() {
	for r.pend == r.pendEnd && r.written < r.size && r.err == nil {
		if r.copyLeft > 0 {
			r.put(r.window[r.copyPos])
			r.copyPos = (r.copyPos + 1) & r.mask
			r.copyLeft--
			continue
		}

		c := r.decodeC()
		if r.err != nil {
			return
		}
		if c < 256 {
			r.decodeCount++
			r.put(byte(c))
			continue
		}

		length := c - r.adjust
		off := r.decodeP() + 1
		r.copyPos = (r.loc - off) & r.mask
		r.copyLeft = length
		r.decodeCount += int64(length)
	}
}

func (r *Reader) put(c byte) {
	r.window[r.loc] = c
	r.loc++
	r.written++
	if r.loc == len(r.window) {
		r.flush()
		r.loc = 0
	} else if r.written == r.size {
		r.flush()
	}
}

func (r *Reader) flush() {
	r.pend, r.pendEnd = 0, r.loc
	r.crc = UpdateCRC16(r.crc, r.window[:r.loc])
}

func (r *Reader) decodeC() int {
	switch r.fam {
	case famFix, famDyn:
		return r.decodeCDyn()
	case famSt0:
		return r.decodeCSt0()
	case famSt1:
		return r.decodeCSt1()
	case famLzs:
		return r.decodeCLzs()
	case famLz5:
		return r.decodeCLz5()
	default: // stored
		return int(r.br.getbits(8))
	}
}

func (r *Reader) decodeP() int {
	switch r.fam {
	case famFix, famSt0:
		return r.decodePSt0()
	case famDyn:
		return r.decodePDyn()
	case famSt1:
		return r.decodePSt1()
	case famLzs:
		return r.decodePLzs()
	case famLz5:
		return r.decodePLz5()
	default:
		return 0
	}
}
