// LHa for UNIX table decoders
//
// LHarc by Haruyasu Yoshizaki, LHa for UNIX by Masaru Oki, Nobutaka Watazaki,
// Tsugio Okamoto and Koji Arai
//
// ported to Go by Elliot Nunn

package lha

const (
	nc   = 255 + maxmatch + 2 - threshold // literal and length codes
	nt   = 16 + 3                         // codes for code lengths
	npt  = 0x80
	tbit = 5
	cbit = 9
)

// staticTables belongs to the decoders that transmit their tables, -lh3- to -lh7-,
// and the fixed position table of -lh1-.
type staticTables struct {
	cLen      [nc]byte
	ptLen     [npt]byte
	cTable    [4096]uint16
	ptTable   [256]uint16
	tree      huffTree
	blocksize uint16
	np        int
	pbit      uint
}

func (r *Reader) startSt1(dicbits int) {
	switch dicbits {
	case 12, 13:
		r.st.pbit, r.st.np = 4, 14
	case 15:
		r.st.pbit, r.st.np = 5, 16
	case 16:
		r.st.pbit, r.st.np = 5, 17
	}
}

func (r *Reader) readPtLen(nn int, nbit uint, special int) {
	br, s := &r.br, &r.st
	n := int(br.getbits(nbit))
	if n == 0 {
		c := br.getbits(nbit)
		clear(s.ptLen[:nn])
		for i := range s.ptTable {
			s.ptTable[i] = c
		}
		return
	}

	i := 0
	for i < min(n, npt) {
		c := int(br.peekbits(3))
		if c != 7 {
			br.fillbuf(3)
		} else {
			mask := uint16(1 << 12)
			for mask&br.bitbuf != 0 {
				mask >>= 1
				c++
			}
			br.fillbuf(uint(c - 3))
		}
		s.ptLen[i] = byte(c)
		i++
		if i == special {
			c = int(br.getbits(2))
			for c--; c >= 0 && i < npt; c-- {
				s.ptLen[i] = 0
				i++
			}
		}
	}
	for i < nn {
		s.ptLen[i] = 0
		i++
	}
	if err := makeTable(nn, s.ptLen[:], 8, s.ptTable[:], &s.tree); err != nil {
		r.fail(err)
	}
}

func (r *Reader) readCLen() {
	br, s := &r.br, &r.st
	n := int(br.getbits(cbit))
	if n == 0 {
		c := br.getbits(cbit)
		clear(s.cLen[:])
		for i := range s.cTable {
			s.cTable[i] = c
		}
		return
	}

	i := 0
	for i < min(n, nc) {
		c := r.lookup(s.ptTable[:], s.ptLen[:], nt, 8)
		if c > 2 {
			s.cLen[i] = byte(c - 2)
			i++
			continue
		}
		switch c {
		case 0:
			c = 1
		case 1:
			c = int(br.getbits(4)) + 3
		case 2:
			c = int(br.getbits(cbit)) + 20
		}
		for c--; c >= 0 && i < nc; c-- {
			s.cLen[i] = 0
			i++
		}
	}
	clear(s.cLen[i:])
	if err := makeTable(nc, s.cLen[:], 12, s.cTable[:], &s.tree); err != nil {
		r.fail(err)
	}
}

func (r *Reader) decodeCSt1() int {
	s := &r.st
	if s.blocksize == 0 {
		s.blocksize = r.br.getbits(16)
		r.readPtLen(nt, tbit, 3)
		r.readCLen()
		r.readPtLen(s.np, s.pbit, -1)
	}
	s.blocksize--
	return r.lookup(s.cTable[:], s.cLen[:], nc, 12)
}

func (r *Reader) decodePSt1() int {
	s := &r.st
	j := r.lookup(s.ptTable[:], s.ptLen[:], s.np, 8)
	if j != 0 {
		j = 1<<(j-1) + int(r.br.getbits(uint(j-1)))
	}
	return j
}
