// LHa for UNIX table decoders
//
// LHarc by Haruyasu Yoshizaki, LHa for UNIX by Masaru Oki, Nobutaka Watazaki,
// Tsugio Okamoto and Koji Arai
//
// ported to Go by Elliot Nunn

package lha

const (
	n1       = 286 // -lh3- alphabet: 256 literals + 29 lengths + the extended length code
	np0      = 8 * 1024 / 64
	lenfield = 4
)

// fixedLengths lists, for each canned position table, the starting code length
// followed by the positions at which the length grows by one.
var fixedLengths = [2][]int{
	{3, 0x01, 0x04, 0x0c, 0x18, 0x30, 0},             // -lh1-
	{2, 0x01, 0x01, 0x03, 0x06, 0x0D, 0x1F, 0x4E, 0}, // -lh3-
}

func (s *staticTables) readyMade(which int) {
	tbl := fixedLengths[which]
	j := tbl[0]
	tbl = tbl[1:]
	for i := range s.np {
		for tbl[0] == i {
			j++
			tbl = tbl[1:]
		}
		s.ptLen[i] = byte(j)
	}
}

func (r *Reader) startFix() {
	r.dyn.startC(314, 60)
	r.st.np = 1 << (12 - 6)
	r.st.readyMade(0)
	if err := makeTable(r.st.np, r.st.ptLen[:], 8, r.st.ptTable[:], &r.st.tree); err != nil {
		r.fail(err)
	}
}

// readTreeC reads the -lh3- literal code lengths. Three leading codes of length 1
// stand for a table that yields one symbol without consuming bits.
func (r *Reader) readTreeC() {
	br, s := &r.br, &r.st
	for i := 0; i < n1; i++ {
		if br.getbits(1) != 0 {
			s.cLen[i] = byte(br.getbits(lenfield) + 1)
		} else {
			s.cLen[i] = 0
		}
		if i == 2 && s.cLen[0] == 1 && s.cLen[1] == 1 && s.cLen[2] == 1 {
			c := br.getbits(cbit)
			clear(s.cLen[:n1])
			for j := range s.cTable {
				s.cTable[j] = c
			}
			return
		}
	}
	if err := makeTable(n1, s.cLen[:], 12, s.cTable[:], &s.tree); err != nil {
		r.fail(err)
	}
}

func (r *Reader) readTreeP() {
	br, s := &r.br, &r.st
	for i := 0; i < np0; i++ {
		s.ptLen[i] = byte(br.getbits(lenfield))
		if i == 2 && s.ptLen[0] == 1 && s.ptLen[1] == 1 && s.ptLen[2] == 1 {
			c := br.getbits(13 - 6)
			clear(s.ptLen[:np0])
			for j := range s.ptTable {
				s.ptTable[j] = c
			}
			return
		}
	}
	if err := makeTable(np0, s.ptLen[:], 8, s.ptTable[:], &s.tree); err != nil {
		r.fail(err)
	}
}

func (r *Reader) decodeCSt0() int {
	s := &r.st
	if s.blocksize == 0 {
		s.blocksize = r.br.getbits(16)
		r.readTreeC()
		if r.br.getbits(1) != 0 {
			r.readTreeP()
		} else {
			s.readyMade(1)
			if err := makeTable(np0, s.ptLen[:], 8, s.ptTable[:], &s.tree); err != nil {
				r.fail(err)
			}
		}
	}
	s.blocksize--
	j := r.lookup(s.cTable[:], s.cLen[:], n1, 12)
	if j == n1-1 {
		j += int(r.br.getbits(8))
	}
	return j
}

// decodePSt0 serves -lh3- and the fixed position table of -lh1-.
func (r *Reader) decodePSt0() int {
	s := &r.st
	j := r.lookup(s.ptTable[:], s.ptLen[:], s.np, 8)
	return j<<6 + int(r.br.getbits(6))
}
