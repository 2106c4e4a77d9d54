// LArc decoders
//
// LHarc by Haruyasu Yoshizaki, LHa for UNIX by Masaru Oki, Nobutaka Watazaki,
// Tsugio Okamoto and Koji Arai
//
// ported to Go by Elliot Nunn

package lha

const (
	magic0 = 18 // -lzs-
	magic5 = 19 // -lz5-
)

type larcState struct {
	matchpos int
	flag     byte
	flagcnt  int
}

func (r *Reader) decodeCLzs() int {
	br := &r.br
	if br.getbits(1) != 0 {
		return int(br.getbits(8))
	}
	r.lz.matchpos = int(br.getbits(11))
	return int(br.getbits(4)) + 0x100
}

func (r *Reader) decodePLzs() int {
	return (r.loc - r.lz.matchpos - magic0) & 0x7ff
}

// startLz5 seeds the window with the byte patterns LArc assumes are already there.
func (r *Reader) startLz5() {
	text := r.window
	for i := range 256 {
		for j := range 13 {
			text[i*13+18+j] = byte(i)
		}
	}
	for i := range 256 {
		text[256*13+18+i] = byte(i)
		text[256*13+256+18+i] = byte(255 - i)
	}
	clear(text[256*13+512+18 : 256*13+512+128+18])
	for i := 256*13 + 512 + 128 + 18; i < 256*13+512+256; i++ {
		text[i] = ' '
	}
}

// decodeCLz5 takes a flag byte before every eight items; a set bit is a literal.
func (r *Reader) decodeCLz5() int {
	br, s := &r.br, &r.lz
	if s.flagcnt == 0 {
		s.flagcnt = 8
		s.flag = byte(br.getbits(8))
	}
	s.flagcnt--
	c := int(br.getbits(8))
	if s.flag&1 == 0 {
		s.matchpos = c
		c = int(br.getbits(8))
		s.matchpos += (c & 0xf0) << 4
		c &= 0x0f
		c += 0x100
	}
	s.flag >>= 1
	return c
}

func (r *Reader) decodePLz5() int {
	return (r.loc - r.lz.matchpos - magic5) & 0xfff
}
