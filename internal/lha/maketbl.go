// LHa for UNIX table decoders
//
// LHarc by Haruyasu Yoshizaki, LHa for UNIX by Masaru Oki, Nobutaka Watazaki,
// Tsugio Okamoto and Koji Arai
//
// ported to Go by Elliot Nunn

package lha

import "fmt"

// huffTree is the overflow arena for codes longer than the direct table.
// The static decoders share one arena between the literal and position tables:
// their nodes are allocated from disjoint ranges because avail starts at nchar.
type huffTree struct {
	left, right [2*nc - 1]uint16
}

// makeTable builds a canonical Huffman decode table from per-symbol code lengths.
func makeTable(nchar int, bitlen []byte, tablebits uint, table []uint16, tree *huffTree) error {
	var count, weight, start [17]uint

	for _, l := range bitlen[:nchar] {
		if l > 16 {
			return fmt.Errorf("%w: code length %d", ErrBadTable, l)
		}
		count[l]++
	}

	total := uint(0)
	for i := uint(1); i <= 16; i++ {
		start[i] = total
		weight[i] = 1 << (16 - i)
		total += weight[i] * count[i]
	}
	if total != 1<<16 {
		return fmt.Errorf("%w: code space %#x", ErrBadTable, total)
	}

	m := 16 - tablebits
	for i := uint(1); i <= tablebits; i++ {
		start[i] >>= m
		weight[i] >>= m
	}

	if j := start[tablebits+1] >> m; j < 1<<tablebits {
		clear(table[j : 1<<tablebits])
	}

	avail := uint16(nchar)
	for ch := range nchar {
		l := uint(bitlen[ch])
		if l == 0 {
			continue
		}
		end := start[l] + weight[l]
		if l <= tablebits {
			for i := start[l]; i < end; i++ {
				table[i] = uint16(ch)
			}
		} else {
			code := start[l]
			p := &table[code>>m]
			code <<= tablebits
			for n := l - tablebits; n > 0; n-- {
				if *p == 0 {
					if int(avail) >= len(tree.left) {
						return fmt.Errorf("%w: tree overflow", ErrBadTable)
					}
					tree.left[avail], tree.right[avail] = 0, 0
					*p = avail
					avail++
				}
				if code&0x8000 != 0 {
					p = &tree.right[*p]
				} else {
					p = &tree.left[*p]
				}
				code <<= 1
			}
			*p = uint16(ch)
		}
		start[l] = end
	}
	return nil
}

// lookup decodes one symbol: the direct table covers the first tablebits bits,
// and the bits after them steer through the overflow tree.
func (r *Reader) lookup(table []uint16, bitlen []byte, nchar int, tablebits uint) int {
	br := &r.br
	tree := &r.st.tree
	j := int(table[br.peekbits(tablebits)])
	if j < nchar {
		br.fillbuf(uint(bitlen[j]))
		return j
	}

	br.fillbuf(tablebits)
	mask := uint16(1 << 15)
	for j >= nchar && mask != 0 {
		if j >= len(tree.left) {
			break
		}
		if br.bitbuf&mask != 0 {
			j = int(tree.right[j])
		} else {
			j = int(tree.left[j])
		}
		mask >>= 1
	}
	if j >= nchar || uint(bitlen[j]) < tablebits {
		r.fail(fmt.Errorf("%w: no symbol for code", ErrBadTable))
		return 0
	}
	br.fillbuf(uint(bitlen[j]) - tablebits)
	return j
}
