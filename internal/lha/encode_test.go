package lha

import (
	"math/bits"
	"math/rand/v2"
)

// Just enough of each compressor to produce streams for the decoders.

type bitWriter struct {
	buf  []byte
	acc  byte
	nacc uint
}

func (w *bitWriter) put(n uint, v uint) {
	for i := n; i > 0; i-- {
		w.acc = w.acc<<1 | byte(v>>(i-1)&1)
		w.nacc++
		if w.nacc == 8 {
			w.buf = append(w.buf, w.acc)
			w.acc, w.nacc = 0, 0
		}
	}
}

func (w *bitWriter) bytes() []byte {
	out := w.buf
	if w.nacc > 0 {
		out = append(out, w.acc<<(8-w.nacc))
	}
	return out
}

// token is a literal when length is 0, otherwise a copy from dist+1 bytes back.
type token struct {
	lit    byte
	length int
	dist   int
}

func expand(toks []token) []byte {
	var out []byte
	for _, t := range toks {
		if t.length == 0 {
			out = append(out, t.lit)
			continue
		}
		for range t.length {
			out = append(out, out[len(out)-t.dist-1])
		}
	}
	return out
}

// randomTokens makes a mix of literals and back references that stay inside the output.
func randomTokens(rng *rand.Rand, n, minLen, maxLen, window int) []token {
	var toks []token
	produced := 0
	for range n {
		if produced < 1 || rng.IntN(3) == 0 {
			toks = append(toks, token{lit: byte('a' + rng.IntN(8))})
			produced++
			continue
		}
		l := minLen + rng.IntN(maxLen-minLen+1)
		d := rng.IntN(min(produced, window-1))
		if rng.IntN(4) == 0 {
			d = rng.IntN(min(produced, 4)) // short distances overlap the copy
		}
		toks = append(toks, token{length: l, dist: d})
		produced += l
	}
	return toks
}

// codeLengths gives every used symbol a length so that the code is complete.
// A comb is steep enough to push codes past the direct table.
func codeLengths(used []bool, comb bool) []byte {
	var syms []int
	for i, u := range used {
		if u {
			syms = append(syms, i)
		}
	}
	lens := make([]byte, len(used))
	k := len(syms)
	if k < 2 {
		return lens
	}
	d := 0 // symbols on the comb, with lengths 1, 2, 3...
	if comb {
		d = k - 1
		for d > 0 && d+bits.Len(uint(k-d-1)) > 15 {
			d--
		}
	}
	for i, s := range syms[:d] {
		lens[s] = byte(i + 1)
	}
	rest := syms[d:]
	if len(rest) == 1 {
		lens[rest[0]] = byte(d)
		return lens
	}
	l := bits.Len(uint(len(rest) - 1))
	short := 1<<l - len(rest)
	for i, s := range rest {
		if i < short {
			lens[s] = byte(d + l - 1)
		} else {
			lens[s] = byte(d + l)
		}
	}
	return lens
}

func canonical(lens []byte) []uint {
	var start [18]uint
	total := uint(0)
	for l := 1; l <= 16; l++ {
		start[l] = total
		for _, x := range lens {
			if int(x) == l {
				total += 1 << (16 - l)
			}
		}
	}
	codes := make([]uint, len(lens))
	for ch, l := range lens {
		if l == 0 {
			continue
		}
		codes[ch] = start[l] >> (16 - l)
		start[l] += 1 << (16 - l)
	}
	return codes
}

func countUsed(used []bool) (k, only int) {
	for i, u := range used {
		if u {
			k++
			only = i
		}
	}
	return
}

// encodeSt1 writes one -lh4- to -lh7- block per chunk of tokens.
func encodeSt1(toks []token, np int, pbit uint, blockLen int, comb bool) []byte {
	w := new(bitWriter)
	for len(toks) > 0 {
		n := min(blockLen, len(toks))
		st1Block(w, toks[:n], np, pbit, comb)
		toks = toks[n:]
	}
	return w.bytes()
}

func st1Block(w *bitWriter, toks []token, np int, pbit uint, comb bool) {
	cUsed := make([]bool, nc)
	pUsed := make([]bool, np)
	for _, t := range toks {
		if t.length == 0 {
			cUsed[t.lit] = true
		} else {
			cUsed[t.length+256-threshold] = true
			pUsed[bits.Len(uint(t.dist))] = true
		}
	}
	cLen := codeLengths(cUsed, comb)
	pLen := codeLengths(pUsed, comb)

	w.put(16, uint(len(toks)))

	if k, only := countUsed(cUsed); k == 1 {
		w.put(tbit, 0) // no length table needed
		w.put(tbit, 0)
		w.put(cbit, 0)
		w.put(cbit, uint(only))
	} else {
		// code lengths, themselves coded
		type item struct {
			sym   int
			nbits uint
			extra uint
		}
		n := 0
		for i, l := range cLen {
			if l != 0 {
				n = i + 1
			}
		}
		var seq []item
		for i := 0; i < n; {
			if cLen[i] != 0 {
				seq = append(seq, item{sym: int(cLen[i]) + 2})
				i++
				continue
			}
			run := 0
			for i+run < n && cLen[i+run] == 0 {
				run++
			}
			switch {
			case run >= 20:
				run = min(run, 20+511)
				seq = append(seq, item{2, cbit, uint(run - 20)})
			case run >= 3:
				run = min(run, 18)
				seq = append(seq, item{1, 4, uint(run - 3)})
			default:
				run = 1
				seq = append(seq, item{sym: 0})
			}
			i += run
		}
		tUsed := make([]bool, nt)
		for _, it := range seq {
			tUsed[it.sym] = true
		}
		tLen := codeLengths(tUsed, false)
		if k, only := countUsed(tUsed); k == 1 {
			w.put(tbit, 0)
			w.put(tbit, uint(only))
		} else {
			writePtLen(w, tLen, tbit, 3)
		}
		tCode := canonical(tLen)
		w.put(cbit, uint(n))
		for _, it := range seq {
			w.put(uint(tLen[it.sym]), tCode[it.sym])
			w.put(it.nbits, it.extra)
		}
	}

	if k, only := countUsed(pUsed); k < 2 {
		w.put(pbit, 0)
		w.put(pbit, uint(only))
	} else {
		writePtLen(w, pLen, pbit, -1)
	}

	cCode, pCode := canonical(cLen), canonical(pLen)
	for _, t := range toks {
		if t.length == 0 {
			w.put(uint(cLen[t.lit]), cCode[t.lit])
			continue
		}
		c := t.length + 256 - threshold
		w.put(uint(cLen[c]), cCode[c])
		j := bits.Len(uint(t.dist))
		w.put(uint(pLen[j]), pCode[j])
		if j > 1 {
			w.put(uint(j-1), uint(t.dist-1<<(j-1)))
		}
	}
}

func writePtLen(w *bitWriter, lens []byte, nbit uint, special int) {
	n := 0
	for i, l := range lens {
		if l != 0 {
			n = i + 1
		}
	}
	w.put(nbit, uint(n))
	for i := 0; i < n; {
		l := lens[i]
		if l < 7 {
			w.put(3, uint(l))
		} else {
			w.put(3, 7)
			for k := byte(7); k < l; k++ {
				w.put(1, 1)
			}
			w.put(1, 0)
		}
		i++
		if i == special {
			zeros := 0
			for zeros < 3 && i+zeros < n && lens[i+zeros] == 0 {
				zeros++
			}
			w.put(2, uint(zeros))
			i += zeros
		}
	}
}

// encodeSt0 writes a single -lh3- block, with the canned position table unless customP.
func encodeSt0(toks []token, comb, customP bool) []byte {
	w := new(bitWriter)
	w.put(16, uint(len(toks)))

	cUsed := make([]bool, n1)
	pUsed := make([]bool, np0)
	for _, t := range toks {
		if t.length == 0 {
			cUsed[t.lit] = true
		} else {
			cUsed[min(t.length+256-threshold, n1-1)] = true
			pUsed[t.dist>>6] = true
		}
	}

	var cLen []byte
	if k, only := countUsed(cUsed); k == 1 {
		for range 3 {
			w.put(1, 1)
			w.put(lenfield, 0)
		}
		w.put(cbit, uint(only))
		cLen = make([]byte, n1)
	} else {
		cLen = codeLengths(cUsed, comb)
		for _, l := range cLen {
			if l == 0 {
				w.put(1, 0)
			} else {
				w.put(1, 1)
				w.put(lenfield, uint(l-1))
			}
		}
	}

	var pLen []byte
	if customP && countOnly(pUsed) >= 2 {
		w.put(1, 1)
		pLen = codeLengths(pUsed, comb)
		for _, l := range pLen {
			w.put(lenfield, uint(l))
		}
	} else {
		w.put(1, 0)
		s := staticTables{np: np0}
		s.readyMade(1)
		pLen = s.ptLen[:np0]
	}

	cCode, pCode := canonical(cLen), canonical(pLen)
	for _, t := range toks {
		if t.length == 0 {
			w.put(uint(cLen[t.lit]), cCode[t.lit])
			continue
		}
		c := t.length + 256 - threshold
		sym := min(c, n1-1)
		w.put(uint(cLen[sym]), cCode[sym])
		if sym == n1-1 {
			w.put(8, uint(c-sym))
		}
		p := t.dist >> 6
		w.put(uint(pLen[p]), pCode[p])
		w.put(6, uint(t.dist&63))
	}
	return w.bytes()
}

func countOnly(used []bool) int {
	k, _ := countUsed(used)
	return k
}

// pathTo emits the bits that lead from root to node q.
func pathTo(w *bitWriter, t *dynTree, q, root int) {
	var path []uint
	for ; q != root; q = int(t.node[q].parent) {
		path = append(path, uint(q&1))
	}
	for i := len(path) - 1; i >= 0; i-- {
		w.put(1, path[i])
	}
}

// encodeDyn writes -lh1- (fixed positions) or -lh2- (adaptive positions).
func encodeDyn(toks []token, lh1 bool) []byte {
	w := new(bitWriter)
	t := new(dynTree)
	var pLen []byte
	var pCode []uint
	if lh1 {
		t.startC(314, 60)
		s := staticTables{np: 64}
		s.readyMade(0)
		pLen = s.ptLen[:64]
		pCode = canonical(pLen)
	} else {
		t.startC(286, maxmatch)
		t.startP(13)
	}

	count := int64(0)
	for _, tok := range toks {
		c := int(tok.lit)
		if tok.length > 0 {
			c = tok.length + 256 - threshold
		}
		sym := min(c, t.n1)
		pathTo(w, t, int(t.sNode[sym]), rootC)
		t.updateC(sym)
		if sym == t.n1 {
			w.put(8, uint(c-sym))
		}
		if tok.length == 0 {
			count++
			continue
		}

		p := tok.dist >> 6
		if lh1 {
			w.put(uint(pLen[p]), pCode[p])
		} else {
			for count > t.nextcount {
				t.makeNewNode(int(t.nextcount / 64))
				t.nextcount += 64
				if t.nextcount >= t.nn {
					t.nextcount = 1 << 62
				}
			}
			pathTo(w, t, int(t.sNode[p+nChar]), rootP)
			t.updateP(p)
		}
		w.put(6, uint(tok.dist&63))
		count += int64(tok.length)
	}
	return w.bytes()
}

func encodeLzs(toks []token) []byte {
	w := new(bitWriter)
	loc := 0
	for _, t := range toks {
		if t.length == 0 {
			w.put(1, 1)
			w.put(8, uint(t.lit))
			loc++
			continue
		}
		w.put(1, 0)
		w.put(11, uint((loc-magic0-t.dist)&0x7ff))
		w.put(4, uint(t.length-2))
		loc += t.length
	}
	return w.bytes()
}

func encodeLz5(toks []token) []byte {
	var out []byte
	loc := 0
	for len(toks) > 0 {
		group := toks[:min(8, len(toks))]
		toks = toks[len(group):]
		flag := byte(0)
		var body []byte
		for i, t := range group {
			if t.length == 0 {
				flag |= 1 << i
				body = append(body, t.lit)
				loc++
				continue
			}
			pos := (loc - magic5 - t.dist) & 0xfff
			body = append(body, byte(pos), byte(pos>>8<<4|(t.length-3)))
			loc += t.length
		}
		out = append(out, flag)
		out = append(out, body...)
	}
	return out
}
