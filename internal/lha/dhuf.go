// LHa for UNIX adaptive Huffman decoder
//
// LHarc by Haruyasu Yoshizaki, LHa for UNIX by Masaru Oki, Nobutaka Watazaki,
// Tsugio Okamoto and Koji Arai
//
// ported to Go by Elliot Nunn

package lha

import "math"

const (
	nChar     = 256 + 60 - threshold + 1 // largest adaptive literal alphabet (-lh1-)
	treesizeC = nChar * 2
	treesizeP = 128 * 2
	treesize  = treesizeC + treesizeP
	rootC     = 0
	rootP     = treesizeC // the position tree occupies the arena after the literal tree
)

// dynNode is one node of an adaptive tree. A negative child is the complement of a leaf's symbol;
// otherwise child is the higher-numbered of two adjacent children.
type dynNode struct {
	child  int16
	parent int16
	block  int16
	freq   uint16
}

// dynTree holds both adaptive trees. Nodes are kept in order of non-increasing frequency,
// and each run of equal frequency is a block whose edge is its lowest-numbered node.
type dynTree struct {
	node  [treesize]dynNode
	edge  [treesize]int16
	stock [treesize]int16 // free block ids from avail upward
	sNode [treesize / 2]int16
	avail int

	nMax      int
	n1        int // literal code that takes 8 extra bits
	mostP     int
	totalP    uint16
	nn        int64
	nextcount int64
}

func (t *dynTree) startC(nMax, maxmatch int) {
	n := &t.node
	t.nMax = nMax
	if nMax >= 256+maxmatch-threshold+1 {
		t.n1 = 512
	} else {
		t.n1 = nMax - 1
	}

	for i := range treesize {
		t.stock[i] = int16(i)
	}
	for i := range treesizeC {
		n[i].block = 0
	}
	j := nMax*2 - 2
	for i := range nMax {
		n[j].freq = 1
		n[j].child = ^int16(i)
		t.sNode[i] = int16(j)
		n[j].block = 1
		j--
	}
	t.avail = 2
	t.edge[1] = int16(nMax - 1)

	i := nMax*2 - 2
	for j >= 0 {
		f := n[i].freq + n[i-1].freq
		n[j].freq = f
		n[j].child = int16(i)
		n[i].parent, n[i-1].parent = int16(j), int16(j)
		if f == n[j+1].freq {
			n[j].block = n[j+1].block
		} else {
			n[j].block = t.stock[t.avail]
			t.avail++
		}
		t.edge[n[j].block] = int16(j)
		i -= 2
		j--
	}
}

func (t *dynTree) startP(dicbits int) {
	n := &t.node
	n[rootP].freq = 1
	n[rootP].child = ^int16(nChar)
	t.sNode[nChar] = rootP
	b := t.stock[t.avail]
	t.avail++
	n[rootP].block = b
	t.edge[b] = rootP
	t.mostP = rootP
	t.totalP = 0
	t.nn = 1 << dicbits
	t.nextcount = 64
}

// reconst halves the leaf frequencies in [start, end) and rebuilds that tree.
func (t *dynTree) reconst(start, end int) {
	n := &t.node
	var b int16

	j := start
	for i := start; i < end; i++ {
		if k := n[i].child; k < 0 {
			n[j].freq = uint16((uint32(n[i].freq) + 1) / 2)
			n[j].child = k
			j++
		}
		b = n[i].block
		if int(t.edge[b]) == i {
			t.avail--
			t.stock[t.avail] = b
		}
	}

	j--
	i := end - 1
	l := end - 2
	for i >= start {
		for i >= l {
			n[i].freq = n[j].freq
			n[i].child = n[j].child
			i--
			j--
		}
		f := uint32(n[l].freq) + uint32(n[l+1].freq)
		k := start
		for f < uint32(n[k].freq) {
			k++
		}
		for j >= k {
			n[i].freq = n[j].freq
			n[i].child = n[j].child
			i--
			j--
		}
		n[i].freq = uint16(f)
		n[i].child = int16(l + 1)
		i--
		l -= 2
	}

	f := uint16(0)
	for i := start; i < end; i++ {
		if j := n[i].child; j < 0 {
			t.sNode[^j] = int16(i)
		} else {
			n[j].parent = int16(i)
			n[j-1].parent = int16(i)
		}
		if g := n[i].freq; g == f {
			n[i].block = b
		} else {
			b = t.stock[t.avail]
			t.avail++
			n[i].block = b
			t.edge[b] = int16(i)
			f = g
		}
	}
}

// swapInc increments node p, first exchanging it with the leader of its block,
// and returns the parent whose frequency must go up next.
func (t *dynTree) swapInc(p int) int {
	n := &t.node
	b := n[p].block
	q := int(t.edge[b])
	switch {
	case q != p:
		r, s := n[p].child, n[q].child
		n[p].child, n[q].child = s, r
		if r >= 0 {
			n[r].parent, n[r-1].parent = int16(q), int16(q)
		} else {
			t.sNode[^r] = int16(q)
		}
		if s >= 0 {
			n[s].parent, n[s-1].parent = int16(p), int16(p)
		} else {
			t.sNode[^s] = int16(p)
		}
		p = q
		t.advance(p, b)
	case b == n[p+1].block:
		t.advance(p, b)
	default:
		n[p].freq++
		if n[p].freq == n[p-1].freq {
			t.avail--
			t.stock[t.avail] = b
			n[p].block = n[p-1].block
		}
	}
	return int(n[p].parent)
}

// advance moves the leader p out of block b, which keeps its other members.
func (t *dynTree) advance(p int, b int16) {
	n := &t.node
	t.edge[b]++
	n[p].freq++
	if n[p].freq == n[p-1].freq {
		n[p].block = n[p-1].block
	} else {
		nb := t.stock[t.avail]
		t.avail++
		n[p].block = nb
		t.edge[nb] = int16(p)
	}
}

func (t *dynTree) updateC(c int) {
	if t.node[rootC].freq == 0x8000 {
		t.reconst(0, t.nMax*2-1)
	}
	t.node[rootC].freq++
	q := int(t.sNode[c])
	for {
		q = t.swapInc(q)
		if q == rootC {
			break
		}
	}
}

func (t *dynTree) updateP(p int) {
	n := &t.node
	if t.totalP == 0x8000 {
		t.reconst(rootP, t.mostP+1)
		t.totalP = n[rootP].freq
		n[rootP].freq = 0xffff
	}
	q := int(t.sNode[p+nChar])
	for q != rootP {
		q = t.swapInc(q)
	}
	t.totalP++
}

// makeNewNode splits the last leaf to give position code p a leaf of frequency zero,
// then counts one use of it.
func (t *dynTree) makeNewNode(p int) {
	n := &t.node
	r := t.mostP + 1
	q := r + 1
	n[r].child = n[t.mostP].child
	t.sNode[^n[r].child] = int16(r)
	n[q].child = ^int16(p + nChar)
	n[t.mostP].child = int16(q)
	n[r].freq = n[t.mostP].freq
	n[q].freq = 0
	n[r].block = n[t.mostP].block
	if t.mostP == rootP {
		n[rootP].freq = 0xffff
		t.edge[n[rootP].block]++
	}
	n[q].parent, n[r].parent = int16(t.mostP), int16(t.mostP)
	b := t.stock[t.avail]
	t.avail++
	n[q].block = b
	t.edge[b] = int16(q)
	t.mostP = q
	t.sNode[p+nChar] = int16(q)
	t.updateP(p)
}

// walk descends from root one register bit per level; a set bit selects the lower-numbered child.
func (r *Reader) walk(root int) int {
	br, n := &r.br, &r.dyn.node
	c := int(n[root].child)
	buf := int16(br.bitbuf)
	cnt := uint(0)
	for c > 0 {
		if buf < 0 {
			c--
		}
		c = int(n[c].child)
		buf <<= 1
		cnt++
		if cnt == 16 {
			br.fillbuf(16)
			buf = int16(br.bitbuf)
			cnt = 0
		}
	}
	br.fillbuf(cnt)
	return ^c
}

func (r *Reader) decodeCDyn() int {
	t := &r.dyn
	c := r.walk(rootC)
	t.updateC(c)
	if c == t.n1 {
		c += int(r.br.getbits(8))
	}
	return c
}

func (r *Reader) decodePDyn() int {
	t := &r.dyn
	for r.decodeCount > t.nextcount {
		t.makeNewNode(int(t.nextcount / 64))
		t.nextcount += 64
		if t.nextcount >= t.nn {
			t.nextcount = math.MaxInt64
		}
	}
	c := r.walk(rootP) - nChar
	t.updateP(c)
	return c<<6 + int(r.br.getbits(6))
}
