package lha

import (
	"bytes"
	"errors"
	"testing"

	"pgregory.net/rapid"
)

// completeLengths draws a random complete prefix code by splitting leaves.
func completeLengths(t *rapid.T, nchar int) []byte {
	leaves := []byte{1, 1}
	k := rapid.IntRange(2, nchar).Draw(t, "leaves")
	for len(leaves) < k {
		i := rapid.IntRange(0, len(leaves)-1).Draw(t, "split")
		for leaves[i] == 16 {
			i = (i + 1) % len(leaves)
		}
		leaves[i]++
		leaves = append(leaves, leaves[i])
	}
	lens := make([]byte, nchar)
	perm := rapid.Permutation(rangeSlice(nchar)).Draw(t, "perm")
	for i, l := range leaves {
		lens[perm[i]] = l
	}
	return lens
}

func rangeSlice(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

func TestMakeTableDecodesEveryCode(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nchar := rapid.SampledFrom([]int{nt, np0, n1, nc}).Draw(t, "nchar")
		tablebits := uint(rapid.SampledFrom([]int{8, 12}).Draw(t, "tablebits"))
		lens := completeLengths(t, nchar)

		r := new(Reader)
		table := make([]uint16, 1<<tablebits)
		if err := makeTable(nchar, lens, tablebits, table, &r.st.tree); err != nil {
			t.Fatal(err)
		}

		codes := canonical(lens)
		for sym, l := range lens {
			if l == 0 {
				continue
			}
			w := new(bitWriter)
			w.put(uint(l), codes[sym])
			w.put(16, 0xa5a5)
			data := w.bytes()
			r.br.init(bytes.NewReader(data), int64(len(data)))
			got := r.lookup(table, lens, nchar, tablebits)
			if r.err != nil {
				t.Fatal(r.err)
			}
			if got != sym {
				t.Fatalf("code %0*b: expected symbol %d, got %d", int(l), codes[sym], sym, got)
			}
			if rest := r.br.getbits(16); rest != 0xa5a5 {
				t.Fatalf("symbol %d consumed the wrong number of bits", sym)
			}
		}
	})
}

func TestMakeTableRejects(t *testing.T) {
	var tree huffTree
	table := make([]uint16, 256)
	cases := map[string][]byte{
		"incomplete":     {1, 2, 3},
		"oversubscribed": {1, 1, 1},
		"empty":          {0, 0, 0},
		"too long":       {1, 17, 17},
	}
	for name, lens := range cases {
		t.Run(name, func(t *testing.T) {
			err := makeTable(len(lens), lens, 8, table, &tree)
			if !errors.Is(err, ErrBadTable) {
				t.Errorf("expected ErrBadTable, got %v", err)
			}
		})
	}

	rapid.Check(t, func(t *rapid.T) {
		lens := rapid.SliceOfN(rapid.IntRange(0, 20), 1, nc).Draw(t, "lens")
		b := make([]byte, len(lens))
		total := 0
		for i, l := range lens {
			b[i] = byte(l)
			if l > 0 && l <= 16 {
				total += 1 << (16 - l)
			}
		}
		var tree huffTree
		err := makeTable(len(b), b, 12, make([]uint16, 4096), &tree)
		valid := total == 1<<16
		for _, l := range lens {
			valid = valid && l <= 16
		}
		if valid != (err == nil) {
			t.Fatalf("weighted sum %#x: got %v", total, err)
		}
	})
}
