package lha

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"pgregory.net/rapid"
)

// checkTree verifies the sibling property over nodes [lo, hi).
func checkTree(t *dynTree, lo, hi, root int) error {
	n := &t.node
	for i := lo; i < hi; i++ {
		nd := n[i]
		if i != root {
			if p := int(nd.parent); p < lo || p >= hi {
				return fmt.Errorf("node %d: parent %d out of range", i, p)
			} else if n[p].freq < nd.freq {
				return fmt.Errorf("node %d: freq %d above parent %d freq %d", i, nd.freq, p, n[p].freq)
			}
		}

		if c := int(nd.child); c >= 0 {
			if int(n[c].parent) != i || int(n[c-1].parent) != i {
				return fmt.Errorf("node %d: children %d,%d do not point back", i, c-1, c)
			}
			if i != rootP && nd.freq != n[c].freq+n[c-1].freq {
				return fmt.Errorf("node %d: freq %d is not %d+%d", i, nd.freq, n[c].freq, n[c-1].freq)
			}
		} else if int(t.sNode[^nd.child]) != i {
			return fmt.Errorf("node %d: symbol %d maps to node %d", i, ^nd.child, t.sNode[^nd.child])
		}

		if i+1 < hi {
			if nd.freq < n[i+1].freq {
				return fmt.Errorf("node %d: freq %d below node %d freq %d", i, nd.freq, i+1, n[i+1].freq)
			}
			if (nd.freq == n[i+1].freq) != (nd.block == n[i+1].block) {
				return fmt.Errorf("nodes %d,%d: freqs %d,%d in blocks %d,%d",
					i, i+1, nd.freq, n[i+1].freq, nd.block, n[i+1].block)
			}
		}
		if e := int(t.edge[nd.block]); e > i || n[e].block != nd.block || (e > lo && n[e-1].block == nd.block) {
			return fmt.Errorf("node %d: block %d has edge %d", i, nd.block, e)
		}
	}
	return nil
}

func TestAdaptiveLiteralTree(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nMax := rapid.SampledFrom([]int{286, 314}).Draw(t, "alphabet")
		syms := rapid.SliceOfN(rapid.IntRange(0, nMax-1), 1, 3000).Draw(t, "symbols")

		tree := new(dynTree)
		tree.startC(nMax, maxmatch)
		if err := checkTree(tree, 0, nMax*2-1, rootC); err != nil {
			t.Fatalf("fresh tree: %v", err)
		}
		for i, c := range syms {
			tree.updateC(c)
			if err := checkTree(tree, 0, nMax*2-1, rootC); err != nil {
				t.Fatalf("after update %d (symbol %d): %v", i, c, err)
			}
		}
	})
}

func TestAdaptivePositionTree(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tree := new(dynTree)
		tree.startC(286, maxmatch)
		tree.startP(13)
		leaves := 1
		steps := rapid.SliceOfN(rapid.IntRange(0, 127), 1, 1000).Draw(t, "steps")
		for i, s := range steps {
			if s%4 == 0 && leaves < 128 {
				tree.makeNewNode(leaves)
				leaves++
			} else {
				tree.updateP(s % leaves)
			}
			if err := checkTree(tree, rootP, tree.mostP+1, rootP); err != nil {
				t.Fatalf("step %d: %v", i, err)
			}
		}
	})
}

func TestReconstruction(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	tree := new(dynTree)
	tree.startC(286, maxmatch)
	tree.startP(13)
	for p := 1; p < 128; p++ {
		tree.makeNewNode(p)
	}

	for i := range 0x12000 {
		// skewed so that a few leaves climb quickly
		c := int(rng.ExpFloat64()*10) % 286
		tree.updateC(c)
		tree.updateP(int(rng.ExpFloat64()*5) % 128)
		if i%0x1000 == 0 {
			if err := checkTree(tree, 0, 286*2-1, rootC); err != nil {
				t.Fatalf("literal tree after %d updates: %v", i, err)
			}
			if err := checkTree(tree, rootP, tree.mostP+1, rootP); err != nil {
				t.Fatalf("position tree after %d updates: %v", i, err)
			}
		}
	}
	if tree.node[rootC].freq >= 0x8000 {
		t.Errorf("literal tree was never rebuilt: root freq %#x", tree.node[rootC].freq)
	}
	if err := checkTree(tree, 0, 286*2-1, rootC); err != nil {
		t.Error(err)
	}
}
