package lha

import (
	"bytes"
	"testing"
)

func TestBitReader(t *testing.T) {
	var br bitReader
	br.init(bytes.NewReader([]byte{0b10110011, 0b01011100, 0xff}), 2)

	steps := []struct {
		n    uint
		want uint16
	}{
		{1, 0b1},
		{3, 0b011},
		{7, 0b0011010},
		{5, 0b11100},
		{8, 0}, // past the packed size, so the 0xff is never read
		{16, 0},
	}
	for i, s := range steps {
		if got := br.getbits(s.n); got != s.want {
			t.Errorf("step %d: getbits(%d) = %#b, expected %#b", i, s.n, got, s.want)
		}
	}
	if br.remaining != 0 {
		t.Errorf("expected all packed bytes consumed, %d left", br.remaining)
	}
}

func TestBitReaderShortSource(t *testing.T) {
	var br bitReader
	br.init(bytes.NewReader([]byte{0xff}), 100)
	if got := br.getbits(16); got != 0xff00 {
		t.Errorf("expected zero padding, got %#04x", got)
	}
	if br.err != nil {
		t.Errorf("EOF should not be an error: %v", br.err)
	}
}
