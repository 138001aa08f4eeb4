package bitstream

import "testing"

func TestFromCodeLengthsCanonicalOrderSmall(t *testing.T) {
	// symbol 0:2, 1:1, 2:3, 3:3 -> codes {0:0b10, 1:0b0, 2:0b110, 3:0b111}
	lengths := []int{2, 1, 3, 3}
	table, err := FromCodeLengths(lengths)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[int]struct {
		length, code int
	}{
		0: {2, 0b10},
		1: {1, 0b0},
		2: {3, 0b110},
		3: {3, 0b111},
	}
	for symbol, wc := range want {
		m := table.byLength[wc.length]
		if m == nil {
			t.Fatalf("no table at length %d", wc.length)
		}
		if got, ok := m[wc.code]; !ok || got != symbol {
			t.Errorf("byLength[%d][%#b] = %d, want %d", wc.length, wc.code, got, symbol)
		}
	}
}

func TestFromCodeLengthsCanonicalOrderLarger(t *testing.T) {
	// symbol 0..7 lengths {3,3,3,3,3,2,4,4} -> codes per spec §8 property 2.
	lengths := []int{3, 3, 3, 3, 3, 2, 4, 4}
	table, err := FromCodeLengths(lengths)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []struct{ length, code int }{
		{3, 0b010}, {3, 0b011}, {3, 0b100}, {3, 0b101},
		{3, 0b110}, {2, 0b00}, {4, 0b1110}, {4, 0b1111},
	}
	for symbol, wc := range want {
		m := table.byLength[wc.length]
		if m == nil {
			t.Fatalf("no table at length %d", wc.length)
		}
		if got, ok := m[wc.code]; !ok || got != symbol {
			t.Errorf("byLength[%d][%#b] = %d, want %d", wc.length, wc.code, got, symbol)
		}
	}
}

// encodeSymbols packs a sequence of symbols using the canonical codes in
// table, MSB-first within each code, returning the resulting byte buffer.
func encodeSymbols(t *testing.T, symbols []int, codes map[int]struct{ length, code int }) []byte {
	t.Helper()
	var bits []int
	for _, s := range symbols {
		wc := codes[s]
		for i := wc.length - 1; i >= 0; i-- {
			bits = append(bits, (wc.code>>uint(i))&1)
		}
	}
	buf := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b == 1 {
			buf[i/8] |= 1 << uint(i%8)
		}
	}
	return buf
}

func TestHuffmanDecodeRoundTrip(t *testing.T) {
	lengths := []int{1, 2, 3, 3}
	table, err := FromCodeLengths(lengths)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	codes := map[int]struct{ length, code int }{
		0: {1, 0b0},
		1: {2, 0b10},
		2: {3, 0b110},
		3: {3, 0b111},
	}
	symbols := []int{0, 1, 2, 3, 1, 0, 3}
	buf := encodeSymbols(t, symbols, codes)

	off := 0
	for _, want := range symbols {
		sym, next, err := table.Decode(buf, off)
		if err != nil {
			t.Fatalf("Decode at %d: %v", off, err)
		}
		if sym != want {
			t.Fatalf("Decode at %d = %d, want %d", off, sym, want)
		}
		off = next
	}
}

func TestHuffmanDecodeKnownBitstream(t *testing.T) {
	// lengths {0:1,1:2,2:3,3:3}; codes {2=0b10->1, 0=0b0->0, 6=0b110->2, 7=0b111->3}
	lengths := []int{1, 2, 3, 3}
	table, err := FromCodeLengths(lengths)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	codeBytes := []byte{0b11011010, 0b1}
	cases := []struct {
		off     int
		symbol  int
		nextOff int
	}{
		{0, 0, 1},
		{1, 1, 3},
		{3, 2, 6},
		{6, 3, 9},
	}
	for _, c := range cases {
		sym, next, err := table.Decode(codeBytes, c.off)
		if err != nil {
			t.Fatalf("Decode at %d: %v", c.off, err)
		}
		if sym != c.symbol || next != c.nextOff {
			t.Errorf("Decode(%d) = (%d, %d), want (%d, %d)", c.off, sym, next, c.symbol, c.nextOff)
		}
	}
}

func TestHuffmanDecodeMissErrors(t *testing.T) {
	lengths := []int{1}
	table, err := FromCodeLengths(lengths)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A single-symbol table of length 1 only matches code "0"; "1" never
	// resolves and decode must fail once max length is exhausted.
	if _, _, err := table.Decode([]byte{0xff}, 0); err == nil {
		t.Fatal("expected decode error for unmatched code")
	}
}

func TestFromCodeLengthsAllZeroIsError(t *testing.T) {
	if _, err := FromCodeLengths([]int{0, 0, 0}); err == nil {
		t.Fatal("expected error for all-zero code lengths")
	}
}
