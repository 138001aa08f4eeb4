package bitstream

import "github.com/go-raster/raster/internal/errkind"

// maxCodeLength is the largest Huffman code length DEFLATE ever produces
// (RFC 1951 §3.2.7: code-length codes cap HLIT/HDIST/HCLEN tables at 15
// bits).
const maxCodeLength = 15

// HuffmanTable is a canonical Huffman decode table: for each code length L
// in [minLen, maxLen], a dense map from the L-bit code value to its symbol.
//
// DEFLATE's alphabets (288 literal/length symbols, 30 distance symbols, 19
// code-length symbols) are small enough that a flat per-length map costs
// nothing in practice, and it keeps the Decode algorithm a direct
// transcription of RFC 1951 §3.2.2.
type HuffmanTable struct {
	byLength [maxCodeLength + 1]map[int]int // length -> code -> symbol
	minLen   int
	maxLen   int
}

// FromCodeLengths builds a canonical Huffman decode table from a slice
// indexed by symbol, where lengths[s] is the code length assigned to
// symbol s (0 meaning "symbol unused").
//
// Construction follows RFC 1951 §3.2.2 exactly: count the number of codes
// at each length, derive the first code at each length via
// next(L) = (next(L-1) + count(L-1)) << 1, then assign codes to symbols in
// ascending symbol order, skipping symbols of length 0.
func FromCodeLengths(lengths []int) (*HuffmanTable, error) {
	var count [maxCodeLength + 1]int
	for _, l := range lengths {
		if l < 0 || l > maxCodeLength {
			return nil, errkind.Newf(errkind.Corrupted, "bitstream: code length %d out of range", l)
		}
		count[l]++
	}
	count[0] = 0

	var nextCode [maxCodeLength + 2]int
	code := 0
	for bits := 1; bits <= maxCodeLength; bits++ {
		code = (code + count[bits-1]) << 1
		nextCode[bits] = code
	}

	t := &HuffmanTable{minLen: maxCodeLength + 1, maxLen: 0}
	for symbol, length := range lengths {
		if length == 0 {
			continue
		}
		c := nextCode[length]
		nextCode[length]++
		if t.byLength[length] == nil {
			t.byLength[length] = make(map[int]int)
		}
		t.byLength[length][c] = symbol
		if length < t.minLen {
			t.minLen = length
		}
		if length > t.maxLen {
			t.maxLen = length
		}
	}
	if t.maxLen == 0 {
		return nil, errkind.New(errkind.Corrupted, "bitstream: all code lengths are zero")
	}
	return t, nil
}

// Decode reads one symbol starting at bit offset off. Huffman codes are
// read MSB-first within each code (accumulating code = (code<<1)|nextBit,
// unlike every other DEFLATE field, which is LSB-first) — see RFC 1951
// §3.1.1. It returns the symbol and the bit offset immediately following
// the consumed code.
func (t *HuffmanTable) Decode(buf []byte, off int) (symbol int, newOff int, err error) {
	code := 0
	for length := 1; length <= t.maxLen; length++ {
		bit, err := ReadOneBit(buf, off+length-1)
		if err != nil {
			return 0, 0, err
		}
		code = (code << 1) | bit
		if length >= t.minLen {
			if m := t.byLength[length]; m != nil {
				if sym, ok := m[code]; ok {
					return sym, off + length, nil
				}
			}
		}
	}
	return 0, 0, errkind.New(errkind.Corrupted, "bitstream: no Huffman code matched before max length")
}
