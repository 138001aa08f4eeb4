// Package deflate implements an RFC 1951 DEFLATE decompressor (stored,
// static-Huffman, and dynamic-Huffman blocks, with LZ77 back-reference
// expansion) over the bit reader and canonical Huffman table in
// internal/bitstream.
package deflate

import (
	"github.com/go-raster/raster/internal/bitstream"
	"github.com/go-raster/raster/internal/errkind"
)

// codeLengthOrder is the fixed order in which the 19 code-length code
// lengths are transmitted in a dynamic block header (RFC 1951 §3.2.7).
var codeLengthOrder = [19]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// lengthBase/lengthExtraBits and distBase/distExtraBits implement the
// length/distance alphabets in RFC 1951 §3.2.5, indexed from symbol 257
// (length) or 0 (distance).
var lengthBase = [29]int{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13,
	15, 17, 19, 23, 27, 31, 35, 43, 51, 59,
	67, 83, 99, 115, 131, 163, 195, 227, 258,
}
var lengthExtraBits = [29]int{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1,
	1, 1, 2, 2, 2, 2, 3, 3, 3, 3,
	4, 4, 4, 4, 5, 5, 5, 5, 0,
}
var distBase = [30]int{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25,
	33, 49, 65, 97, 129, 193, 257, 385, 513, 769,
	1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
}
var distExtraBits = [30]int{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3,
	4, 4, 5, 5, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// staticLiteralTable and staticDistanceTable are built once (package init)
// since the static-Huffman block type (BTYPE=01) always uses the same
// fixed code lengths.
var staticLiteralTable *bitstream.HuffmanTable
var staticDistanceTable *bitstream.HuffmanTable

func init() {
	litLengths := make([]int, 288)
	for i := range litLengths {
		switch {
		case i <= 143:
			litLengths[i] = 8
		case i <= 255:
			litLengths[i] = 9
		case i <= 279:
			litLengths[i] = 7
		default:
			litLengths[i] = 8
		}
	}
	var err error
	staticLiteralTable, err = bitstream.FromCodeLengths(litLengths)
	if err != nil {
		panic("deflate: static literal table construction: " + err.Error())
	}

	distLengths := make([]int, 30)
	for i := range distLengths {
		distLengths[i] = 5
	}
	staticDistanceTable, err = bitstream.FromCodeLengths(distLengths)
	if err != nil {
		panic("deflate: static distance table construction: " + err.Error())
	}
}

// Inflate decodes a raw DEFLATE bitstream (no zlib or gzip framing) and
// returns the reconstructed bytes.
func Inflate(compressed []byte) ([]byte, error) {
	// DEFLATE's compression ratio is unbounded, but 3x the compressed size
	// is a reasonable starting guess that avoids most reallocations for
	// typical data; growth beyond that falls back to ordinary append.
	out := make([]byte, 0, len(compressed)*3)
	bitOff := 0

	for bitOff>>3 < len(compressed) {
		final, err := bitstream.ReadOneBit(compressed, bitOff)
		if err != nil {
			return nil, errkind.Wrap(errkind.Corrupted, err, "deflate: reading BFINAL")
		}
		bitOff++

		btype, err := bitstream.ReadBits(compressed, bitOff, 2)
		if err != nil {
			return nil, errkind.Wrap(errkind.Corrupted, err, "deflate: reading BTYPE")
		}
		bitOff += 2

		switch btype {
		case 0b00:
			bitOff, err = inflateStored(compressed, &out, bitOff)
		case 0b01:
			bitOff, err = inflateHuffmanBlock(compressed, &out, bitOff, staticLiteralTable, staticDistanceTable)
		case 0b10:
			bitOff, err = inflateDynamic(compressed, &out, bitOff)
		default:
			err = errkind.New(errkind.Corrupted, "deflate: BTYPE 11 is reserved/invalid")
		}
		if err != nil {
			return nil, err
		}

		if final == 1 {
			break
		}
	}

	return out, nil
}

// inflateStored handles BTYPE=00: byte-align, read LEN/NLEN, copy LEN raw
// bytes.
func inflateStored(compressed []byte, out *[]byte, bitOff int) (int, error) {
	bitOff = bitstream.AlignToByte(bitOff)
	byteOff := bitOff >> 3
	if byteOff+4 > len(compressed) {
		return 0, errkind.New(errkind.Corrupted, "deflate: stored block header truncated")
	}

	length := int(compressed[byteOff]) | int(compressed[byteOff+1])<<8
	nlen := int(compressed[byteOff+2]) | int(compressed[byteOff+3])<<8
	if length^0xffff != nlen {
		return 0, errkind.New(errkind.Corrupted, "deflate: stored block LEN/NLEN mismatch")
	}
	byteOff += 4

	if byteOff+length > len(compressed) {
		return 0, errkind.New(errkind.Corrupted, "deflate: stored block payload truncated")
	}
	*out = append(*out, compressed[byteOff:byteOff+length]...)
	byteOff += length

	return byteOff << 3, nil
}

// inflateDynamic handles BTYPE=10: read the HLIT/HDIST/HCLEN header, the
// code-length Huffman table, decode the flat code-length vector, split it
// into literal/length and distance tables, then fall into the shared data
// loop.
func inflateDynamic(compressed []byte, out *[]byte, bitOff int) (int, error) {
	hlit, err := bitstream.ReadBits(compressed, bitOff, 5)
	if err != nil {
		return 0, errkind.Wrap(errkind.Corrupted, err, "deflate: reading HLIT")
	}
	hlit += 257
	bitOff += 5

	hdist, err := bitstream.ReadBits(compressed, bitOff, 5)
	if err != nil {
		return 0, errkind.Wrap(errkind.Corrupted, err, "deflate: reading HDIST")
	}
	hdist += 1
	bitOff += 5

	hclen, err := bitstream.ReadBits(compressed, bitOff, 4)
	if err != nil {
		return 0, errkind.Wrap(errkind.Corrupted, err, "deflate: reading HCLEN")
	}
	hclen += 4
	bitOff += 4

	clLengths := make([]int, 19)
	for i := 0; i < hclen; i++ {
		v, err := bitstream.ReadBits(compressed, bitOff, 3)
		if err != nil {
			return 0, errkind.Wrap(errkind.Corrupted, err, "deflate: reading code-length code length")
		}
		bitOff += 3
		clLengths[codeLengthOrder[i]] = v
	}
	clTable, err := bitstream.FromCodeLengths(clLengths)
	if err != nil {
		return 0, errkind.Wrap(errkind.Corrupted, err, "deflate: building code-length table")
	}

	total := hlit + hdist
	codeLengths := make([]int, 0, total)
	last := 0
	for len(codeLengths) < total {
		value, next, err := clTable.Decode(compressed, bitOff)
		if err != nil {
			return 0, errkind.Wrap(errkind.Corrupted, err, "deflate: decoding code length")
		}
		bitOff = next

		switch {
		case value <= 15:
			codeLengths = append(codeLengths, value)
			last = value
		case value == 16:
			repeat, err := bitstream.ReadBits(compressed, bitOff, 2)
			if err != nil {
				return 0, errkind.Wrap(errkind.Corrupted, err, "deflate: reading repeat-16 extra bits")
			}
			bitOff += 2
			repeat += 3
			for i := 0; i < repeat; i++ {
				codeLengths = append(codeLengths, last)
			}
		case value == 17:
			repeat, err := bitstream.ReadBits(compressed, bitOff, 3)
			if err != nil {
				return 0, errkind.Wrap(errkind.Corrupted, err, "deflate: reading repeat-17 extra bits")
			}
			bitOff += 3
			repeat += 3
			for i := 0; i < repeat; i++ {
				codeLengths = append(codeLengths, 0)
			}
		case value == 18:
			repeat, err := bitstream.ReadBits(compressed, bitOff, 7)
			if err != nil {
				return 0, errkind.Wrap(errkind.Corrupted, err, "deflate: reading repeat-18 extra bits")
			}
			bitOff += 7
			repeat += 11
			for i := 0; i < repeat; i++ {
				codeLengths = append(codeLengths, 0)
			}
		default:
			return 0, errkind.Newf(errkind.Corrupted, "deflate: invalid code-length symbol %d", value)
		}
	}
	if len(codeLengths) != total {
		return 0, errkind.New(errkind.Corrupted, "deflate: code length vector overshot HLIT+HDIST")
	}

	litTable, err := bitstream.FromCodeLengths(codeLengths[:hlit])
	if err != nil {
		return 0, errkind.Wrap(errkind.Corrupted, err, "deflate: building literal/length table")
	}
	distTable, err := bitstream.FromCodeLengths(codeLengths[hlit:])
	if err != nil {
		return 0, errkind.Wrap(errkind.Corrupted, err, "deflate: building distance table")
	}

	return inflateHuffmanBlock(compressed, out, bitOff, litTable, distTable)
}

// inflateHuffmanBlock is the data-decoding loop shared by static (01) and
// dynamic (10) blocks: decode a literal/length symbol, emit a literal byte,
// stop at end-of-block, or expand a (length, distance) back-reference.
func inflateHuffmanBlock(compressed []byte, out *[]byte, bitOff int, lit, dist *bitstream.HuffmanTable) (int, error) {
	for {
		symbol, next, err := lit.Decode(compressed, bitOff)
		if err != nil {
			return 0, errkind.Wrap(errkind.Corrupted, err, "deflate: decoding literal/length symbol")
		}
		bitOff = next

		switch {
		case symbol < 256:
			*out = append(*out, byte(symbol))
		case symbol == 256:
			return bitOff, nil
		default:
			idx := symbol - 257
			if idx < 0 || idx >= len(lengthBase) {
				return 0, errkind.Newf(errkind.Corrupted, "deflate: invalid length symbol %d", symbol)
			}
			extra, err := bitstream.ReadBits(compressed, bitOff, lengthExtraBits[idx])
			if err != nil {
				return 0, errkind.Wrap(errkind.Corrupted, err, "deflate: reading length extra bits")
			}
			bitOff += lengthExtraBits[idx]
			length := lengthBase[idx] + extra

			distSymbol, next, err := dist.Decode(compressed, bitOff)
			if err != nil {
				return 0, errkind.Wrap(errkind.Corrupted, err, "deflate: decoding distance symbol")
			}
			bitOff = next
			if distSymbol < 0 || distSymbol >= len(distBase) {
				return 0, errkind.Newf(errkind.Corrupted, "deflate: invalid distance symbol %d", distSymbol)
			}
			distExtra, err := bitstream.ReadBits(compressed, bitOff, distExtraBits[distSymbol])
			if err != nil {
				return 0, errkind.Wrap(errkind.Corrupted, err, "deflate: reading distance extra bits")
			}
			bitOff += distExtraBits[distSymbol]
			distance := distBase[distSymbol] + distExtra

			if err := copyBackref(out, length, distance); err != nil {
				return 0, err
			}
		}
	}
}

// copyBackref appends length bytes read starting distance bytes before the
// current end of *out. The copy proceeds one byte at a time: when
// distance < length the source range overlaps the destination range being
// written, and each newly appended byte must be visible to later iterations
// of the same copy (a run-length pattern), which forbids a bulk
// non-overlapping memmove/copy() here.
func copyBackref(out *[]byte, length, distance int) error {
	n := len(*out)
	if distance <= 0 || distance > n {
		return errkind.Newf(errkind.Corrupted, "deflate: back-reference distance %d exceeds output length %d", distance, n)
	}
	start := n - distance
	for i := 0; i < length; i++ {
		*out = append(*out, (*out)[start+i])
	}
	return nil
}
