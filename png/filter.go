package png

import (
	"github.com/go-raster/raster/internal/errkind"
)

// Filter type tags, one byte prefixing each scanline in the decompressed
// IDAT stream.
const (
	filterNone    = 0
	filterSub     = 1
	filterUp      = 2
	filterAverage = 3
	filterPaeth   = 4
)

// defilter reverses PNG's per-scanline filtering, returning width*height*bpp
// bytes of raw pixel data. raw is the inflated IDAT stream: each scanline is
// prefixed with a one-byte filter type followed by width*bpp filtered bytes.
func defilter(raw []byte, width, height, channels int) ([]byte, error) {
	bpp := channels // 8 bits per channel, so bytes-per-pixel == channel count
	stride := width * bpp
	wantLen := height * (stride + 1)
	if len(raw) < wantLen {
		return nil, errkind.New(errkind.Corrupted, "png: inflated data shorter than expected for width/height")
	}

	out := make([]byte, height*stride)
	prevRow := make([]byte, stride) // implicit zero row above the first scanline

	rawOff := 0
	for y := 0; y < height; y++ {
		filterType := raw[rawOff]
		rawOff++
		srcRow := raw[rawOff : rawOff+stride]
		rawOff += stride

		curRow := out[y*stride : (y+1)*stride]

		switch filterType {
		case filterNone:
			copy(curRow, srcRow)
		case filterSub:
			for x := 0; x < stride; x++ {
				var left byte
				if x >= bpp {
					left = curRow[x-bpp]
				}
				curRow[x] = srcRow[x] + left
			}
		case filterUp:
			for x := 0; x < stride; x++ {
				curRow[x] = srcRow[x] + prevRow[x]
			}
		case filterAverage:
			for x := 0; x < stride; x++ {
				var left, up int
				if x >= bpp {
					left = int(curRow[x-bpp])
				}
				up = int(prevRow[x])
				curRow[x] = srcRow[x] + byte((left+up)/2)
			}
		case filterPaeth:
			for x := 0; x < stride; x++ {
				var left, upLeft int
				up := int(prevRow[x])
				if x >= bpp {
					left = int(curRow[x-bpp])
					upLeft = int(prevRow[x-bpp])
				}
				curRow[x] = srcRow[x] + paethPredictor(left, up, upLeft)
			}
		default:
			return nil, errkind.Newf(errkind.Corrupted, "png: unknown filter type %d at row %d", filterType, y)
		}

		prevRow = curRow
	}

	return out, nil
}

// paethPredictor picks whichever of a (left), b (up), c (upper-left) is
// closest to p = a+b-c, breaking ties a, then b, then c.
func paethPredictor(a, b, c int) byte {
	p := a + b - c
	pa := abs(p - a)
	pb := abs(p - b)
	pc := abs(p - c)
	switch {
	case pa <= pb && pa <= pc:
		return byte(a)
	case pb <= pc:
		return byte(b)
	default:
		return byte(c)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
