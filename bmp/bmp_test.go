package bmp

import (
	"bytes"
	"encoding/binary"
	"testing"

	ximage_bmp "golang.org/x/image/bmp"
)

// buildBMP assembles a minimal 24bpp BITMAPFILEHEADER+BITMAPINFOHEADER
// bitmap. rows is bottom-up as BMP stores it, each row already padded to a
// 4-byte boundary.
func buildBMP(width, height int, rowsBottomUp [][]byte) []byte {
	rowStride := ((width*3 + 3) / 4) * 4
	pixelDataSize := rowStride * height
	pixelOffset := fileHeaderSize + infoHeaderSize
	fileSize := pixelOffset + pixelDataSize

	buf := make([]byte, fileSize)
	buf[0], buf[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(buf[2:6], uint32(fileSize))
	binary.LittleEndian.PutUint32(buf[10:14], uint32(pixelOffset))

	binary.LittleEndian.PutUint32(buf[14:18], infoHeaderSize)
	binary.LittleEndian.PutUint32(buf[18:22], uint32(width))
	binary.LittleEndian.PutUint32(buf[22:26], uint32(height)) // positive -> bottom-up
	binary.LittleEndian.PutUint16(buf[26:28], 1)              // planes
	binary.LittleEndian.PutUint16(buf[28:30], 24)             // bpp
	binary.LittleEndian.PutUint32(buf[30:34], 0)              // BI_RGB

	for row := 0; row < height; row++ {
		start := pixelOffset + row*rowStride
		copy(buf[start:start+rowStride], rowsBottomUp[row])
	}
	return buf
}

func TestDecode2x2BottomUpToTopDownRGB(t *testing.T) {
	// Bottom-up storage order: row 0 in the file is the visual bottom row.
	// BGR byte order per pixel.
	bottomUpRows := [][]byte{
		{0, 0, 255, 0, 255, 0}, // visual bottom row: red, green (stored BGR)
		{255, 0, 0, 255, 255, 255}, // visual top row: blue, white
	}
	data := buildBMP(2, 2, bottomUpRows)

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Width != 2 || img.Height != 2 {
		t.Fatalf("got %dx%d, want 2x2", img.Width, img.Height)
	}
	want := []byte{
		0, 0, 255, 255, 255, 255, // top row: blue, white
		255, 0, 0, 0, 255, 0, // bottom row: red, green
	}
	if !bytes.Equal(img.Pixels, want) {
		t.Fatalf("pixels = % x, want % x", img.Pixels, want)
	}
}

func TestDecodeRejectsBadSignature(t *testing.T) {
	data := buildBMP(1, 1, [][]byte{{1, 2, 3, 0}})
	data[0] = 'X'
	if _, err := Decode(data); err == nil {
		t.Fatal("expected error for bad signature")
	}
}

func TestDecodeRejectsUnsupportedBitDepth(t *testing.T) {
	data := buildBMP(1, 1, [][]byte{{1, 2, 3, 0}})
	binary.LittleEndian.PutUint16(data[28:30], 8)
	if _, err := Decode(data); err == nil {
		t.Fatal("expected error for unsupported bit depth")
	}
}

func TestDecodeRejectsCompressed(t *testing.T) {
	data := buildBMP(1, 1, [][]byte{{1, 2, 3, 0}})
	binary.LittleEndian.PutUint32(data[30:34], 1) // BI_RLE8
	if _, err := Decode(data); err == nil {
		t.Fatal("expected error for compressed bitmap")
	}
}

// TestDecodeMatchesReferenceDecoder cross-validates against
// golang.org/x/image/bmp, used here purely as a test oracle.
func TestDecodeMatchesReferenceDecoder(t *testing.T) {
	bottomUpRows := [][]byte{
		{10, 20, 30, 40, 50, 60},
		{70, 80, 90, 100, 110, 120},
	}
	data := buildBMP(2, 2, bottomUpRows)

	ours, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	refImg, err := ximage_bmp.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reference decode failed: %v", err)
	}
	bounds := refImg.Bounds()
	if bounds.Dx() != ours.Width || bounds.Dy() != ours.Height {
		t.Fatalf("reference decoder size %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), ours.Width, ours.Height)
	}
	for y := 0; y < ours.Height; y++ {
		for x := 0; x < ours.Width; x++ {
			r16, g16, b16, _ := refImg.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			r, g, b := byte(r16>>8), byte(g16>>8), byte(b16>>8)
			off := (y*ours.Width + x) * 3
			if ours.Pixels[off] != r || ours.Pixels[off+1] != g || ours.Pixels[off+2] != b {
				t.Fatalf("pixel (%d,%d) = %d,%d,%d want %d,%d,%d", x, y,
					ours.Pixels[off], ours.Pixels[off+1], ours.Pixels[off+2], r, g, b)
			}
		}
	}
}
