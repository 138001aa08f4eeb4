// Package png decodes a constrained subset of PNG: the 8-byte signature,
// chunk framing (length/type/data/CRC), IHDR/IDAT/IEND, and the five
// scanline filter types applied to a zlib-compressed, concatenated IDAT
// stream. The zlib/DEFLATE half is delegated to internal/deflate.
package png

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/go-raster/raster/internal/deflate"
	"github.com/go-raster/raster/internal/errkind"
)

// Signature is the 8 magic bytes every PNG stream must start with.
var Signature = [8]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

// ColorType enumerates the color type values PNG's IHDR can carry.
// Grayscale, Truecolor, GrayscaleAlpha, and TruecolorAlpha are decoded;
// IndexedColor is reported as UnsupportedFeature.
type ColorType int

const (
	Grayscale      ColorType = 0
	Truecolor      ColorType = 2
	IndexedColor   ColorType = 3
	GrayscaleAlpha ColorType = 4
	TruecolorAlpha ColorType = 6
)

// Image is a fully decoded, defiltered PNG raster: Pixels is top-down,
// row-major, Channels bytes per pixel, 8 bits per channel.
type Image struct {
	Width, Height int
	ColorType     ColorType
	BitDepth      int
	Channels      int
	Pixels        []byte
}

// Chunk is one length-prefixed PNG chunk.
type Chunk struct {
	Type [4]byte
	Data []byte
}

// Decode parses a complete PNG stream into a defiltered Image.
func Decode(data []byte) (*Image, error) {
	chunks, err := parseChunks(data)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 || string(chunks[0].Type[:]) != "IHDR" {
		return nil, errkind.New(errkind.Corrupted, "png: IHDR must be the first chunk")
	}

	var ihdr *Image
	var idat bytes.Buffer
	sawIEND := false

	for _, c := range chunks {
		switch string(c.Type[:]) {
		case "IHDR":
			ihdr, err = parseIHDR(c.Data)
			if err != nil {
				return nil, err
			}
		case "IDAT":
			idat.Write(c.Data)
		case "IEND":
			sawIEND = true
		}
	}

	if ihdr == nil {
		return nil, errkind.New(errkind.Corrupted, "png: missing IHDR chunk")
	}
	if !sawIEND {
		return nil, errkind.New(errkind.Corrupted, "png: missing IEND chunk")
	}
	if idat.Len() == 0 {
		return nil, errkind.New(errkind.Corrupted, "png: no IDAT data")
	}

	raw, err := deflate.InflateZlib(idat.Bytes())
	if err != nil {
		return nil, errkind.Wrap(errkind.Corrupted, err, "png: inflating IDAT")
	}

	pixels, err := defilter(raw, ihdr.Width, ihdr.Height, ihdr.Channels)
	if err != nil {
		return nil, err
	}
	ihdr.Pixels = pixels
	return ihdr, nil
}

// parseChunks walks the chunk stream after verifying the 8-byte signature.
// Each chunk's CRC-32 (over type+data) is verified against the trailing
// 4 bytes.
func parseChunks(data []byte) ([]Chunk, error) {
	if len(data) < 8 {
		return nil, errkind.New(errkind.Corrupted, "png: stream shorter than signature")
	}
	var sig [8]byte
	copy(sig[:], data[:8])
	if sig != Signature {
		return nil, errkind.New(errkind.InvalidSignature, "png: missing PNG signature")
	}

	var chunks []Chunk
	off := 8
	for off < len(data) {
		if off+8 > len(data) {
			return nil, errkind.New(errkind.Corrupted, "png: truncated chunk header")
		}
		length := int(binary.BigEndian.Uint32(data[off : off+4]))
		var ctype [4]byte
		copy(ctype[:], data[off+4:off+8])
		bodyStart := off + 8
		bodyEnd := bodyStart + length
		if length < 0 || bodyEnd+4 > len(data) {
			return nil, errkind.New(errkind.Corrupted, "png: chunk length overruns stream")
		}

		body := data[bodyStart:bodyEnd]
		wantCRC := binary.BigEndian.Uint32(data[bodyEnd : bodyEnd+4])
		gotCRC := crc32.ChecksumIEEE(data[off+4 : bodyEnd])
		if gotCRC != wantCRC {
			return nil, errkind.New(errkind.Corrupted, "png: chunk CRC mismatch")
		}

		chunkData := make([]byte, len(body))
		copy(chunkData, body)
		chunks = append(chunks, Chunk{Type: ctype, Data: chunkData})

		off = bodyEnd + 4
		if string(ctype[:]) == "IEND" {
			break
		}
	}
	return chunks, nil
}

func parseIHDR(data []byte) (*Image, error) {
	if len(data) < 13 {
		return nil, errkind.New(errkind.Corrupted, "png: IHDR shorter than 13 bytes")
	}
	width := int(binary.BigEndian.Uint32(data[0:4]))
	height := int(binary.BigEndian.Uint32(data[4:8]))
	bitDepth := int(data[8])
	colorType := ColorType(data[9])
	interlace := data[12]

	if bitDepth != 8 {
		return nil, errkind.Newf(errkind.UnsupportedFeature, "png: bit depth %d not supported", bitDepth)
	}
	if interlace != 0 {
		return nil, errkind.New(errkind.UnsupportedFeature, "png: interlaced images are not supported")
	}

	var channels int
	switch colorType {
	case Grayscale:
		channels = 1
	case Truecolor:
		channels = 3
	case GrayscaleAlpha:
		channels = 2
	case TruecolorAlpha:
		channels = 4
	default:
		return nil, errkind.Newf(errkind.UnsupportedFeature, "png: color type %d not supported", colorType)
	}

	return &Image{
		Width:     width,
		Height:    height,
		ColorType: colorType,
		BitDepth:  bitDepth,
		Channels:  channels,
	}, nil
}
