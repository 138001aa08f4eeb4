// Package avi composes a sequence of raw BGR frames (typically sourced from
// package bmp) into an uncompressed AVI container: RIFF/AVI with
// LIST/hdrl (avih + LIST/strl(strh+strf)), LIST/movi ('00dc' frame chunks),
// and an idx1 old-style index.
//
// Struct layouts follow the Win32 AVIMAINHEADER/AVISTREAMHEADER/
// BITMAPINFOHEADER/AVIOLDINDEX definitions field-for-field, packed with
// explicit little-endian byte writes rather than relying on Go struct
// layout (which carries no on-disk guarantee).
package avi

import (
	"encoding/binary"

	"github.com/go-raster/raster/internal/errkind"
	"github.com/go-raster/raster/riff"
)

// AVIIFKeyFrame marks an idx1 entry as a key frame. This writer never
// produces inter-frame deltas, so every entry carries it.
const AVIIFKeyFrame uint32 = 0x10

// MainHeader is the 56-byte AVIMAINHEADER (avih chunk payload).
type MainHeader struct {
	MicroSecPerFrame    uint32
	MaxBytesPerSec      uint32
	PaddingGranularity  uint32
	Flags               uint32
	TotalFrames         uint32
	InitialFrames       uint32
	Streams             uint32
	SuggestedBufferSize uint32
	Width               uint32
	Height              uint32
	Reserved            [4]uint32
}

func (h MainHeader) marshal() []byte {
	b := make([]byte, 56)
	binary.LittleEndian.PutUint32(b[0:4], h.MicroSecPerFrame)
	binary.LittleEndian.PutUint32(b[4:8], h.MaxBytesPerSec)
	binary.LittleEndian.PutUint32(b[8:12], h.PaddingGranularity)
	binary.LittleEndian.PutUint32(b[12:16], h.Flags)
	binary.LittleEndian.PutUint32(b[16:20], h.TotalFrames)
	binary.LittleEndian.PutUint32(b[20:24], h.InitialFrames)
	binary.LittleEndian.PutUint32(b[24:28], h.Streams)
	binary.LittleEndian.PutUint32(b[28:32], h.SuggestedBufferSize)
	binary.LittleEndian.PutUint32(b[32:36], h.Width)
	binary.LittleEndian.PutUint32(b[36:40], h.Height)
	for i, r := range h.Reserved {
		binary.LittleEndian.PutUint32(b[40+4*i:44+4*i], r)
	}
	return b
}

// StreamHeader is the 56-byte AVISTREAMHEADER (strh chunk payload) for a
// single 'vids' stream.
type StreamHeader struct {
	FccType             [4]byte
	FccHandler          [4]byte
	Flags               uint32
	Priority            uint16
	Language            uint16
	InitialFrames       uint32
	Scale               uint32
	Rate                uint32
	Start               uint32
	Length              uint32
	SuggestedBufferSize uint32
	Quality             uint32
	SampleSize          uint32
	FrameLeft           int16
	FrameTop            int16
	FrameRight          int16
	FrameBottom         int16
}

func (h StreamHeader) marshal() []byte {
	b := make([]byte, 56)
	copy(b[0:4], h.FccType[:])
	copy(b[4:8], h.FccHandler[:])
	binary.LittleEndian.PutUint32(b[8:12], h.Flags)
	binary.LittleEndian.PutUint16(b[12:14], h.Priority)
	binary.LittleEndian.PutUint16(b[14:16], h.Language)
	binary.LittleEndian.PutUint32(b[16:20], h.InitialFrames)
	binary.LittleEndian.PutUint32(b[20:24], h.Scale)
	binary.LittleEndian.PutUint32(b[24:28], h.Rate)
	binary.LittleEndian.PutUint32(b[28:32], h.Start)
	binary.LittleEndian.PutUint32(b[32:36], h.Length)
	binary.LittleEndian.PutUint32(b[36:40], h.SuggestedBufferSize)
	binary.LittleEndian.PutUint32(b[40:44], h.Quality)
	binary.LittleEndian.PutUint32(b[44:48], h.SampleSize)
	binary.LittleEndian.PutUint16(b[48:50], uint16(h.FrameLeft))
	binary.LittleEndian.PutUint16(b[50:52], uint16(h.FrameTop))
	binary.LittleEndian.PutUint16(b[52:54], uint16(h.FrameRight))
	binary.LittleEndian.PutUint16(b[54:56], uint16(h.FrameBottom))
	return b
}

// BitmapInfoHeader is the 40-byte BITMAPINFOHEADER (strf chunk payload).
type BitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

func (h BitmapInfoHeader) marshal() []byte {
	b := make([]byte, 40)
	binary.LittleEndian.PutUint32(b[0:4], h.Size)
	binary.LittleEndian.PutUint32(b[4:8], uint32(h.Width))
	binary.LittleEndian.PutUint32(b[8:12], uint32(h.Height))
	binary.LittleEndian.PutUint16(b[12:14], h.Planes)
	binary.LittleEndian.PutUint16(b[14:16], h.BitCount)
	binary.LittleEndian.PutUint32(b[16:20], h.Compression)
	binary.LittleEndian.PutUint32(b[20:24], h.SizeImage)
	binary.LittleEndian.PutUint32(b[24:28], uint32(h.XPelsPerMeter))
	binary.LittleEndian.PutUint32(b[28:32], uint32(h.YPelsPerMeter))
	binary.LittleEndian.PutUint32(b[32:36], h.ClrUsed)
	binary.LittleEndian.PutUint32(b[36:40], h.ClrImportant)
	return b
}

// IndexEntry is one 16-byte idx1 record.
type IndexEntry struct {
	ChunkID [4]byte
	Flags   uint32
	Offset  uint32
	Size    uint32
}

func (e IndexEntry) marshal() []byte {
	b := make([]byte, 16)
	copy(b[0:4], e.ChunkID[:])
	binary.LittleEndian.PutUint32(b[4:8], e.Flags)
	binary.LittleEndian.PutUint32(b[8:12], e.Offset)
	binary.LittleEndian.PutUint32(b[12:16], e.Size)
	return b
}

// Frame is one raw, already-BGR, top-down frame's pixel bytes.
type Frame struct {
	Data []byte
}

// Writer accumulates frames and metadata for a single uncompressed 'vids'
// AVI stream, then assembles them into a RIFF tree.
type Writer struct {
	Width, Height    int
	MicroSecPerFrame uint32
	Frames           []Frame
}

// NewWriter creates a Writer for width x height BGR frames at the given
// frame interval (microseconds per frame, matching AVIMAINHEADER's field).
func NewWriter(width, height int, microSecPerFrame uint32) *Writer {
	return &Writer{Width: width, Height: height, MicroSecPerFrame: microSecPerFrame}
}

// AddFrame appends one frame. data must be exactly width*height*3 bytes of
// top-down BGR pixel data (e.g. bmp.Image.Pixels with channels swapped back
// to BGR).
func (w *Writer) AddFrame(data []byte) error {
	want := w.Width * w.Height * 3
	if len(data) != want {
		return errkind.Newf(errkind.Corrupted, "avi: frame size %d does not match %dx%d BGR (%d)", len(data), w.Width, w.Height, want)
	}
	frame := make([]byte, len(data))
	copy(frame, data)
	w.Frames = append(w.Frames, Frame{Data: frame})
	return nil
}

// Build assembles the accumulated frames into a complete RIFF/AVI chunk
// tree, ready for riff.Emit.
func (w *Writer) Build() (*riff.Chunk, error) {
	if len(w.Frames) == 0 {
		return nil, errkind.New(errkind.Corrupted, "avi: at least one frame is required")
	}

	maxFrameSize := 0
	for _, f := range w.Frames {
		if len(f.Data) > maxFrameSize {
			maxFrameSize = len(f.Data)
		}
	}

	main := MainHeader{
		MicroSecPerFrame:    w.MicroSecPerFrame,
		MaxBytesPerSec:      uint32(maxFrameSize) * 1, // one frame's worth per "second" tick; this writer does not stream live
		PaddingGranularity:  0,
		Flags:               0,
		TotalFrames:         uint32(len(w.Frames)),
		InitialFrames:       0,
		Streams:             1,
		SuggestedBufferSize: uint32(maxFrameSize),
		Width:               uint32(w.Width),
		Height:              uint32(w.Height),
	}

	strh := StreamHeader{
		FccType:             [4]byte{'v', 'i', 'd', 's'},
		FccHandler:          [4]byte{0, 0, 0, 0},
		Scale:               1,
		Rate:                1,
		Length:              uint32(len(w.Frames)),
		SuggestedBufferSize: uint32(maxFrameSize),
		FrameRight:          int16(w.Width),
		FrameBottom:         int16(w.Height),
	}

	strf := BitmapInfoHeader{
		Size:      40,
		Width:     int32(w.Width),
		Height:    int32(w.Height),
		Planes:    1,
		BitCount:  24,
		ClrUsed:   0,
	}

	frameChunks := make([]riff.Chunk, len(w.Frames))
	index := make([]IndexEntry, len(w.Frames))
	offset := uint32(4) // offset 0 is the 'movi' FourCC itself; the first real chunk starts right after it
	for i, f := range w.Frames {
		frameChunks[i] = riff.NewLeaf("00dc", f.Data)
		size := uint32(len(f.Data)) + 8
		index[i] = IndexEntry{
			ChunkID: [4]byte{'0', '0', 'd', 'c'},
			Flags:   AVIIFKeyFrame,
			Offset:  offset,
			Size:    size,
		}
		offset += size + uint32(len(f.Data)%2) // riff.Emit pads odd-length leaves
	}

	idxBuf := make([]byte, 0, 16*len(index))
	for _, e := range index {
		idxBuf = append(idxBuf, e.marshal()...)
	}

	hdrl := riff.NewList("hdrl", []riff.Chunk{
		riff.NewLeaf("avih", main.marshal()),
		riff.NewList("strl", []riff.Chunk{
			riff.NewLeaf("strh", strh.marshal()),
			riff.NewLeaf("strf", strf.marshal()),
		}),
	})
	movi := riff.NewList("movi", frameChunks)
	idx1 := riff.NewLeaf("idx1", idxBuf)

	top := riff.NewListWithID("RIFF", "AVI ", []riff.Chunk{hdrl, movi, idx1})
	return &top, nil
}

// Emit builds the RIFF tree and serializes it to bytes in one step.
func (w *Writer) Emit() ([]byte, error) {
	tree, err := w.Build()
	if err != nil {
		return nil, err
	}
	return riff.Emit(tree), nil
}
