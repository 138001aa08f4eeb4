// Package riff implements a recursive RIFF chunk tree: parse, a
// human-readable indented print, and emit (the round-trip inverse of
// parse), operating directly over an in-memory byte slice rather than a
// file handle.
package riff

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/go-raster/raster/internal/errkind"
)

const chunkHeaderSize = 8 // 4-byte id + 4-byte little-endian size

// Chunk is one node of a RIFF tree. A "RIFF" or "LIST" chunk carries
// FormType and Children; any other id carries Data instead.
type Chunk struct {
	ID       string
	Size     int
	FormType string
	Children []Chunk
	Data     []byte
}

// NewLeaf builds a data-bearing chunk, computing Size from len(data).
func NewLeaf(id string, data []byte) Chunk {
	return Chunk{ID: id, Size: len(data), Data: data}
}

// NewList builds a "LIST" chunk wrapping children, computing Size the way
// RIFF defines it: 4 bytes for form_type plus each child's own 8-byte
// header and (padded) size.
func NewList(formType string, children []Chunk) Chunk {
	return NewListWithID("LIST", formType, children)
}

// NewListWithID is NewList with an explicit id, for the top-level "RIFF"
// chunk (id "RIFF", form_type e.g. "AVI ").
func NewListWithID(id, formType string, children []Chunk) Chunk {
	size := 4
	for _, c := range children {
		size += chunkHeaderSize + paddedSize(c.Size)
	}
	return Chunk{ID: id, Size: size, FormType: formType, Children: children}
}

func paddedSize(size int) int {
	if size%2 == 1 {
		return size + 1
	}
	return size
}

// Parse reads a single RIFF chunk (and, recursively, all of its
// descendants) starting at the beginning of data.
func Parse(data []byte) (*Chunk, error) {
	c, _, err := parseChunk(data, 0)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func parseChunk(data []byte, offset int) (*Chunk, int, error) {
	if offset+chunkHeaderSize > len(data) {
		return nil, 0, errkind.New(errkind.Corrupted, "riff: truncated chunk header")
	}
	id := string(data[offset : offset+4])
	size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
	if size < 0 {
		return nil, 0, errkind.New(errkind.Corrupted, "riff: negative chunk size")
	}
	offset += chunkHeaderSize

	var formType string
	var children []Chunk
	var payload []byte

	switch id {
	case "RIFF", "LIST":
		if size < 4 {
			return nil, 0, errkind.New(errkind.Corrupted, "riff: RIFF/LIST chunk shorter than its form type")
		}
		if offset+4 > len(data) {
			return nil, 0, errkind.New(errkind.Corrupted, "riff: truncated form type")
		}
		formType = string(data[offset : offset+4])
		offset += 4

		var err error
		children, err = parseChunkList(data, offset, size-4)
		if err != nil {
			return nil, 0, err
		}
	default:
		if offset+size > len(data) {
			return nil, 0, errkind.New(errkind.Corrupted, "riff: chunk payload overruns buffer")
		}
		payload = make([]byte, size)
		copy(payload, data[offset:offset+size])
	}

	return &Chunk{
		ID:       id,
		Size:     size,
		FormType: formType,
		Children: children,
		Data:     payload,
	}, size, nil
}

// parseChunkList parses sibling chunks within [offset, offset+size),
// skipping the odd-size pad byte RIFF mandates after each child.
func parseChunkList(data []byte, offset, size int) ([]Chunk, error) {
	var chunks []Chunk
	end := offset + size
	if end > len(data) {
		return nil, errkind.New(errkind.Corrupted, "riff: child list size exceeds available data")
	}

	for offset < end {
		child, childSize, err := parseChunk(data, offset)
		if err != nil {
			return nil, err
		}
		offset += chunkHeaderSize + paddedSize(childSize)
		if offset > end {
			return nil, errkind.New(errkind.Corrupted, "riff: child chunk overruns its parent's declared size")
		}
		chunks = append(chunks, *child)
	}

	return chunks, nil
}

// Emit is the inverse of Parse: it serializes a Chunk tree back to bytes.
// Odd-size leaf chunks get a trailing zero pad byte, symmetric with the one
// Parse skips on the way in.
func Emit(c *Chunk) []byte {
	out := make([]byte, 0, chunkHeaderSize+c.Size+1)
	emitInto(&out, c)
	return out
}

func emitInto(out *[]byte, c *Chunk) {
	*out = append(*out, []byte(padID(c.ID))...)
	var sizeBytes [4]byte
	binary.LittleEndian.PutUint32(sizeBytes[:], uint32(c.Size))
	*out = append(*out, sizeBytes[:]...)

	if c.FormType == "" {
		*out = append(*out, c.Data...)
		if len(c.Data)%2 == 1 {
			*out = append(*out, 0)
		}
		return
	}

	*out = append(*out, []byte(padID(c.FormType))...)
	for i := range c.Children {
		emitInto(out, &c.Children[i])
	}
}

// padID right-pads a fourcc shorter than 4 bytes with spaces, the
// convention RIFF form types and ids use (e.g. "AVI ").
func padID(id string) string {
	for len(id) < 4 {
		id += " "
	}
	return id
}

// Print writes a human-readable, indented tree view of c to a string,
// using a box-drawing indent and a 50-column right-aligned size field,
// without ANSI coloring (see Fprint for that).
func Print(c *Chunk) string {
	var b strings.Builder
	printIndented(&b, c, "", false)
	return b.String()
}

// Fprint is Print with ANSI 256-color escapes around the indent/size
// columns: 239 for the tree structure, 6 for the byte size.
func Fprint(c *Chunk) string {
	var b strings.Builder
	printIndented(&b, c, "", true)
	return b.String()
}

func printIndented(b *strings.Builder, c *Chunk, indent string, colorize bool) {
	const lineLength = 50

	label := c.ID
	if c.FormType != "" {
		label = fmt.Sprintf("%s:%s(%d)", c.ID, c.FormType, len(c.Children))
	}
	sizeStr := fmt.Sprintf("%d", c.Size)

	dots := lineLength - len([]rune(indent)) - len([]rune(label)) - len([]rune(sizeStr))
	if dots < 1 {
		dots = 1
	}
	dotStr := strings.Repeat(".", dots)

	if colorize {
		fmt.Fprintf(b, "%s%s %s%s\n", ansiColor(indent, 239), label, ansiColor(dotStr, 239), ansiColor(sizeStr, 6))
	} else {
		fmt.Fprintf(b, "%s%s %s%s\n", indent, label, dotStr, sizeStr)
	}

	childIndent := strings.NewReplacer(" ├──", " │  ", " └──", "    ").Replace(indent)
	for i := range c.Children {
		prefix := " ├──"
		if i == len(c.Children)-1 {
			prefix = " └──"
		}
		printIndented(b, &c.Children[i], childIndent+prefix, colorize)
	}
}

func ansiColor(text string, code int) string {
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[m", code, text)
}
