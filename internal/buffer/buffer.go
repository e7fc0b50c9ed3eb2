// Package buffer provides a little-endian cursor over a byte slice.
// All EverQuest asset formats are little-endian throughout.
package buffer

import (
	"encoding/binary"
	"math"
)

// Buffer is an offset cursor over raw asset bytes. Reads past the end
// clamp to the end and return zero values; the Truncated flag records
// that it happened so parsers can detect a short stream once instead
// of checking every read.
type Buffer struct {
	data      []byte
	pos       int
	truncated bool
}

func New(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Pos returns the current read offset.
func (b *Buffer) Pos() int { return b.pos }

// Seek moves the read offset to an absolute position.
func (b *Buffer) Seek(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(b.data) {
		pos = len(b.data)
		b.truncated = true
	}
	b.pos = pos
}

// Skip advances the read offset by n bytes.
func (b *Buffer) Skip(n int) { b.Seek(b.pos + n) }

// Len returns the total length of the underlying data.
func (b *Buffer) Len() int { return len(b.data) }

// Remaining returns the number of unread bytes.
func (b *Buffer) Remaining() int { return len(b.data) - b.pos }

// EOF reports whether the cursor has consumed all bytes.
func (b *Buffer) EOF() bool { return b.pos >= len(b.data) }

// Truncated reports whether any read ran past the end of the data.
func (b *Buffer) Truncated() bool { return b.truncated }

// Bytes reads n raw bytes. The returned slice aliases the underlying data.
func (b *Buffer) Bytes(n int) []byte {
	if n < 0 || b.pos+n > len(b.data) {
		b.truncated = true
		s := b.data[b.pos:]
		b.pos = len(b.data)
		return s
	}
	s := b.data[b.pos : b.pos+n]
	b.pos += n
	return s
}

func (b *Buffer) Byte() byte {
	if b.pos >= len(b.data) {
		b.truncated = true
		return 0
	}
	v := b.data[b.pos]
	b.pos++
	return v
}

func (b *Buffer) Int8() int8 { return int8(b.Byte()) }

func (b *Buffer) Uint16() uint16 {
	if b.pos+2 > len(b.data) {
		b.truncated = true
		b.pos = len(b.data)
		return 0
	}
	v := binary.LittleEndian.Uint16(b.data[b.pos:])
	b.pos += 2
	return v
}

func (b *Buffer) Int16() int16 { return int16(b.Uint16()) }

func (b *Buffer) Uint32() uint32 {
	if b.pos+4 > len(b.data) {
		b.truncated = true
		b.pos = len(b.data)
		return 0
	}
	v := binary.LittleEndian.Uint32(b.data[b.pos:])
	b.pos += 4
	return v
}

func (b *Buffer) Int32() int32 { return int32(b.Uint32()) }

func (b *Buffer) Float32() float32 {
	return math.Float32frombits(b.Uint32())
}

func (b *Buffer) Vec2() [2]float32 {
	return [2]float32{b.Float32(), b.Float32()}
}

func (b *Buffer) Vec3() [3]float32 {
	return [3]float32{b.Float32(), b.Float32(), b.Float32()}
}

// CString reads a null-terminated string from an absolute offset without
// moving the cursor. Used for string-pool lookups.
func (b *Buffer) CString(off int) string {
	if off < 0 || off >= len(b.data) {
		return ""
	}
	end := off
	for end < len(b.data) && b.data[end] != 0 {
		end++
	}
	return string(b.data[off:end])
}
