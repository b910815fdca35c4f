// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package databuf implements the bounds-checked, cursor-based byte buffer
// used to compose and parse RACE adapter wire messages.
package databuf

import (
	"encoding/binary"
	"math"
)

// Buffer is a fixed-capacity byte slice with a read/write cursor. All
// Write/Read operations are bounds checked; on failure pos is left
// unchanged so a caller can retry or abort without corrupting state.
type Buffer struct {
	data []byte
	pos  int
}

// New wraps data for reading and writing, starting at position 0.
func New(data []byte) *Buffer {
	return &Buffer{data: data}
}

// NewSize allocates a zeroed buffer of the given capacity.
func NewSize(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// Bytes returns the underlying storage.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the buffer's capacity.
func (b *Buffer) Len() int { return len(b.data) }

// Pos returns the current cursor position.
func (b *Buffer) Pos() int { return b.pos }

// Reset rewinds the cursor to 0 without touching the contents.
func (b *Buffer) Reset() { b.pos = 0 }

// Seek moves the cursor to an absolute position. It fails if pos is out of
// [0, Len()].
func (b *Buffer) Seek(pos int) bool {
	if pos < 0 || pos > len(b.data) {
		return false
	}
	b.pos = pos
	return true
}

func (b *Buffer) fits(at, n int) bool {
	return at >= 0 && n >= 0 && at+n <= len(b.data)
}

// WriteByte writes a single byte at the supplied absolute position and
// returns the position just past it on success; like the other Write
// methods it does not move the buffer's own cursor.
//
// The original C race_write_byte advanced db->pos unconditionally instead
// of using the caller-supplied pos, which silently desynchronized the
// cursor from any later positional patch. This implementation always uses
// the supplied pos.
func (b *Buffer) WriteByte(pos int, v byte) (int, bool) {
	if !b.fits(pos, 1) {
		return pos, false
	}
	b.data[pos] = v
	return pos + 1, true
}

// WriteInt16 writes a big-endian int16 at pos.
func (b *Buffer) WriteInt16(pos int, v int16) (int, bool) {
	if !b.fits(pos, 2) {
		return pos, false
	}
	binary.BigEndian.PutUint16(b.data[pos:], uint16(v))
	return pos + 2, true
}

// WriteInt32 writes a big-endian int32 at pos.
func (b *Buffer) WriteInt32(pos int, v int32) (int, bool) {
	if !b.fits(pos, 4) {
		return pos, false
	}
	binary.BigEndian.PutUint32(b.data[pos:], uint32(v))
	return pos + 4, true
}

// WriteInt64 writes a big-endian int64 at pos.
func (b *Buffer) WriteInt64(pos int, v int64) (int, bool) {
	if !b.fits(pos, 8) {
		return pos, false
	}
	binary.BigEndian.PutUint64(b.data[pos:], uint64(v))
	return pos + 8, true
}

// WriteFloat64 writes a big-endian IEEE-754 double at pos.
func (b *Buffer) WriteFloat64(pos int, v float64) (int, bool) {
	if !b.fits(pos, 8) {
		return pos, false
	}
	binary.BigEndian.PutUint64(b.data[pos:], math.Float64bits(v))
	return pos + 8, true
}

// WriteString writes a 2-byte big-endian length prefix followed by the raw
// bytes of s (no NUL terminator on the wire).
func (b *Buffer) WriteString(pos int, s string) (int, bool) {
	if len(s) > math.MaxUint16 {
		return pos, false
	}
	next, ok := b.WriteInt16(pos, int16(len(s)))
	if !ok {
		return pos, false
	}
	if !b.fits(next, len(s)) {
		return pos, false
	}
	copy(b.data[next:], s)
	return next + len(s), true
}

// SetInt16 patches a big-endian int16 at an absolute offset without moving
// the cursor. Used to back-patch msg_length once a variable-length payload
// has been fully composed.
func (b *Buffer) SetInt16(at int, v int16) bool {
	if !b.fits(at, 2) {
		return false
	}
	binary.BigEndian.PutUint16(b.data[at:], uint16(v))
	return true
}

// PeekInt16 reads a big-endian int16 at pos without failing the cursor on
// error (pos is only ever an explicit argument here, never b.pos).
func (b *Buffer) PeekInt16(pos int) (int16, bool) {
	if !b.fits(pos, 2) {
		return 0, false
	}
	return int16(binary.BigEndian.Uint16(b.data[pos:])), true
}

// ReadInt16 reads a big-endian int16 at pos and returns the next position.
func (b *Buffer) ReadInt16(pos int) (int16, int, bool) {
	v, ok := b.PeekInt16(pos)
	if !ok {
		return 0, pos, false
	}
	return v, pos + 2, true
}

// ReadInt32 reads a big-endian int32 at pos and returns the next position.
func (b *Buffer) ReadInt32(pos int) (int32, int, bool) {
	if !b.fits(pos, 4) {
		return 0, pos, false
	}
	return int32(binary.BigEndian.Uint32(b.data[pos:])), pos + 4, true
}

// ReadInt64 reads a big-endian int64 at pos and returns the next position.
func (b *Buffer) ReadInt64(pos int) (int64, int, bool) {
	if !b.fits(pos, 8) {
		return 0, pos, false
	}
	return int64(binary.BigEndian.Uint64(b.data[pos:])), pos + 8, true
}

// ReadFloat64 reads a big-endian IEEE-754 double at pos and returns the next
// position.
func (b *Buffer) ReadFloat64(pos int) (float64, int, bool) {
	if !b.fits(pos, 8) {
		return 0, pos, false
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b.data[pos:])), pos + 8, true
}

// ReadString reads a length-prefixed string at pos, allocating a new
// string for the result. On any failure pos is returned unchanged.
func (b *Buffer) ReadString(pos int) (string, int, bool) {
	n, next, ok := b.ReadInt16(pos)
	if !ok || n < 0 || !b.fits(next, int(n)) {
		return "", pos, false
	}
	s := string(b.data[next : next+int(n)])
	return s, next + int(n), true
}

// ReadStringInto copies a length-prefixed string at pos into dst,
// truncating if dst is too small, and returns the number of bytes copied.
// On any failure pos is returned unchanged.
func (b *Buffer) ReadStringInto(pos int, dst []byte) (int, int, bool) {
	n, next, ok := b.ReadInt16(pos)
	if !ok || n < 0 || !b.fits(next, int(n)) {
		return 0, pos, false
	}
	copied := copy(dst, b.data[next:next+int(n)])
	return copied, next + int(n), true
}
