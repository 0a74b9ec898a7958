// Package binio provides a growable byte buffer with a read/write
// position and typed accessors for the fixed-width and variable-width
// encodings used by the package container format.
package binio

import (
	"bytes"
	"io"
)

// Cursor is an owned growable buffer with a single read/write position.
// Writes past the end grow the buffer; reads past the end return
// io.ErrUnexpectedEOF.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor creates a cursor owning b. The caller must not retain b.
func NewCursor(b []byte) *Cursor {
	return &Cursor{buf: b}
}

// Len returns the buffer length.
func (c *Cursor) Len() int { return len(c.buf) }

// Bytes returns the underlying buffer. The slice is only valid until the
// next mutating call.
func (c *Cursor) Bytes() []byte { return c.buf }

// Pos returns the current position.
func (c *Cursor) Pos() int { return c.pos }

// Seek sets the absolute position. Seeking beyond the end is allowed;
// a subsequent write extends the buffer with zero bytes.
func (c *Cursor) Seek(pos int) {
	if pos < 0 {
		pos = 0
	}
	c.pos = pos
}

// Skip moves the position forward by n bytes.
func (c *Cursor) Skip(n int) { c.Seek(c.pos + n) }

// Clone returns an independent copy of the cursor positioned at zero.
func (c *Cursor) Clone() *Cursor {
	b := make([]byte, len(c.buf))
	copy(b, c.buf)
	return &Cursor{buf: b}
}

// Reset replaces the entire contents and rewinds to position zero.
func (c *Cursor) Reset(b []byte) {
	c.buf = b
	c.pos = 0
}

// Read returns the next n bytes and advances the position.
func (c *Cursor) Read(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.buf) {
		return nil, io.ErrUnexpectedEOF
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// Write writes b at the current position, overwriting existing bytes and
// growing the buffer as needed.
func (c *Cursor) Write(b []byte) {
	end := c.pos + len(b)
	if end > len(c.buf) {
		grown := make([]byte, end)
		copy(grown, c.buf)
		c.buf = grown
	}
	copy(c.buf[c.pos:end], b)
	c.pos = end
}

// Truncate discards everything after the current position.
func (c *Cursor) Truncate() {
	if c.pos < len(c.buf) {
		c.buf = c.buf[:c.pos]
	}
}

// ReadUintN reads an n-byte little-endian unsigned integer (n <= 8).
func (c *Cursor) ReadUintN(n int) (uint64, error) {
	b, err := c.Read(n)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}

// ReadUintBE reads an n-byte big-endian unsigned integer (n <= 8).
func (c *Cursor) ReadUintBE(n int) (uint64, error) {
	b, err := c.Read(n)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < n; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}

// ReadUint32 reads a little-endian uint32.
func (c *Cursor) ReadUint32() (uint32, error) {
	v, err := c.ReadUintN(4)
	return uint32(v), err
}

// WriteUintN writes an n-byte little-endian unsigned integer.
func (c *Cursor) WriteUintN(v uint64, n int) {
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[i] = byte(v)
		v >>= 8
	}
	c.Write(b)
}

// WriteUintBE writes an n-byte big-endian unsigned integer.
func (c *Cursor) WriteUintBE(v uint64, n int) {
	b := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	c.Write(b)
}

// WriteUint32 writes a little-endian uint32.
func (c *Cursor) WriteUint32(v uint32) { c.WriteUintN(uint64(v), 4) }

// Find returns the absolute offset of the first occurrence of needle at
// or after the current position, or -1.
func (c *Cursor) Find(needle []byte) int {
	if c.pos >= len(c.buf) {
		return -1
	}
	i := bytes.Index(c.buf[c.pos:], needle)
	if i < 0 {
		return -1
	}
	return c.pos + i
}

// Splice replaces buf[start:end] with b, shrinking or growing the buffer
// in place. The position is left just past the inserted bytes.
func (c *Cursor) Splice(start, end int, b []byte) {
	if start < 0 {
		start = 0
	}
	if end > len(c.buf) {
		end = len(c.buf)
	}
	if end < start {
		end = start
	}
	out := make([]byte, 0, len(c.buf)-(end-start)+len(b))
	out = append(out, c.buf[:start]...)
	out = append(out, b...)
	out = append(out, c.buf[end:]...)
	c.buf = out
	c.pos = start + len(b)
}

// Append inserts b at the current position without overwriting,
// shifting the tail of the buffer.
func (c *Cursor) Append(b []byte) {
	c.Splice(c.pos, c.pos, b)
}

// Delete removes up to n bytes at the current position.
func (c *Cursor) Delete(n int) {
	end := c.pos + n
	if end > len(c.buf) {
		end = len(c.buf)
	}
	c.Splice(c.pos, end, nil)
}

// ReadPString reads a string with an n-byte little-endian length prefix.
func (c *Cursor) ReadPString(n int) (string, error) {
	length, err := c.ReadUintN(n)
	if err != nil {
		return "", err
	}
	b, err := c.Read(int(length))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WritePString writes a string with an n-byte little-endian length prefix.
func (c *Cursor) WritePString(s string, n int) {
	c.WriteUintN(uint64(len(s)), n)
	c.Write([]byte(s))
}

// OverwritePString splices a new length-prefixed string over the one at
// the current position.
func (c *Cursor) OverwritePString(s string, n int) error {
	start := c.pos
	length, err := c.ReadUintN(n)
	if err != nil {
		return err
	}
	end := start + n + int(length)
	packed := make([]byte, 0, n+len(s))
	for i, v := 0, uint64(len(s)); i < n; i++ {
		packed = append(packed, byte(v))
		v >>= 8
	}
	packed = append(packed, s...)
	c.Splice(start, end, packed)
	return nil
}

// ReadUvarint7 reads a little-endian base-128 integer: the high bit of
// each byte marks continuation, the low seven bits accumulate from least
// significant group to most.
func (c *Cursor) ReadUvarint7() (uint64, error) {
	var v uint64
	var shift uint
	for {
		b, err := c.Read(1)
		if err != nil {
			return 0, err
		}
		v |= uint64(b[0]&0x7F) << shift
		if b[0] < 0x80 {
			return v, nil
		}
		shift += 7
	}
}

// WriteUvarint7 writes a little-endian base-128 continuation integer.
func (c *Cursor) WriteUvarint7(v uint64) {
	for v > 0x7F {
		c.Write([]byte{byte(v&0x7F | 0x80)})
		v >>= 7
	}
	c.Write([]byte{byte(v)})
}

// uvarint7Len returns the encoded byte length of the continuation
// integer starting at pos, without moving the position.
func (c *Cursor) uvarint7Len() (int, error) {
	i := 0
	for {
		if c.pos+i >= len(c.buf) {
			return 0, io.ErrUnexpectedEOF
		}
		if c.buf[c.pos+i] < 0x80 {
			return i + 1, nil
		}
		i++
	}
}

// Read7bString reads a string prefixed with a base-128 continuation
// length.
func (c *Cursor) Read7bString() (string, error) {
	length, err := c.ReadUvarint7()
	if err != nil {
		return "", err
	}
	b, err := c.Read(int(length))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Write7bString writes a string prefixed with a base-128 continuation
// length.
func (c *Cursor) Write7bString(s string) {
	c.WriteUvarint7(uint64(len(s)))
	c.Write([]byte(s))
}

// Overwrite7bString splices a new continuation-prefixed string over the
// one at the current position.
func (c *Cursor) Overwrite7bString(s string) error {
	start := c.pos
	intLen, err := c.uvarint7Len()
	if err != nil {
		return err
	}
	length, err := c.ReadUvarint7()
	if err != nil {
		return err
	}
	end := start + intLen + int(length)
	repl := NewCursor(nil)
	repl.Write7bString(s)
	c.Splice(start, end, repl.Bytes())
	return nil
}
