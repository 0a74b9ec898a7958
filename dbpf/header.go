package dbpf

import (
	"fmt"
	"strings"

	"tangled.org/simmod.net/dbpkg/internal/binio"
)

// Header is the fixed-width container header. The index and hole-index
// bookkeeping fields are rewritten on encode; the timestamps and the
// reserved block are preserved verbatim on round-trip.
type Header struct {
	MajorVersion      uint32
	MinorVersion      uint32
	MajorUserVersion  uint32
	MinorUserVersion  uint32
	Flags             uint32
	CreatedDate       uint32
	ModifiedDate      uint32
	IndexMajorVersion uint32
	IndexEntryCount   uint32
	IndexLocation     uint32
	IndexSize         uint32
	HoleIndexCount    uint32
	HoleIndexLocation uint32
	HoleIndexSize     uint32
	IndexMinorVersion uint32
	Reserved          [32]byte
}

// NewHeader returns a header with the format defaults for a freshly
// built container.
func NewHeader() *Header {
	return &Header{
		MajorVersion:      1,
		MinorVersion:      1,
		IndexMajorVersion: 7,
		IndexMinorVersion: 2,
	}
}

// hasResourceKeys reports whether index and directory records carry the
// fourth key component.
func (h *Header) hasResourceKeys() bool { return h.IndexMinorVersion == 2 }

// indexRecordSize is the fixed width of one index record.
func (h *Header) indexRecordSize() int {
	if h.hasResourceKeys() {
		return 20
	}
	return 16
}

// clstRecordSize is the fixed stride of one compressed-directory record.
func (h *Header) clstRecordSize() int {
	return h.indexRecordSize()
}

func decodeHeader(c *binio.Cursor) (*Header, error) {
	magic, err := c.Read(4)
	if err != nil {
		return nil, ErrTruncated
	}
	if string(magic) != Magic {
		return nil, ErrBadMagic
	}

	h := &Header{}
	fields := []*uint32{
		&h.MajorVersion, &h.MinorVersion,
		&h.MajorUserVersion, &h.MinorUserVersion,
		&h.Flags, &h.CreatedDate, &h.ModifiedDate,
		&h.IndexMajorVersion, &h.IndexEntryCount,
		&h.IndexLocation, &h.IndexSize,
		&h.HoleIndexCount, &h.HoleIndexLocation, &h.HoleIndexSize,
		&h.IndexMinorVersion,
	}
	for _, f := range fields {
		v, err := c.ReadUint32()
		if err != nil {
			return nil, ErrTruncated
		}
		*f = v
	}
	reserved, err := c.Read(32)
	if err != nil {
		return nil, ErrTruncated
	}
	copy(h.Reserved[:], reserved)
	return h, nil
}

func (h *Header) encode(c *binio.Cursor) {
	c.Write([]byte(Magic))
	for _, v := range []uint32{
		h.MajorVersion, h.MinorVersion,
		h.MajorUserVersion, h.MinorUserVersion,
		h.Flags, h.CreatedDate, h.ModifiedDate,
		h.IndexMajorVersion, h.IndexEntryCount,
		h.IndexLocation, h.IndexSize,
		h.HoleIndexCount, h.HoleIndexLocation, h.HoleIndexSize,
		h.IndexMinorVersion,
	} {
		c.WriteUint32(v)
	}
	c.Write(h.Reserved[:])
}

// String returns a human-readable header dump.
func (h *Header) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "major version: %d\n", h.MajorVersion)
	fmt.Fprintf(&b, "minor version: %d\n", h.MinorVersion)
	fmt.Fprintf(&b, "major user version: %d\n", h.MajorUserVersion)
	fmt.Fprintf(&b, "minor user version: %d\n", h.MinorUserVersion)
	fmt.Fprintf(&b, "flags: %d\n", h.Flags)
	fmt.Fprintf(&b, "created date: %d\n", h.CreatedDate)
	fmt.Fprintf(&b, "modified date: %d\n", h.ModifiedDate)
	fmt.Fprintf(&b, "index major version: %d\n", h.IndexMajorVersion)
	fmt.Fprintf(&b, "index entry count: %d\n", h.IndexEntryCount)
	fmt.Fprintf(&b, "index location: %d\n", h.IndexLocation)
	fmt.Fprintf(&b, "index size: %d\n", h.IndexSize)
	fmt.Fprintf(&b, "hole index entry count: %d\n", h.HoleIndexCount)
	fmt.Fprintf(&b, "hole index location: %d\n", h.HoleIndexLocation)
	fmt.Fprintf(&b, "hole index size: %d\n", h.HoleIndexSize)
	fmt.Fprintf(&b, "index minor version: %d", h.IndexMinorVersion)
	return b.String()
}

// Clone returns a copy of the header.
func (h *Header) Clone() *Header {
	dup := *h
	return &dup
}
