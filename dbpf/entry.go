package dbpf

import (
	"fmt"

	"tangled.org/simmod.net/dbpkg/internal/binio"
	"tangled.org/simmod.net/dbpkg/internal/refpack"
)

// Entry is one asset record inside a container. An entry exclusively
// owns its payload buffer; it has no identity outside its owning
// Package.
type Entry struct {
	Key

	// HasResource reports whether this entry carries the fourth key
	// component. Encoding a package containing any such entry upgrades
	// the whole container to index minor version 2.
	HasResource bool

	// Compressed is true when the payload is RefPack-compressed.
	Compressed bool

	// Name is the resolved display name, empty when no naming strategy
	// applies or resolution failed.
	Name string

	payload *binio.Cursor
}

// NewEntry creates an entry with a three-part key.
func NewEntry(typeID, groupID, instanceID uint32, payload []byte) *Entry {
	return &Entry{
		Key:     Key{Type: typeID, Group: groupID, Instance: instanceID},
		payload: binio.NewCursor(payload),
	}
}

// NewEntryR creates an entry with a four-part key.
func NewEntryR(typeID, groupID, instanceID, resourceID uint32, payload []byte) *Entry {
	e := NewEntry(typeID, groupID, instanceID, payload)
	e.Resource = resourceID
	e.HasResource = true
	return e
}

// Payload returns the entry's raw payload bytes. The slice is only
// valid until the next mutating call on the entry.
func (e *Entry) Payload() []byte { return e.payload.Bytes() }

// SetPayload replaces the payload.
func (e *Entry) SetPayload(b []byte) { e.payload.Reset(b) }

// Size returns the payload size in bytes.
func (e *Entry) Size() int { return e.payload.Len() }

// IsDirectory reports whether this entry is the compressed-file
// directory rather than a real asset.
func (e *Entry) IsDirectory() bool { return e.Type == TypeCLST }

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	dup := *e
	dup.payload = e.payload.Clone()
	return &dup
}

func (e *Entry) String() string {
	s := ""
	if e.Name != "" {
		s = e.Name + "\n"
	}
	if e.HasResource {
		return s + fmt.Sprintf("Type: 0x%08X, Group: 0x%08X, Instance: 0x%08X, Resource: 0x%08X",
			e.Type, e.Group, e.Instance, e.Resource)
	}
	return s + fmt.Sprintf("Type: 0x%08X, Group: 0x%08X, Instance: 0x%08X",
		e.Type, e.Group, e.Instance)
}

// Compress compresses the payload in place. It is a no-op for the
// directory entry, an already compressed payload, or a payload the codec
// cannot shrink.
func (e *Entry) Compress() {
	if e.Compressed || e.Type == TypeCLST {
		return
	}
	if packed := refpack.Compress(e.payload.Bytes()); packed != nil {
		e.payload.Reset(packed)
		e.Compressed = true
	}
}

// Decompress expands the payload in place. Decompressing an
// uncompressed entry is a no-op.
func (e *Entry) Decompress() error {
	if !e.Compressed {
		return nil
	}
	size, err := refpack.UncompressedSize(e.payload.Bytes())
	if err != nil {
		return err
	}
	raw, err := refpack.Decompress(e.payload.Bytes(), size)
	if err != nil {
		return err
	}
	e.payload.Reset(raw)
	e.Compressed = false
	return nil
}

// peek returns up to limit bytes of the decompressed payload without
// mutating the entry. limit < 0 means the whole payload.
func (e *Entry) peek(limit int) ([]byte, error) {
	if e.Compressed {
		if limit < 0 {
			size, err := refpack.UncompressedSize(e.payload.Bytes())
			if err != nil {
				return nil, err
			}
			return refpack.Decompress(e.payload.Bytes(), size)
		}
		return refpack.PartialDecompress(e.payload.Bytes(), limit)
	}
	b := e.payload.Bytes()
	if limit >= 0 && limit < len(b) {
		b = b[:limit]
	}
	return b, nil
}

// declaredSize returns the uncompressed size recorded in the payload
// header of a compressed entry.
func (e *Entry) declaredSize() (int, error) {
	return refpack.UncompressedSize(e.payload.Bytes())
}
