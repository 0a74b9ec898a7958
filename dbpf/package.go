package dbpf

import (
	"fmt"
	"os"

	"tangled.org/simmod.net/dbpkg/internal/binio"
	"tangled.org/simmod.net/dbpkg/internal/refpack"
)

// Package is one decoded container: a header plus the ordered entries
// read from, or destined for, exactly one file.
type Package struct {
	Header  *Header
	Entries []*Entry
}

// New creates an empty package with default header values.
func New() *Package {
	return &Package{Header: NewHeader()}
}

// Decode parses a container byte stream. Compressed entries keep their
// compressed payloads.
func Decode(data []byte) (*Package, error) {
	return decode(data, false)
}

// DecodeDecompress parses a container byte stream and eagerly expands
// every compressed entry. Entries the codec cannot expand are left
// compressed.
func DecodeDecompress(data []byte) (*Package, error) {
	return decode(data, true)
}

// Open reads and decodes the container at path.
func Open(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read package: %w", err)
	}
	p, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func decode(data []byte, decompress bool) (*Package, error) {
	c := binio.NewCursor(data)

	header, err := decodeHeader(c)
	if err != nil {
		return nil, err
	}
	p := &Package{Header: header}

	// Index records carry each entry's key plus the location and length
	// of its payload; payloads are materialized immediately since later
	// steps mutate them.
	c.Seek(int(header.IndexLocation))
	hasResource := header.hasResourceKeys()
	for i := uint32(0); i < header.IndexEntryCount; i++ {
		e := &Entry{HasResource: hasResource}
		if e.Key, err = readKey(c, hasResource); err != nil {
			return nil, ErrTruncated
		}
		location, err := c.ReadUint32()
		if err != nil {
			return nil, ErrTruncated
		}
		size, err := c.ReadUint32()
		if err != nil {
			return nil, ErrTruncated
		}
		if int(location)+int(size) > len(data) {
			return nil, ErrTruncated
		}
		payload := make([]byte, size)
		copy(payload, data[location:location+size])
		e.payload = binio.NewCursor(payload)
		p.Entries = append(p.Entries, e)
	}

	clstKeys, err := p.decodeDirectory()
	if err != nil {
		return nil, err
	}

	// An entry can be listed in the directory without actually being
	// compressed, so confirm with the payload signature.
	for _, e := range p.Entries {
		if _, listed := clstKeys[e.Key]; listed && refpack.IsCompressed(e.Payload()) {
			e.Compressed = true
		}
	}

	if decompress {
		for _, e := range p.Entries {
			// Best effort: an entry that fails to expand stays compressed.
			_ = e.Decompress()
		}
	}

	// Name resolution is never permitted to fail a decode.
	for _, e := range p.Entries {
		if name, err := resolveName(e); err == nil {
			e.Name = name
		}
	}

	return p, nil
}

// decodeDirectory parses the CLST entry, if present, into a
// duplicate-checked key set.
func (p *Package) decodeDirectory() (map[Key]struct{}, error) {
	keys := make(map[Key]struct{})
	clst := p.findFirstByType(TypeCLST)
	if clst == nil {
		return keys, nil
	}

	hasResource := p.Header.hasResourceKeys()
	stride := p.Header.clstRecordSize()
	c := binio.NewCursor(clst.Payload())
	for i := 0; i < clst.Size()/stride; i++ {
		c.Seek(i * stride)
		key, err := readKey(c, hasResource)
		if err != nil {
			return nil, ErrTruncated
		}
		if _, dup := keys[key]; dup {
			return nil, fmt.Errorf("%w: two directory records with matching type, group, and instance", ErrDuplicateKey)
		}
		keys[key] = struct{}{}
	}
	return keys, nil
}

func readKey(c *binio.Cursor, hasResource bool) (Key, error) {
	var k Key
	for _, f := range []*uint32{&k.Type, &k.Group, &k.Instance} {
		v, err := c.ReadUint32()
		if err != nil {
			return k, err
		}
		*f = v
	}
	if hasResource {
		v, err := c.ReadUint32()
		if err != nil {
			return k, err
		}
		k.Resource = v
	}
	return k, nil
}

func writeKey(c *binio.Cursor, k Key, withResource bool) {
	c.WriteUint32(k.Type)
	c.WriteUint32(k.Group)
	c.WriteUint32(k.Instance)
	if withResource {
		c.WriteUint32(k.Resource)
	}
}

// Encode serializes the package. When compress is true every eligible
// entry is compressed first; when false the entries are written as they
// are, after verifying that no two already-compressed entries share a
// key (which would make the rebuilt directory ambiguous).
//
// Entries keep their order; the directory entry is rebuilt from scratch
// and relocated to the end, or omitted entirely when nothing is
// compressed.
func (p *Package) Encode(compress bool) ([]byte, error) {
	if compress {
		// Among entries sharing a key only the first is compressed;
		// later ones are forced uncompressed.
		seen := make(map[Key]struct{})
		for _, e := range p.Entries {
			if e.Type == TypeCLST {
				continue
			}
			if _, dup := seen[e.Key]; dup {
				if err := e.Decompress(); err != nil {
					return nil, err
				}
				continue
			}
			e.Compress()
			seen[e.Key] = struct{}{}
		}
	} else {
		seen := make(map[Key]struct{})
		for _, e := range p.Entries {
			if !e.Compressed || e.Type == TypeCLST {
				continue
			}
			if _, dup := seen[e.Key]; dup {
				return nil, fmt.Errorf("%w: repeat compressed entry", ErrDuplicateKey)
			}
			seen[e.Key] = struct{}{}
		}
	}

	// The index version is file-wide: one four-part key upgrades the
	// whole container.
	if p.Header.IndexMinorVersion != 2 {
		for _, e := range p.Entries {
			if e.HasResource {
				p.Header.IndexMinorVersion = 2
				break
			}
		}
	}
	withResource := p.Header.hasResourceKeys()

	entries := make([]*Entry, 0, len(p.Entries)+1)
	for _, e := range p.Entries {
		if e.Type != TypeCLST {
			entries = append(entries, e)
		}
	}

	clst, err := p.buildDirectory(entries, withResource)
	if err != nil {
		return nil, err
	}
	if clst != nil {
		entries = append(entries, clst)
	}

	c := binio.NewCursor(nil)
	p.Header.encode(c)

	locations := make([]uint32, len(entries))
	sizes := make([]uint32, len(entries))
	for i, e := range entries {
		locations[i] = uint32(c.Pos())
		c.Write(e.Payload())
		sizes[i] = uint32(c.Pos()) - locations[i]
	}

	indexStart := c.Pos()
	for i, e := range entries {
		writeKey(c, e.Key, withResource)
		c.WriteUint32(locations[i])
		c.WriteUint32(sizes[i])
	}
	indexEnd := c.Pos()

	p.Header.IndexEntryCount = uint32(len(entries))
	p.Header.IndexLocation = uint32(indexStart)
	p.Header.IndexSize = uint32(indexEnd - indexStart)
	p.Header.HoleIndexCount = 0
	p.Header.HoleIndexLocation = 0
	p.Header.HoleIndexSize = 0

	c.Seek(36)
	c.WriteUint32(p.Header.IndexEntryCount)
	c.WriteUint32(p.Header.IndexLocation)
	c.WriteUint32(p.Header.IndexSize)
	c.WriteUintN(0, 12)

	return c.Bytes()[:indexEnd], nil
}

// buildDirectory rebuilds the CLST entry from the current compressed
// set. It returns nil when no entry is compressed.
func (p *Package) buildDirectory(entries []*Entry, withResource bool) (*Entry, error) {
	var compressed []*Entry
	for _, e := range entries {
		if e.Compressed {
			compressed = append(compressed, e)
		}
	}
	if len(compressed) == 0 {
		return nil, nil
	}

	c := binio.NewCursor(nil)
	for _, e := range compressed {
		writeKey(c, e.Key, withResource)
		size, err := e.declaredSize()
		if err != nil {
			return nil, err
		}
		c.WriteUint32(uint32(size))
	}

	clst := NewEntry(TypeCLST, clstGroup, clstInstance, c.Bytes())
	clst.HasResource = withResource
	return clst, nil
}

// Write encodes the package and replaces the file at path atomically:
// the bytes are written to a temporary file first so an interrupted
// encode never leaves a half-written container at the canonical path.
func (p *Package) Write(path string, compress bool) error {
	data, err := p.Encode(compress)
	if err != nil {
		return err
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace package: %w", err)
	}
	return nil
}

// AssetCount returns the number of real asset entries, excluding the
// directory entry.
func (p *Package) AssetCount() int {
	n := 0
	for _, e := range p.Entries {
		if e.Type != TypeCLST {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the package.
func (p *Package) Clone() *Package {
	dup := &Package{Header: p.Header.Clone()}
	dup.Entries = make([]*Entry, len(p.Entries))
	for i, e := range p.Entries {
		dup.Entries[i] = e.Clone()
	}
	return dup
}

func (p *Package) findFirstByType(typeID uint32) *Entry {
	for _, e := range p.Entries {
		if e.Type == typeID {
			return e
		}
	}
	return nil
}
