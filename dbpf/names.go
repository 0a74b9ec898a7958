package dbpf

import (
	"bytes"

	"tangled.org/simmod.net/dbpkg/internal/binio"
)

// Entry types carrying a fixed 64-byte name field at the start of the
// payload.
var fixedNameTypes = map[uint32]struct{}{
	0x42434F4E: {}, 0x42484156: {}, 0x4E524546: {}, 0x4F424A44: {},
	0x53545223: {}, 0x54544142: {}, 0x54544173: {}, 0x424D505F: {},
	0x44475250: {}, 0x534C4F54: {}, 0x53505232: {},
}

// Entry types naming themselves through an embedded resource-graph node.
var rcolNameTypes = map[uint32]struct{}{
	0xFB00791E: {}, 0x4D51F042: {}, 0xE519C933: {}, 0xAC4F8687: {},
	0x7BA3838C: {}, 0xC9C81B9B: {}, 0xC9C81BA3: {}, 0xC9C81BA9: {},
	0xC9C81BAD: {}, 0xED534136: {}, 0xFC6EB1F7: {}, 0x49596978: {},
	0x1C4A276C: {},
}

// Entry types naming themselves through a structured-property "name"
// field.
var cpfNameTypes = map[uint32]struct{}{
	0x2C1FD8A1: {}, 0x0C1FE246: {}, 0xEBCF3E27: {},
}

// Script entry types with a length-prefixed name at a fixed offset.
var scriptNameTypes = map[uint32]struct{}{
	0x9012468A: {}, 0x9012468B: {},
}

const fixedNameSize = 64

var (
	rcolNameMarker = []byte("cSGResource")
	cpfNameMarker  = []byte{0x18, 0xEA, 0x8B, 0x0B, 0x04, 0x00, 0x00, 0x00, 'n', 'a', 'm', 'e'}
)

const (
	rcolNameSkip = 19
	cpfNameSkip  = 12
	scriptNameAt = 4
)

// resolveName extracts the display name for an entry according to its
// type's strategy. Types outside every catalog resolve to an empty name
// with no error; any failure inside a strategy is reported to the caller,
// which maps it to an empty name.
func resolveName(e *Entry) (string, error) {
	switch {
	case inSet(fixedNameTypes, e.Type):
		head, err := e.peek(fixedNameSize)
		if err != nil {
			return "", err
		}
		return string(bytes.TrimRight(head, "\x00")), nil

	case inSet(rcolNameTypes, e.Type):
		raw, err := e.peek(-1)
		if err != nil {
			return "", err
		}
		c := binio.NewCursor(raw)
		loc := c.Find(rcolNameMarker)
		if loc < 0 {
			return "", nil
		}
		c.Seek(loc + rcolNameSkip)
		return c.Read7bString()

	case inSet(cpfNameTypes, e.Type):
		raw, err := e.peek(-1)
		if err != nil {
			return "", err
		}
		c := binio.NewCursor(raw)
		loc := c.Find(cpfNameMarker)
		if loc < 0 {
			return "", nil
		}
		c.Seek(loc + cpfNameSkip)
		return c.ReadPString(4)

	case inSet(scriptNameTypes, e.Type):
		raw, err := e.peek(-1)
		if err != nil {
			return "", err
		}
		c := binio.NewCursor(raw)
		c.Seek(scriptNameAt)
		return c.ReadPString(4)
	}
	return "", nil
}

// SetName writes name into the entry payload using the mirror of its
// type's extraction strategy. A compressed entry is transparently
// decompressed, mutated, and recompressed. Types outside every catalog
// return ErrUnsupportedNameFormat.
func (e *Entry) SetName(name string) error {
	switch {
	case inSet(fixedNameTypes, e.Type):
		if len(name) > fixedNameSize {
			return ErrNameTooLong
		}
	case inSet(rcolNameTypes, e.Type),
		inSet(cpfNameTypes, e.Type),
		inSet(scriptNameTypes, e.Type):
	default:
		return ErrUnsupportedNameFormat
	}

	wasCompressed := e.Compressed
	if err := e.Decompress(); err != nil {
		return err
	}
	c := e.payload

	switch {
	case inSet(fixedNameTypes, e.Type):
		c.Seek(0)
		c.Write([]byte(name))
		c.Write(make([]byte, fixedNameSize-len(name)))
		e.Name = name

	case inSet(rcolNameTypes, e.Type):
		c.Seek(0)
		loc := c.Find(rcolNameMarker)
		if loc >= 0 {
			c.Seek(loc + rcolNameSkip)
			if err := c.Overwrite7bString(name); err != nil {
				return err
			}
			e.Name = name
		}

	case inSet(cpfNameTypes, e.Type):
		c.Seek(0)
		loc := c.Find(cpfNameMarker)
		if loc >= 0 {
			c.Seek(loc + cpfNameSkip)
			if err := c.OverwritePString(name, 4); err != nil {
				return err
			}
			e.Name = name
		}

	case inSet(scriptNameTypes, e.Type):
		c.Seek(scriptNameAt)
		if err := c.OverwritePString(name, 4); err != nil {
			return err
		}
		e.Name = name
	}
	c.Seek(0)

	if wasCompressed {
		e.Compress()
	}
	return nil
}

func inSet(set map[uint32]struct{}, typeID uint32) bool {
	_, ok := set[typeID]
	return ok
}
