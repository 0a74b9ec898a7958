package dbpf_test

import (
	"errors"
	"strings"
	"testing"

	"tangled.org/simmod.net/dbpkg/dbpf"
	"tangled.org/simmod.net/dbpkg/internal/binio"
)

const (
	typeFixedName  = 0x42434F4E
	typeRcolName   = 0xFB00791E
	typeCpfName    = 0x2C1FD8A1
	typeScriptName = 0x9012468A
)

func fixedNamePayload(name string) []byte {
	c := binio.NewCursor(nil)
	c.Write([]byte(name))
	c.Write(make([]byte, 64-len(name)))
	c.Write([]byte("behaviour bytecode follows"))
	return c.Bytes()
}

func rcolNamePayload(name string) []byte {
	c := binio.NewCursor(nil)
	c.Write(make([]byte, 6))
	c.Write([]byte("cSGResource"))
	c.Write(make([]byte, 8))
	c.Write7bString(name)
	c.Write([]byte("geometry data follows"))
	return c.Bytes()
}

func cpfNamePayload(name string) []byte {
	c := binio.NewCursor(nil)
	c.Write(make([]byte, 10))
	c.Write([]byte{0x18, 0xEA, 0x8B, 0x0B, 0x04, 0x00, 0x00, 0x00, 'n', 'a', 'm', 'e'})
	c.WritePString(name, 4)
	c.Write([]byte("more properties follow"))
	return c.Bytes()
}

func scriptNamePayload(name string) []byte {
	c := binio.NewCursor(nil)
	c.WriteUint32(1)
	c.WritePString(name, 4)
	c.Write([]byte("script body"))
	return c.Bytes()
}

// decodeSingle pushes one entry through an encode/decode cycle so the
// decoder's name resolution runs against it.
func decodeSingle(t *testing.T, e *dbpf.Entry) *dbpf.Entry {
	t.Helper()
	p := dbpf.New()
	p.Entries = append(p.Entries, e)
	data, err := p.Encode(false)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	q, err := dbpf.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return q.Entries[0]
}

func TestNameResolution(t *testing.T) {
	tests := []struct {
		name    string
		typeID  uint32
		payload []byte
		want    string
	}{
		{"FixedField", typeFixedName, fixedNamePayload("dining_chair"), "dining_chair"},
		{"GraphNode", typeRcolName, rcolNamePayload("chair_mesh"), "chair_mesh"},
		{"PropertySet", typeCpfName, cpfNamePayload("recolour_blue"), "recolour_blue"},
		{"Script", typeScriptName, scriptNamePayload("on_sit"), "on_sit"},
		{"UnknownType", 0x12345678, []byte("anonymous payload"), ""},
		{"GraphNodeMissingMarker", typeRcolName, []byte("no marker here"), ""},
		{"PropertySetMissingMarker", typeCpfName, []byte("no marker here"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := decodeSingle(t, dbpf.NewEntry(tt.typeID, 1, 2, tt.payload))
			if e.Name != tt.want {
				t.Errorf("name %q, want %q", e.Name, tt.want)
			}
		})
	}
}

func TestNameResolutionCompressed(t *testing.T) {
	// Padding makes the payload compressible so the entry actually ends
	// up compressed inside the container.
	payload := append(fixedNamePayload("compressed_name"), make([]byte, 2000)...)
	p := dbpf.New()
	p.Entries = append(p.Entries, dbpf.NewEntry(typeFixedName, 1, 2, payload))

	data, err := p.Encode(true)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	q, err := dbpf.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !q.Entries[0].Compressed {
		t.Fatal("fixture entry not compressed")
	}
	if q.Entries[0].Name != "compressed_name" {
		t.Errorf("name %q, want compressed_name", q.Entries[0].Name)
	}
}

func TestSetName(t *testing.T) {
	tests := []struct {
		name    string
		typeID  uint32
		payload func(string) []byte
	}{
		{"FixedField", typeFixedName, fixedNamePayload},
		{"GraphNode", typeRcolName, rcolNamePayload},
		{"PropertySet", typeCpfName, cpfNamePayload},
		{"Script", typeScriptName, scriptNamePayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := dbpf.NewEntry(tt.typeID, 1, 2, tt.payload("old_name"))
			if err := e.SetName("renamed_with_a_longer_value"); err != nil {
				t.Fatalf("SetName failed: %v", err)
			}
			if e.Name != "renamed_with_a_longer_value" {
				t.Errorf("Name field %q", e.Name)
			}

			got := decodeSingle(t, e)
			if got.Name != "renamed_with_a_longer_value" {
				t.Errorf("resolved %q after rename", got.Name)
			}
		})
	}
}

func TestSetNameCompressed(t *testing.T) {
	payload := append(rcolNamePayload("old_name"), make([]byte, 2000)...)
	e := dbpf.NewEntry(typeRcolName, 1, 2, payload)
	e.Compress()
	if !e.Compressed {
		t.Fatal("fixture entry did not compress")
	}

	if err := e.SetName("new_name"); err != nil {
		t.Fatalf("SetName failed: %v", err)
	}
	if !e.Compressed {
		t.Error("entry should be recompressed after rename")
	}

	if err := e.Decompress(); err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	c := binio.NewCursor(e.Payload())
	loc := c.Find([]byte("cSGResource"))
	if loc < 0 {
		t.Fatal("marker lost")
	}
	c.Seek(loc + 19)
	s, err := c.Read7bString()
	if err != nil || s != "new_name" {
		t.Errorf("stored name %q, %v", s, err)
	}
}

func TestSetNameErrors(t *testing.T) {
	t.Run("TooLong", func(t *testing.T) {
		e := dbpf.NewEntry(typeFixedName, 1, 2, fixedNamePayload("x"))
		err := e.SetName(strings.Repeat("a", 65))
		if !errors.Is(err, dbpf.ErrNameTooLong) {
			t.Errorf("expected ErrNameTooLong, got %v", err)
		}
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		e := dbpf.NewEntry(0x12345678, 1, 2, []byte("payload"))
		err := e.SetName("anything")
		if !errors.Is(err, dbpf.ErrUnsupportedNameFormat) {
			t.Errorf("expected ErrUnsupportedNameFormat, got %v", err)
		}
	})
}
