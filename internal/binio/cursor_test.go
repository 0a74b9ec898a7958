package binio_test

import (
	"bytes"
	"testing"

	"tangled.org/simmod.net/dbpkg/internal/binio"
)

func TestCursorIntegers(t *testing.T) {
	t.Run("LittleEndianRoundTrip", func(t *testing.T) {
		c := binio.NewCursor(nil)
		c.WriteUint32(0xDEADBEEF)
		c.WriteUintN(0x0102, 2)
		c.Seek(0)

		v, err := c.ReadUint32()
		if err != nil {
			t.Fatalf("ReadUint32 failed: %v", err)
		}
		if v != 0xDEADBEEF {
			t.Errorf("expected 0xDEADBEEF, got 0x%X", v)
		}

		w, err := c.ReadUintN(2)
		if err != nil {
			t.Fatalf("ReadUintN failed: %v", err)
		}
		if w != 0x0102 {
			t.Errorf("expected 0x0102, got 0x%X", w)
		}
	})

	t.Run("BigEndian", func(t *testing.T) {
		c := binio.NewCursor(nil)
		c.WriteUintBE(0x010203, 3)
		if !bytes.Equal(c.Bytes(), []byte{0x01, 0x02, 0x03}) {
			t.Errorf("unexpected bytes: %v", c.Bytes())
		}
		c.Seek(0)
		v, err := c.ReadUintBE(3)
		if err != nil {
			t.Fatalf("ReadUintBE failed: %v", err)
		}
		if v != 0x010203 {
			t.Errorf("expected 0x010203, got 0x%X", v)
		}
	})

	t.Run("ReadPastEnd", func(t *testing.T) {
		c := binio.NewCursor([]byte{1, 2})
		if _, err := c.ReadUint32(); err == nil {
			t.Error("expected error reading past end")
		}
	})
}

func TestCursorVarint(t *testing.T) {
	tests := []struct {
		value   uint64
		encoded []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xAC, 0x02}},
		{16384, []byte{0x80, 0x80, 0x01}},
	}

	for _, tt := range tests {
		c := binio.NewCursor(nil)
		c.WriteUvarint7(tt.value)
		if !bytes.Equal(c.Bytes(), tt.encoded) {
			t.Errorf("value %d: expected % X, got % X", tt.value, tt.encoded, c.Bytes())
		}

		c.Seek(0)
		v, err := c.ReadUvarint7()
		if err != nil {
			t.Fatalf("value %d: ReadUvarint7 failed: %v", tt.value, err)
		}
		if v != tt.value {
			t.Errorf("expected %d, got %d", tt.value, v)
		}
	}
}

func TestCursorStrings(t *testing.T) {
	t.Run("PString", func(t *testing.T) {
		c := binio.NewCursor(nil)
		c.WritePString("hello", 4)
		c.Seek(0)
		s, err := c.ReadPString(4)
		if err != nil {
			t.Fatalf("ReadPString failed: %v", err)
		}
		if s != "hello" {
			t.Errorf("expected hello, got %q", s)
		}
	})

	t.Run("7bString", func(t *testing.T) {
		long := string(bytes.Repeat([]byte("x"), 200))
		c := binio.NewCursor(nil)
		c.Write7bString(long)
		if c.Bytes()[0] != 0xC8 || c.Bytes()[1] != 0x01 {
			t.Errorf("unexpected length prefix: % X", c.Bytes()[:2])
		}
		c.Seek(0)
		s, err := c.Read7bString()
		if err != nil {
			t.Fatalf("Read7bString failed: %v", err)
		}
		if s != long {
			t.Error("round trip mismatch")
		}
	})

	t.Run("Overwrite7bStringGrowing", func(t *testing.T) {
		c := binio.NewCursor(nil)
		c.Write7bString("ab")
		c.Write([]byte("tail"))
		c.Seek(0)
		if err := c.Overwrite7bString("longer name"); err != nil {
			t.Fatalf("Overwrite7bString failed: %v", err)
		}
		c.Seek(0)
		s, err := c.Read7bString()
		if err != nil {
			t.Fatalf("Read7bString failed: %v", err)
		}
		if s != "longer name" {
			t.Errorf("expected replacement, got %q", s)
		}
		rest, err := c.Read(4)
		if err != nil || string(rest) != "tail" {
			t.Errorf("tail corrupted: %q, %v", rest, err)
		}
	})

	t.Run("OverwritePStringShrinking", func(t *testing.T) {
		c := binio.NewCursor(nil)
		c.WritePString("a long value", 4)
		c.Write([]byte("tail"))
		c.Seek(0)
		if err := c.OverwritePString("v", 4); err != nil {
			t.Fatalf("OverwritePString failed: %v", err)
		}
		c.Seek(0)
		s, _ := c.ReadPString(4)
		if s != "v" {
			t.Errorf("expected v, got %q", s)
		}
		rest, err := c.Read(4)
		if err != nil || string(rest) != "tail" {
			t.Errorf("tail corrupted: %q, %v", rest, err)
		}
	})
}

func TestCursorSplice(t *testing.T) {
	t.Run("Insert", func(t *testing.T) {
		c := binio.NewCursor([]byte("abcdef"))
		c.Splice(3, 3, []byte("XY"))
		if string(c.Bytes()) != "abcXYdef" {
			t.Errorf("got %q", c.Bytes())
		}
		if c.Pos() != 5 {
			t.Errorf("expected pos 5, got %d", c.Pos())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		c := binio.NewCursor([]byte("abcdef"))
		c.Seek(1)
		c.Delete(3)
		if string(c.Bytes()) != "aef" {
			t.Errorf("got %q", c.Bytes())
		}
	})

	t.Run("DeleteBeyondEnd", func(t *testing.T) {
		c := binio.NewCursor([]byte("ab"))
		c.Seek(1)
		c.Delete(100)
		if string(c.Bytes()) != "a" {
			t.Errorf("got %q", c.Bytes())
		}
	})
}

func TestCursorFind(t *testing.T) {
	c := binio.NewCursor([]byte("one needle two needle"))
	if loc := c.Find([]byte("needle")); loc != 4 {
		t.Errorf("expected 4, got %d", loc)
	}
	c.Seek(5)
	if loc := c.Find([]byte("needle")); loc != 15 {
		t.Errorf("expected 15, got %d", loc)
	}
	if loc := c.Find([]byte("missing")); loc != -1 {
		t.Errorf("expected -1, got %d", loc)
	}
}

func TestCursorWriteGrows(t *testing.T) {
	c := binio.NewCursor([]byte("abc"))
	c.Seek(2)
	c.Write([]byte("XYZ"))
	if string(c.Bytes()) != "abXYZ" {
		t.Errorf("got %q", c.Bytes())
	}
}
