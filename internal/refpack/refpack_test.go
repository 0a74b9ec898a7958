package refpack_test

import (
	"bytes"
	"math/rand"
	"testing"

	"tangled.org/simmod.net/dbpkg/internal/refpack"
)

func repetitive(n int) []byte {
	pattern := []byte("the quick brown fox jumps over the lazy dog. ")
	out := make([]byte, 0, n)
	for len(out) < n {
		out = append(out, pattern...)
	}
	return out[:n]
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"Empty", []byte{}},
		{"Short", []byte("aaaa")},
		{"Repetitive", repetitive(4096)},
		{"LongRuns", bytes.Repeat([]byte{0x42}, 100000)},
		{"MixedContent", append(repetitive(2000), bytes.Repeat([]byte{0}, 2000)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed := refpack.Compress(tt.data)
			if compressed == nil {
				t.Skip("data did not shrink")
			}
			if !refpack.IsCompressed(compressed) {
				t.Fatal("compressed output missing signature")
			}
			size, err := refpack.UncompressedSize(compressed)
			if err != nil {
				t.Fatalf("UncompressedSize failed: %v", err)
			}
			if size != len(tt.data) {
				t.Fatalf("header size %d, want %d", size, len(tt.data))
			}
			out, err := refpack.Decompress(compressed, -1)
			if err != nil {
				t.Fatalf("Decompress failed: %v", err)
			}
			if !bytes.Equal(out, tt.data) {
				t.Fatal("round trip mismatch")
			}
		})
	}
}

func TestRoundTripRandom(t *testing.T) {
	// Seeded so failures reproduce.
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		n := 100 + rng.Intn(20000)
		data := make([]byte, n)
		for i := range data {
			// Small alphabet keeps the data compressible.
			data[i] = byte('a' + rng.Intn(4))
		}
		compressed := refpack.Compress(data)
		if compressed == nil {
			continue
		}
		out, err := refpack.Decompress(compressed, -1)
		if err != nil {
			t.Fatalf("trial %d: Decompress failed: %v", trial, err)
		}
		if !bytes.Equal(out, data) {
			t.Fatalf("trial %d: round trip mismatch", trial)
		}
	}
}

func TestCompressIncompressible(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	data := make([]byte, 512)
	rng.Read(data)
	if out := refpack.Compress(data); out != nil {
		// Random bytes should not shrink through a dictionary coder.
		t.Errorf("expected nil for incompressible data, got %d bytes", len(out))
	}
}

func TestCompressShrinks(t *testing.T) {
	data := repetitive(8192)
	compressed := refpack.Compress(data)
	if compressed == nil {
		t.Fatal("repetitive data should compress")
	}
	if len(compressed) >= len(data) {
		t.Fatalf("compressed %d bytes, original %d", len(compressed), len(data))
	}
}

func TestPartialDecompress(t *testing.T) {
	data := repetitive(4096)
	compressed := refpack.Compress(data)
	if compressed == nil {
		t.Fatal("repetitive data should compress")
	}
	out, err := refpack.PartialDecompress(compressed, 100)
	if err != nil {
		t.Fatalf("PartialDecompress failed: %v", err)
	}
	if len(out) < 100 {
		t.Fatalf("expected at least 100 bytes, got %d", len(out))
	}
	if !bytes.Equal(out[:100], data[:100]) {
		t.Fatal("prefix mismatch")
	}
}

func TestDecompressBadInput(t *testing.T) {
	t.Run("Truncated", func(t *testing.T) {
		if _, err := refpack.Decompress([]byte{0x01, 0x02}, -1); err == nil {
			t.Error("expected error for truncated input")
		}
	})

	t.Run("BadSignature", func(t *testing.T) {
		b := []byte{9, 0, 0, 0, 0xAA, 0xBB, 0, 0, 9}
		if _, err := refpack.Decompress(b, -1); err == nil {
			t.Error("expected error for missing signature")
		}
	})

	t.Run("TruncatedStream", func(t *testing.T) {
		data := repetitive(4096)
		compressed := refpack.Compress(data)
		if compressed == nil {
			t.Fatal("repetitive data should compress")
		}
		if _, err := refpack.Decompress(compressed[:len(compressed)/2], -1); err == nil {
			t.Error("expected error for truncated stream")
		}
	})
}

func TestIsCompressed(t *testing.T) {
	if refpack.IsCompressed([]byte{0x10, 0xFB}) {
		t.Error("too short to carry the signature")
	}
	if !refpack.IsCompressed([]byte{0, 0, 0, 0, 0x10, 0xFB, 0, 0, 0}) {
		t.Error("signature at offset 4 not recognized")
	}
	if refpack.IsCompressed([]byte{0x10, 0xFB, 0, 0, 0, 0, 0, 0, 0}) {
		t.Error("signature must sit at offset 4")
	}
}
