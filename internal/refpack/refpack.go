// Package refpack implements the RefPack (QFS) compression scheme used
// for entry payloads inside package containers.
//
// A compressed payload is framed as:
//
//	offset 0: uint32 LE  total compressed size (including this header)
//	offset 4: 0x10 0xFB  signature
//	offset 6: uint24 BE  uncompressed size
//	offset 9: command stream
//
// The command stream interleaves literal runs with back-references into
// the already-produced output, encoded in four command forms selected by
// the leading byte.
package refpack

import "errors"

// Signature is the two-byte marker found at offset 4 of a compressed
// payload.
var Signature = []byte{0x10, 0xFB}

// ErrDecompress is returned when a payload cannot be decompressed.
var ErrDecompress = errors.New("refpack: corrupt compressed data")

const (
	headerSize = 9
	maxInput   = 0xFFFFFF // uncompressed size is a 24-bit field

	maxLiteralRun = 112
	max2Offset    = 1024
	max2Copy      = 10
	max3Offset    = 16384
	max3Copy      = 67
	max4Offset    = 131072
	max4Copy      = 1028
)

// IsCompressed reports whether b carries the RefPack signature at the
// position the container format mandates.
func IsCompressed(b []byte) bool {
	return len(b) >= 6 && b[4] == Signature[0] && b[5] == Signature[1]
}

// UncompressedSize returns the declared uncompressed size of a
// compressed payload (the big-endian 24-bit field at offset 6).
func UncompressedSize(b []byte) (int, error) {
	if !IsCompressed(b) || len(b) < headerSize {
		return 0, ErrDecompress
	}
	return int(b[6])<<16 | int(b[7])<<8 | int(b[8]), nil
}

// Decompress expands a compressed payload. declaredSize is the size
// recorded in the container's compression directory; it is used as an
// allocation hint only, the authoritative size is the payload header.
func Decompress(b []byte, declaredSize int) ([]byte, error) {
	return decompress(b, declaredSize, -1)
}

// PartialDecompress expands at most limit bytes of a compressed payload,
// for cheap inspection of entry headers without materializing the whole
// asset.
func PartialDecompress(b []byte, limit int) ([]byte, error) {
	return decompress(b, limit, limit)
}

func decompress(b []byte, sizeHint, limit int) ([]byte, error) {
	size, err := UncompressedSize(b)
	if err != nil {
		return nil, err
	}
	if sizeHint <= 0 || sizeHint > size {
		sizeHint = size
	}
	out := make([]byte, 0, sizeHint)
	pos := headerSize

	for pos < len(b) {
		c0 := int(b[pos])
		var numPlain, numCopy, offset int
		stop := false

		switch {
		case c0 < 0x80:
			if pos+2 > len(b) {
				return nil, ErrDecompress
			}
			c1 := int(b[pos+1])
			pos += 2
			numPlain = c0 & 0x03
			numCopy = (c0&0x1C)>>2 + 3
			offset = (c0&0x60)<<3 + c1 + 1
		case c0 < 0xC0:
			if pos+3 > len(b) {
				return nil, ErrDecompress
			}
			c1, c2 := int(b[pos+1]), int(b[pos+2])
			pos += 3
			numPlain = c1 >> 6
			numCopy = c0&0x3F + 4
			offset = (c1&0x3F)<<8 + c2 + 1
		case c0 < 0xE0:
			if pos+4 > len(b) {
				return nil, ErrDecompress
			}
			c1, c2, c3 := int(b[pos+1]), int(b[pos+2]), int(b[pos+3])
			pos += 4
			numPlain = c0 & 0x03
			numCopy = (c0&0x0C)<<6 + c3 + 5
			offset = (c0&0x10)<<12 + c1<<8 + c2 + 1
		case c0 < 0xFC:
			pos++
			numPlain = (c0&0x1F + 1) << 2
		default:
			pos++
			numPlain = c0 & 0x03
			stop = true
		}

		if pos+numPlain > len(b) {
			return nil, ErrDecompress
		}
		out = append(out, b[pos:pos+numPlain]...)
		pos += numPlain

		if numCopy > 0 {
			src := len(out) - offset
			if src < 0 {
				return nil, ErrDecompress
			}
			// Overlapping copies are legal and byte-sequential.
			for i := 0; i < numCopy; i++ {
				out = append(out, out[src+i])
			}
		}

		if stop {
			break
		}
		if limit >= 0 && len(out) >= limit {
			return out[:limit], nil
		}
	}

	if limit >= 0 {
		if len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	}
	if len(out) != size {
		return nil, ErrDecompress
	}
	return out, nil
}

// Compress compresses src. It returns nil when compression would not
// shrink the payload (including inputs too large for the 24-bit size
// field), in which case the caller keeps the original bytes.
func Compress(src []byte) []byte {
	if len(src) > maxInput {
		return nil
	}

	stream := compressStream(src)
	total := headerSize + len(stream)
	if total >= len(src) {
		return nil
	}

	out := make([]byte, 0, total)
	out = append(out,
		byte(total), byte(total>>8), byte(total>>16), byte(total>>24),
		Signature[0], Signature[1],
		byte(len(src)>>16), byte(len(src)>>8), byte(len(src)))
	return append(out, stream...)
}

const (
	hashBits  = 16
	hashShift = 32 - hashBits
	maxChain  = 48
	minMatch  = 3
)

func hash3(src []byte, i int) uint32 {
	v := uint32(src[i]) | uint32(src[i+1])<<8 | uint32(src[i+2])<<16
	return (v * 2654435761) >> hashShift
}

func compressStream(src []byte) []byte {
	var out []byte
	head := make([]int32, 1<<hashBits)
	prev := make([]int32, len(src))
	for i := range head {
		head[i] = -1
	}

	insert := func(i int) {
		if i+minMatch > len(src) {
			return
		}
		h := hash3(src, i)
		prev[i] = head[h]
		head[h] = int32(i)
	}

	litStart := 0
	pos := 0
	for pos < len(src) {
		matchLen, matchOff := 0, 0
		if pos+minMatch <= len(src) {
			limit := len(src) - pos
			if limit > max4Copy {
				limit = max4Copy
			}
			cand := head[hash3(src, pos)]
			for chain := 0; cand >= 0 && chain < maxChain; chain++ {
				off := pos - int(cand)
				if off > max4Offset {
					break
				}
				l := 0
				for l < limit && src[int(cand)+l] == src[pos+l] {
					l++
				}
				if l > matchLen && usable(l, off) {
					matchLen, matchOff = l, off
					if l == limit {
						break
					}
				}
				cand = prev[cand]
			}
		}

		if matchLen >= minMatch {
			plain := pos - litStart
			out = flushLiterals(out, src, &litStart, &plain)
			out = emitCopy(out, src[litStart:litStart+plain], matchLen, matchOff)
			for i := 0; i < matchLen; i++ {
				insert(pos + i)
			}
			pos += matchLen
			litStart = pos
		} else {
			insert(pos)
			pos++
		}
	}

	// Trailing literals and the stop command.
	plain := pos - litStart
	out = flushLiterals(out, src, &litStart, &plain)
	out = append(out, byte(0xFC|plain))
	return append(out, src[litStart:litStart+plain]...)
}

// usable reports whether a match of length l at distance off fits one of
// the three copy command forms.
func usable(l, off int) bool {
	switch {
	case l >= 5:
		return off <= max4Offset
	case l == 4:
		return off <= max3Offset
	default:
		return off <= max2Offset
	}
}

// flushLiterals emits literal-run commands until at most three literal
// bytes remain pending; those ride along on the next copy or stop
// command.
func flushLiterals(out, src []byte, litStart, plain *int) []byte {
	for *plain > 3 {
		run := *plain &^ 3
		if run > maxLiteralRun {
			run = maxLiteralRun
		}
		out = append(out, byte(0xE0|(run>>2-1)))
		out = append(out, src[*litStart:*litStart+run]...)
		*litStart += run
		*plain -= run
	}
	return out
}

func emitCopy(out, plainBytes []byte, l, off int) []byte {
	plain := len(plainBytes)
	o := off - 1
	switch {
	case l <= max2Copy && off <= max2Offset:
		out = append(out, byte(o>>8<<5|(l-3)<<2|plain), byte(o))
	case l <= max3Copy && off <= max3Offset:
		out = append(out, byte(0x80|(l-4)), byte(plain<<6|o>>8), byte(o))
	default:
		out = append(out, byte(0xC0|o>>16<<4|(l-5)>>8<<2|plain),
			byte(o>>8), byte(o), byte(l-5))
	}
	return append(out, plainBytes...)
}
