// Package dbpf reads and writes DBPF package containers: the header,
// the entry index, and the CLST compressed-file directory, with
// heuristic entry-name resolution and an optional lookup index over a
// decoded package.
package dbpf

import "errors"

const (
	// Magic is the container format magic literal.
	Magic = "DBPF"

	// HeaderSize is the fixed byte size of the container header,
	// including the 32-byte reserved block.
	HeaderSize = 96

	// TypeCLST identifies the compressed-file directory entry. It is
	// derived bookkeeping, not a real asset, and is excluded from
	// asset-level reasoning.
	TypeCLST uint32 = 0xE86B1EEF

	clstGroup    uint32 = 0xE86B1EEF
	clstInstance uint32 = 0x286B1F03
)

var (
	// ErrBadMagic is returned when a byte stream does not start with the
	// container magic.
	ErrBadMagic = errors.New("dbpf: bad magic")

	// ErrTruncated is returned when the index or an entry payload lies
	// outside the byte stream.
	ErrTruncated = errors.New("dbpf: truncated container")

	// ErrDuplicateKey is returned when two compressed-directory records
	// or two compressed entries share one key tuple. A duplicate makes
	// the directory ambiguous, so the container cannot be rewritten.
	ErrDuplicateKey = errors.New("dbpf: duplicate entry key")

	// ErrUnsupportedNameFormat is returned by SetName for entry types
	// with no known naming strategy.
	ErrUnsupportedNameFormat = errors.New("dbpf: naming format not supported")

	// ErrNameTooLong is returned by SetName when a name exceeds the
	// fixed 64-byte name field of its entry type.
	ErrNameTooLong = errors.New("dbpf: name exceeds 64-byte field")
)

// Key is the (type, group, instance, resource) tuple identifying an
// asset record. Resource is zero for containers whose index minor
// version is below 2.
type Key struct {
	Type     uint32
	Group    uint32
	Instance uint32
	Resource uint32
}
