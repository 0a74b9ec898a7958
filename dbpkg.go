// Package dbpkg re-exports the container codec and the cross-pack
// deduplication engine for embedding as a library.
package dbpkg

import (
	"tangled.org/simmod.net/dbpkg/dbpf"
	"tangled.org/simmod.net/dbpkg/dedup"
)

// Re-export commonly used types for convenience
type (
	Package = dbpf.Package
	Header  = dbpf.Header
	Entry   = dbpf.Entry
	Key     = dbpf.Key
	Lookup  = dbpf.Lookup
	Query   = dbpf.Query

	Engine  = dedup.Engine
	Catalog = dedup.Catalog
	Pack    = dedup.Pack
	Result  = dedup.Result
	Logger  = dedup.Logger
)

// Re-export sentinel errors
var (
	ErrDuplicateKey          = dbpf.ErrDuplicateKey
	ErrUnsupportedNameFormat = dbpf.ErrUnsupportedNameFormat
	ErrNameTooLong           = dbpf.ErrNameTooLong
)

// Decode parses a container byte stream (convenience wrapper).
func Decode(data []byte) (*Package, error) { return dbpf.Decode(data) }

// Open reads and decodes the container at path (convenience wrapper).
func Open(path string) (*Package, error) { return dbpf.Open(path) }

// BuildLookup indexes a decoded package (convenience wrapper).
func BuildLookup(p *Package) *Lookup { return dbpf.BuildLookup(p) }

// DefaultCatalog returns the built-in pack catalog (convenience
// wrapper).
func DefaultCatalog() *Catalog { return dedup.DefaultCatalog() }

// NewEngine creates a deduplication engine for baseDir.
func NewEngine(baseDir string, opts ...Option) (*Engine, error) {
	cfg := defaultConfig(baseDir)
	for _, opt := range opts {
		opt(cfg)
	}
	return dedup.New(cfg.engineConfig)
}
