package dedup

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"tangled.org/simmod.net/dbpkg/dbpf"
)

const packageExt = ".package"

// Logger interface for engine transcript output
type Logger interface {
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

type defaultLogger struct{}

func (defaultLogger) Printf(format string, v ...interface{}) { log.Printf(format, v...) }
func (defaultLogger) Println(v ...interface{})               { log.Println(v...) }

// Config holds configuration for a deduplication run.
type Config struct {
	// BaseDir is the installation directory containing the pack
	// subtrees.
	BaseDir string

	// Catalog lists the known packs. Nil means DefaultCatalog.
	Catalog *Catalog

	Logger Logger

	// Progress, when set, is called with (filesVisited, filesTotal)
	// while package files are processed.
	Progress func(done, total int)
}

// DefaultConfig returns default configuration for baseDir.
func DefaultConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		Catalog: DefaultCatalog(),
	}
}

// generation is one pack present on disk, with the reference sets
// accumulated for it: normalized relative file key to the set of asset
// keys originally found in that file.
type generation struct {
	pack   Pack
	dir    string
	isBase bool
	refs   map[string]map[dbpf.Key]struct{}
}

// Result summarizes one deduplication run.
type Result struct {
	BytesBefore    int64
	BytesAfter     int64
	FilesRewritten int
	FilesDeleted   int
	EntriesRemoved int
}

// Engine walks every package file of every generation present under the
// base directory and removes entries superseded by an identically keyed
// entry in a strictly newer generation.
type Engine struct {
	cfg    *Config
	logger Logger
	gens   []*generation
}

// New creates an engine. It fails when the base directory does not
// exist or when none of the catalog's packs are present under it.
func New(cfg *Config) (*Engine, error) {
	if cfg.Catalog == nil {
		cfg.Catalog = DefaultCatalog()
	}
	if cfg.Logger == nil {
		cfg.Logger = defaultLogger{}
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("directory %s not found", cfg.BaseDir)
	}

	// Packs absent from the target directory are silently dropped. The
	// base flag is decided before filtering so the alias rule stays tied
	// to the catalog's oldest pack.
	var gens []*generation
	for i, pack := range cfg.Catalog.sorted() {
		dir := filepath.Join(cfg.BaseDir, filepath.FromSlash(pack.Path))
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		gens = append(gens, &generation{
			pack:   pack,
			dir:    dir,
			isBase: i == 0,
			refs:   make(map[string]map[dbpf.Key]struct{}),
		})
	}
	if len(gens) == 0 {
		return nil, fmt.Errorf("no known pack found under %s", cfg.BaseDir)
	}

	return &Engine{cfg: cfg, logger: cfg.Logger, gens: gens}, nil
}

// Generations returns the names of the packs found on disk, oldest
// first.
func (e *Engine) Generations() []string {
	names := make([]string, len(e.gens))
	for i, g := range e.gens {
		names[i] = g.pack.Name
	}
	return names
}

// Run performs one full deduplication pass and prints the transcript to
// the configured logger.
func (e *Engine) Run() (*Result, error) {
	before, err := dirSize(e.cfg.BaseDir)
	if err != nil {
		return nil, err
	}

	total := 0
	if e.cfg.Progress != nil {
		if total, err = e.countPackageFiles(); err != nil {
			return nil, err
		}
	}

	res := &Result{BytesBefore: before}

	// Newest to oldest: when a generation's files are visited, every
	// strictly newer generation's reference sets are already complete.
	done := 0
	for i := len(e.gens) - 1; i >= 0; i-- {
		gen := e.gens[i]
		e.logger.Printf("%s", gen.pack.Name)

		err := walkPackageFiles(gen.dir, func(path string) error {
			if err := e.processFile(gen, i, path, res); err != nil {
				return err
			}
			done++
			if e.cfg.Progress != nil {
				e.cfg.Progress(done, total)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if err := pruneEmptyDirs(e.cfg.BaseDir); err != nil {
		return nil, err
	}

	after, err := dirSize(e.cfg.BaseDir)
	if err != nil {
		return nil, err
	}
	res.BytesAfter = after

	ratio := 100.0
	if before > 0 {
		ratio = float64(after) / float64(before) * 100
	}
	e.logger.Printf("Total: %.2f GB -> %.2f GB (saved %.2f GB, %.1f%% of original size)",
		float64(before)/1e9, float64(after)/1e9, float64(before-after)/1e9, ratio)

	return res, nil
}

// processFile decodes one package file, captures its reference set, and
// removes every entry superseded by a strictly newer generation.
func (e *Engine) processFile(gen *generation, genIndex int, path string, res *Result) error {
	oldSize, err := fileSize(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	pkg, err := dbpf.Decode(data)
	if err != nil {
		// A corrupt container cannot be safely rewritten; abort the run.
		return fmt.Errorf("%s: %w", path, err)
	}

	rel, err := filepath.Rel(gen.dir, path)
	if err != nil {
		return err
	}
	fileKey := e.normalizedKey(gen, rel)

	// The reference set is captured before any deletion, so it always
	// reflects the file's original content.
	keys := make(map[dbpf.Key]struct{})
	for _, entry := range pkg.Entries {
		if !entry.IsDirectory() {
			keys[entry.Key] = struct{}{}
		}
	}
	gen.refs[fileKey] = keys

	// Scan backward so removal does not disturb positions not yet
	// visited.
	changed := false
	for j := len(pkg.Entries) - 1; j >= 0; j-- {
		entry := pkg.Entries[j]
		if entry.IsDirectory() {
			continue
		}
		if e.supersededByNewer(genIndex, fileKey, entry.Key) {
			pkg.Entries = append(pkg.Entries[:j], pkg.Entries[j+1:]...)
			res.EntriesRemoved++
			changed = true
		}
	}
	if !changed {
		return nil
	}

	relBase, err := filepath.Rel(e.cfg.BaseDir, path)
	if err != nil {
		relBase = path
	}

	if pkg.AssetCount() == 0 {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
		res.FilesDeleted++
		e.logger.Printf("%s, %0.2f MB -> deleted", relBase, float64(oldSize)/1e6)
		return nil
	}

	if err := pkg.Write(path, false); err != nil {
		return err
	}
	newSize, err := fileSize(path)
	if err != nil {
		return err
	}
	res.FilesRewritten++
	e.logger.Printf("%s, %0.2f MB -> %0.2f MB", relBase, float64(oldSize)/1e6, float64(newSize)/1e6)
	return nil
}

// supersededByNewer reports whether key exists under the same
// normalized file key in any strictly newer generation. Only
// generations after genIndex are consulted; their reference sets are
// complete because processing runs newest to oldest.
func (e *Engine) supersededByNewer(genIndex int, fileKey string, key dbpf.Key) bool {
	for k := genIndex + 1; k < len(e.gens); k++ {
		if set, ok := e.gens[k].refs[fileKey]; ok {
			if _, found := set[key]; found {
				return true
			}
		}
	}
	return false
}

// normalizedKey computes the subtree-relative key of a package file.
// For the base generation only, path components matching the catalog's
// asset-root alias are renamed so the same logical file compares equal
// across generations.
func (e *Engine) normalizedKey(gen *generation, rel string) string {
	rel = filepath.ToSlash(rel)
	if !gen.isBase || e.cfg.Catalog.RootFrom == "" {
		return rel
	}
	parts := strings.Split(rel, "/")
	for i, part := range parts {
		if part == e.cfg.Catalog.RootFrom {
			parts[i] = e.cfg.Catalog.RootTo
		}
	}
	return strings.Join(parts, "/")
}

func (e *Engine) countPackageFiles() (int, error) {
	total := 0
	for _, gen := range e.gens {
		err := walkPackageFiles(gen.dir, func(string) error {
			total++
			return nil
		})
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

func walkPackageFiles(dir string, fn func(path string) error) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), packageExt) {
			return nil
		}
		return fn(path)
	})
}

// pruneEmptyDirs removes, bottom-up, every directory under root left
// with no files and no subdirectories. The root itself is kept.
func pruneEmptyDirs(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := pruneTree(filepath.Join(root, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// pruneTree prunes dir recursively and removes dir itself when it ends
// up empty.
func pruneTree(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if err := pruneTree(filepath.Join(dir, entry.Name())); err != nil {
				return err
			}
		}
	}
	remaining, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		return os.Remove(dir)
	}
	return nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// dirSize returns the total size of all files under root.
func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
