package relink

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/meigma/relink/internal/archive"
	"github.com/meigma/relink/internal/filecache"
	"github.com/meigma/relink/internal/fileops"
	"github.com/meigma/relink/internal/index"
	"github.com/meigma/relink/internal/pathhash"
	"github.com/meigma/relink/internal/pathutil"
	"github.com/meigma/relink/redirect"
)

// Well-known file and directory names.
const (
	// IndexFileName is the game index, next to the archive blobs.
	IndexFileName = "data.i"

	// LegacyIndexBackupName is the backup left by loaders that rewrote
	// data.i in place. Initialize restores it.
	LegacyIndexBackupName = "orig_data.i"

	// DataDirName is the directory loose game files are read from.
	DataDirName = "data"

	// CacheFileName is the cache registry inside the state directory.
	CacheFileName = "cached_files.txt"

	// TempDirName holds produced files and the output index inside the
	// state directory.
	TempDirName = "temp"

	// DefaultStateDirName is the state directory created in the game
	// directory when WithStateDir is not used.
	DefaultStateDirName = ".relink"

	// UnspecifiedSource is the source id used by AddOrUpdateExternalFile.
	UnspecifiedSource = "unspecified"
)

// Engine merges override files into a working copy of the game index.
//
// Initialize must be called before any other method; calling another
// method first, or calling Initialize twice, panics. An Engine is not safe
// for concurrent use.
type Engine struct {
	gameDir  string
	dataDir  string
	stateDir string

	pristine *index.Model
	working  *index.Model
	cache    *filecache.Registry
	archive  *archive.Reader // opened on first archive read

	redirector redirect.Redirector
	transforms TransformRegistry
	owners     map[string]ownedFile // normalized game path → provider
	calls      int

	logger           *slog.Logger
	upgradeModelInfo bool
	convertJSON      bool
	convertXML       bool
	printRedirects   bool
	verbose          bool
	ignore           []string
	chunkCacheSize   int
	customTransforms TransformRegistry

	initialized bool
}

// New creates an engine for the game installed in gameDir.
func New(gameDir string, opts ...Option) *Engine {
	e := &Engine{
		gameDir:          gameDir,
		dataDir:          filepath.Join(gameDir, DataDirName),
		stateDir:         filepath.Join(gameDir, DefaultStateDirName),
		redirector:       redirect.Discard,
		owners:           make(map[string]ownedFile),
		upgradeModelInfo: true,
		convertJSON:      true,
		convertXML:       true,
		chunkCacheSize:   archive.DefaultChunkCacheSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.transforms = DefaultTransforms(e.upgradeModelInfo, e.convertJSON, e.convertXML)
	maps.Copy(e.transforms, e.customTransforms)
	e.cache = filecache.New(filecache.WithLogger(e.log()))
	return e
}

// log returns the logger, falling back to a discard logger if nil.
func (e *Engine) log() *slog.Logger {
	if e.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.logger
}

func (e *Engine) checkInitialized() {
	if !e.initialized {
		panic("relink: engine used before Initialize")
	}
}

// Initialize loads the shipped index as the pristine baseline and prepares
// the state directory.
//
// It fails with ErrMissingDataDir when the game has no data directory,
// ErrIndexModified when data.i was already rewritten by this engine,
// ErrMalformedIndex when data.i cannot be decoded and ErrPermissionOrIO when
// files cannot be read or the state directory cannot be created.
func (e *Engine) Initialize() error {
	if e.initialized {
		panic("relink: engine already initialized")
	}

	if info, err := os.Stat(e.dataDir); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrMissingDataDir, e.dataDir)
	}
	if err := e.restoreLegacyIndex(); err != nil {
		return err
	}

	indexPath := filepath.Join(e.gameDir, IndexFileName)
	raw, err := os.ReadFile(indexPath) //nolint:gosec // index path is derived from the game directory
	if err != nil {
		return fmt.Errorf("%w: read index: %w", ErrPermissionOrIO, err)
	}

	provenance, err := index.Classify(raw)
	if err != nil {
		return fmt.Errorf("classify %s: %w", indexPath, err)
	}
	switch provenance {
	case index.ProvenanceModified:
		return fmt.Errorf("%w: %s; verify the game files to restore it", ErrIndexModified, indexPath)
	case index.ProvenanceUnknown:
		e.log().Warn("index was not written by the game or by relink, loading it anyway", "path", indexPath)
	}

	pristine, err := index.Decode(raw)
	if err != nil {
		return fmt.Errorf("decode %s: %w", indexPath, err)
	}
	e.pristine = pristine
	e.working = pristine.Clone()

	cachePath := filepath.Join(e.stateDir, CacheFileName)
	switch err := e.cache.LoadFile(cachePath); {
	case err == nil:
		e.log().Info("loaded cache registry", "path", cachePath, "entries", e.cache.Len())
	case errors.Is(err, fs.ErrNotExist):
		e.log().Info("no cache registry found, one will be created", "path", cachePath)
	default:
		e.log().Warn("could not read cache registry, files will be reprocessed", "path", cachePath, "error", err)
	}

	if err := os.MkdirAll(e.tempDir(), 0o750); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrPermissionOrIO, e.tempDir(), err)
	}

	e.initialized = true
	e.log().Info("engine initialized",
		"index", indexPath,
		"provenance", provenance.String(),
		"archived", e.pristine.ArchiveLen(),
		"external", e.pristine.ExternalLen(),
		"archives", e.pristine.NumArchives())
	return nil
}

// restoreLegacyIndex puts back data.i from a backup left by older loaders.
func (e *Engine) restoreLegacyIndex() error {
	backup := filepath.Join(e.gameDir, LegacyIndexBackupName)
	f, err := os.Open(backup) //nolint:gosec // backup path is derived from the game directory
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrPermissionOrIO, backup, err)
	}
	defer f.Close()

	e.log().Warn("found deprecated index backup, restoring data.i from it", "path", backup)
	if _, err := fileops.StreamFileAtomic(filepath.Join(e.gameDir, IndexFileName), f); err != nil {
		return fmt.Errorf("%w: restore index: %w", ErrPermissionOrIO, err)
	}
	if err := os.Remove(backup); err != nil {
		return fmt.Errorf("%w: remove %s: %w", ErrPermissionOrIO, backup, err)
	}
	return nil
}

// Initialized reports whether Initialize succeeded.
func (e *Engine) Initialized() bool {
	return e.initialized
}

// PersistIndex writes the working index to IndexOutputPath, saves the cache
// registry and redirects the game's data.i to the written index.
func (e *Engine) PersistIndex() (string, error) {
	e.checkInitialized()

	data := index.Encode(e.working)
	out := e.IndexOutputPath()
	if err := fileops.WriteFileAtomic(out, data); err != nil {
		return "", fmt.Errorf("%w: write index: %w", ErrPermissionOrIO, err)
	}
	if err := e.cache.SaveFile(filepath.Join(e.stateDir, CacheFileName)); err != nil {
		return "", fmt.Errorf("%w: %w", ErrPermissionOrIO, err)
	}

	e.redirect(filepath.Join(e.gameDir, IndexFileName), out)
	e.log().Info("index persisted",
		"path", out,
		"size", humanize.Bytes(uint64(len(data))),
		"archived", e.working.ArchiveLen(),
		"external", e.working.ExternalLen())
	return out, nil
}

// FileExists reports whether path is a game file.
//
// With includeExternal, files registered as external count as well; with
// verifyOnDisk they only count when the file they resolve to exists. Paths
// not found as external files fall back to the archive table.
func (e *Engine) FileExists(path string, includeExternal, verifyOnDisk bool) bool {
	e.checkInitialized()
	if path == "" {
		return false
	}

	hash := pathhash.Hash(path)
	if includeExternal {
		if _, ok := e.working.LookupExternal(hash); ok {
			if !verifyOnDisk || fileExists(e.resolveExternal(path)) {
				return true
			}
		}
	}
	_, ok := e.working.LookupArchive(hash)
	return ok
}

// resolveExternal returns the file an external game path is served from.
func (e *Engine) resolveExternal(path string) string {
	if owner, ok := e.owners[pathhash.Normalize(path)]; ok {
		return owner.target
	}
	return filepath.Join(e.dataDir, pathutil.ToOS(path))
}

// ArchiveFile returns the content of path as shipped in the archive blobs,
// ignoring overrides.
func (e *Engine) ArchiveFile(path string) ([]byte, error) {
	e.checkInitialized()

	r, err := e.archiveReader()
	if err != nil {
		return nil, err
	}
	return r.ReadFile(path)
}

// archiveReader returns the archive reader, opening it on first use.
func (e *Engine) archiveReader() (*archive.Reader, error) {
	if e.archive == nil {
		r, err := archive.Open(e.gameDir, e.pristine,
			archive.WithChunkCacheSize(e.chunkCacheSize),
			archive.WithLogger(e.log()))
		if err != nil {
			return nil, err
		}
		e.archive = r
	}
	return e.archive, nil
}

// OverlayOrArchiveFile returns the content of the override registered for
// path, or the archived content when no override provides it.
func (e *Engine) OverlayOrArchiveFile(path string) ([]byte, error) {
	e.checkInitialized()

	if owner, ok := e.owners[pathhash.Normalize(path)]; ok {
		data, err := os.ReadFile(owner.target)
		if err != nil {
			return nil, fmt.Errorf("read override %s: %w", path, err)
		}
		return data, nil
	}
	return e.ArchiveFile(path)
}

// AddOrUpdateExternalFile registers data as the content of gamePath. The
// bytes are written to the scratch directory of UnspecifiedSource first.
func (e *Engine) AddOrUpdateExternalFile(gamePath string, data []byte) error {
	e.checkInitialized()
	gamePath, err := cleanGamePath(gamePath)
	if err != nil {
		return err
	}

	e.log().Info("adding external file", "path", gamePath, "size", humanize.Bytes(uint64(len(data))))
	scratch := filepath.Join(e.tempDir(), UnspecifiedSource, filepath.FromSlash(gamePath))
	if err := fileops.WriteFileAtomic(scratch, data); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrPermissionOrIO, scratch, err)
	}
	return e.addExternal(gamePath, scratch)
}

// AddOrUpdateExternalLocalFile registers the file at localPath as the
// content of gamePath.
func (e *Engine) AddOrUpdateExternalLocalFile(gamePath, localPath string) error {
	e.checkInitialized()
	gamePath, err := cleanGamePath(gamePath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(localPath); err != nil {
		return fmt.Errorf("add %s: %w", gamePath, err)
	}

	e.log().Info("adding external file", "path", gamePath, "from", localPath)
	return e.addExternal(gamePath, localPath)
}

func (e *Engine) addExternal(gamePath, sourcePath string) error {
	e.calls++
	// Content supplied at runtime can change within the cache's one second
	// resolution.
	e.cache.Remove(UnspecifiedSource, gamePath)
	sum := Summary{SourceID: UnspecifiedSource}
	res, ok := e.resolve(UnspecifiedSource, sourcePath, gamePath, &sum)
	if !ok {
		return nil
	}
	if res.Kind == Skip {
		e.applySkip(res)
		return nil
	}
	return e.register(UnspecifiedSource, sourcePath, res, &sum)
}

// IndexOutputPath returns where PersistIndex writes the working index.
func (e *Engine) IndexOutputPath() string {
	return filepath.Join(e.tempDir(), IndexFileName)
}

// DataPath returns the game's data directory.
func (e *Engine) DataPath() string {
	e.checkInitialized()
	return e.dataDir
}

// Stats describes the working index.
type Stats struct {
	Codename string
	Archives int
	Chunks   int
	Archived int
	External int
}

// Stats returns counts from the working index.
func (e *Engine) Stats() Stats {
	e.checkInitialized()
	return Stats{
		Codename: e.working.Codename(),
		Archives: e.working.NumArchives(),
		Chunks:   e.working.ChunkLen(),
		Archived: e.working.ArchiveLen(),
		External: e.working.ExternalLen(),
	}
}

// Close releases open archive blobs. The engine stays usable; archives are
// reopened on the next read.
func (e *Engine) Close() error {
	if e.archive == nil {
		return nil
	}
	err := e.archive.Close()
	e.archive = nil
	return err
}

func (e *Engine) tempDir() string {
	return filepath.Join(e.stateDir, TempDirName)
}

func (e *Engine) redirect(from, to string) {
	e.redirector.AddRedirect(from, to)
	if e.printRedirects {
		e.log().Info("redirect", "from", from, "to", to)
	}
}

func cleanGamePath(gamePath string) (string, error) {
	gamePath = pathutil.Clean(gamePath)
	if gamePath == "" {
		return "", fmt.Errorf("%w: empty game path", ErrInvalidArgument)
	}
	return gamePath, nil
}
