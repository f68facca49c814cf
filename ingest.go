package relink

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/dustin/go-humanize"

	"github.com/meigma/relink/internal/pathhash"
	"github.com/meigma/relink/internal/pathutil"
)

// Summary reports the outcome of one RegisterSourceFiles call.
type Summary struct {
	SourceID string

	// Files is the number of game paths registered.
	Files int

	// Added and Updated split Files by whether the path was already external.
	Added   int
	Updated int

	// Skipped counts files a transform chose not to register.
	Skipped int

	// Failed counts files whose transform failed and were passed through.
	Failed int

	// Conflicts counts game paths that replaced another provider.
	Conflicts int

	// Bytes is the total size of the registered files.
	Bytes uint64
}

// ownedFile records which source provides a game path.
type ownedFile struct {
	sourceID string
	source   string
	target   string
	call     int
}

// RegisterSourceFiles merges every file under folder into the working index
// as an external file provided by sourceID.
//
// Game paths are folder-relative. Each file is dispatched through the
// transform registry; transform failures are logged and the original file is
// served instead. A game path already provided by another source, or earlier
// in the same call, is taken over by the later file and counted as a
// conflict. Errors walking folder abort the call; files registered before
// the error stay registered.
func (e *Engine) RegisterSourceFiles(sourceID, folder string) (Summary, error) {
	e.checkInitialized()
	if sourceID == "" || folder == "" {
		return Summary{}, fmt.Errorf("%w: source id and folder are required", ErrInvalidArgument)
	}

	info, err := os.Stat(folder)
	if err != nil {
		return Summary{}, fmt.Errorf("register %s: %w", sourceID, err)
	}
	if !info.IsDir() {
		return Summary{}, fmt.Errorf("%w: register %s: %s is not a directory", ErrInvalidArgument, sourceID, folder)
	}

	e.log().Info("registering source files", "source", sourceID, "folder", folder)
	files, err := e.collectFiles(folder)
	if err != nil {
		return Summary{}, fmt.Errorf("register %s: walk %s: %w", sourceID, folder, err)
	}

	e.calls++
	sum := Summary{SourceID: sourceID}
	type pending struct {
		source string
		res    Result
	}
	var toRegister []pending
	for _, rel := range files {
		source := filepath.Join(folder, filepath.FromSlash(rel))
		res, ok := e.resolve(sourceID, source, rel, &sum)
		if !ok {
			continue
		}
		if res.Kind == Skip {
			e.applySkip(res)
			sum.Skipped++
			continue
		}
		toRegister = append(toRegister, pending{source: source, res: res})
	}

	// Skip redirects are applied first so produced files win a shared game path.
	for _, p := range toRegister {
		if err := e.register(sourceID, p.source, p.res, &sum); err != nil {
			e.log().Warn("could not register file", "path", p.res.GamePath, "source", sourceID, "error", err)
			sum.Failed++
		}
	}

	e.log().Info("registered source files",
		"source", sourceID,
		"files", sum.Files,
		"added", sum.Added,
		"updated", sum.Updated,
		"skipped", sum.Skipped,
		"conflicts", sum.Conflicts,
		"size", humanize.Bytes(sum.Bytes))
	return sum, nil
}

// collectFiles returns the folder-relative, '/'-separated paths of the
// regular files under folder in sorted order, minus ignored ones.
func (e *Engine) collectFiles(folder string) ([]string, error) {
	var mu sync.Mutex
	var files []string

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(folder, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if e.ignored(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || e.ignored(rel) {
			return nil
		}

		mu.Lock()
		files = append(files, rel)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// ignored reports whether rel matches an ignore pattern. Malformed patterns
// never match.
func (e *Engine) ignored(rel string) bool {
	for _, p := range e.ignore {
		if matched, err := doublestar.Match(p, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// resolve runs the transform for one source file. It returns false when the
// file cannot be read at all.
func (e *Engine) resolve(sourceID, source, gamePath string, sum *Summary) (Result, bool) {
	info, err := os.Stat(source)
	if err != nil {
		e.log().Warn("could not stat source file", "path", source, "source", sourceID, "error", err)
		sum.Failed++
		return Result{}, false
	}

	tc := &TransformContext{
		SourceID:   sourceID,
		ModTime:    info.ModTime(),
		ScratchDir: filepath.Join(e.tempDir(), sourceID),
		Cache:      e.cache,
		Logger:     e.log(),
		Verbose:    e.verbose,
	}
	res, err := runTransform(e.transforms.Lookup(gamePath), tc, source, gamePath)
	if err != nil {
		e.log().Warn("transform failed, using the original file",
			"path", gamePath, "source", sourceID, "error", err)
		sum.Failed++
	}
	if res.Kind == PassThrough {
		if res.GamePath == "" {
			res.GamePath = gamePath
		}
		if res.Target == "" {
			res.Target = source
		}
		e.cache.AddEntry(sourceID, gamePath, info.ModTime()).Used = true
	}
	return res, true
}

// runTransform calls fn, turning a panic into an ErrTransform failure with
// the pass-through result.
func runTransform(fn Transform, tc *TransformContext, source, gamePath string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Kind: PassThrough, GamePath: gamePath, Target: source}
			err = fmt.Errorf("%w: %s: panic: %v", ErrTransform, gamePath, r)
		}
	}()
	return fn(tc, source, gamePath)
}

// applySkip requests the direct redirect a skipped file still carries.
func (e *Engine) applySkip(res Result) {
	if res.Target != "" {
		e.redirect(e.dataPathFor(res.GamePath), res.Target)
	}
}

// register records res as an external file owned by sourceID.
func (e *Engine) register(sourceID, source string, res Result, sum *Summary) error {
	info, err := os.Stat(res.Target)
	if err != nil {
		return err
	}
	size := uint64(info.Size())

	key := pathhash.Normalize(res.GamePath)
	if prev, ok := e.owners[key]; ok && (prev.call == e.calls || prev.sourceID != sourceID) {
		sum.Conflicts++
		e.log().Warn("potential conflict, game path already provided by another source",
			"path", res.GamePath, "source", sourceID, "previous", prev.sourceID)
	}
	e.owners[key] = ownedFile{sourceID: sourceID, source: source, target: res.Target, call: e.calls}

	if e.working.RegisterExternal(pathhash.Hash(res.GamePath), size) {
		sum.Added++
		if e.verbose {
			e.log().Info("added external file", "path", res.GamePath, "source", sourceID, "kind", res.Kind.String())
		}
	} else {
		sum.Updated++
		if e.verbose {
			e.log().Info("updated external file", "path", res.GamePath, "source", sourceID, "kind", res.Kind.String())
		}
	}
	sum.Files++
	sum.Bytes += size

	e.redirect(e.dataPathFor(res.GamePath), res.Target)
	return nil
}

func (e *Engine) dataPathFor(gamePath string) string {
	return filepath.Join(e.dataDir, pathutil.ToOS(gamePath))
}
