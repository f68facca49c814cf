package relink

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meigma/relink/internal/convert"
	"github.com/meigma/relink/internal/filecache"
	"github.com/meigma/relink/internal/fileops"
)

// ResultKind says how an override file is served.
type ResultKind uint8

const (
	// PassThrough serves the source file unchanged.
	PassThrough ResultKind = iota

	// Produced serves a file the transform wrote to the scratch directory.
	Produced

	// Skip does not register the file. A non-empty Result.Target still gets
	// a direct redirect from the game path.
	Skip
)

// String returns the result kind name.
func (k ResultKind) String() string {
	switch k {
	case Produced:
		return "produced"
	case Skip:
		return "skip"
	default:
		return "pass-through"
	}
}

// Result is the outcome of a Transform.
type Result struct {
	Kind ResultKind

	// GamePath is the '/'-separated game path the file is served under.
	GamePath string

	// Target is the file on disk the game path resolves to.
	Target string
}

// TransformContext carries per-file state into a Transform.
type TransformContext struct {
	// SourceID identifies the override source being ingested.
	SourceID string

	// ModTime is the source file's modification time.
	ModTime time.Time

	// ScratchDir is where produced files for this source are written.
	ScratchDir string

	// Cache records produced files so unchanged sources are not converted again.
	Cache *filecache.Registry

	Logger  *slog.Logger
	Verbose bool
}

// ScratchPath returns where a produced file for gamePath is written.
func (tc *TransformContext) ScratchPath(gamePath string) string {
	return filepath.Join(tc.ScratchDir, filepath.FromSlash(gamePath))
}

func (tc *TransformContext) log() *slog.Logger {
	if tc.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return tc.Logger
}

// Transform decides how one override file is served.
//
// A transform that fails returns the fallback result together with an error
// wrapping ErrTransform; the caller logs the error and uses the result.
type Transform func(tc *TransformContext, sourcePath, gamePath string) (Result, error)

// TransformRegistry maps a lower-case file extension, including the dot, to
// its transform. Extensions without an entry are passed through.
type TransformRegistry map[string]Transform

// Register sets the transform for ext.
func (r TransformRegistry) Register(ext string, t Transform) {
	r[strings.ToLower(ext)] = t
}

// Lookup returns the transform for the extension of gamePath.
func (r TransformRegistry) Lookup(gamePath string) Transform {
	if t, ok := r[strings.ToLower(filepath.Ext(gamePath))]; ok {
		return t
	}
	return PassThroughTransform
}

// DefaultTransforms returns the built-in transforms for the enabled conversions.
func DefaultTransforms(upgradeModelInfo, jsonToMsgPack, xmlToBXM bool) TransformRegistry {
	r := make(TransformRegistry)
	if upgradeModelInfo {
		r.Register(".minfo", ModelInfoTransform)
	}
	if jsonToMsgPack {
		r.Register(".json", JSONToMsgPackTransform)
		r.Register(".msg", SkipMsgWithJSONSource)
	}
	if xmlToBXM {
		r.Register(".xml", XMLToBXMTransform)
	}
	return r
}

// PassThroughTransform serves the source file unchanged.
func PassThroughTransform(_ *TransformContext, sourcePath, gamePath string) (Result, error) {
	return Result{Kind: PassThrough, GamePath: gamePath, Target: sourcePath}, nil
}

// ModelInfoTransform patches outdated model-info magic numbers.
func ModelInfoTransform(tc *TransformContext, sourcePath, gamePath string) (Result, error) {
	res, err := produce(tc, sourcePath, gamePath, gamePath, convert.UpgradeModelInfo,
		"upgraded model info for compatibility")
	if err != nil {
		return Result{Kind: PassThrough, GamePath: gamePath, Target: sourcePath}, err
	}
	return res, nil
}

// JSONToMsgPackTransform converts JSON to MessagePack served under ".msg".
// On failure the JSON file itself is still served under the ".msg" path.
func JSONToMsgPackTransform(tc *TransformContext, sourcePath, gamePath string) (Result, error) {
	msgPath := convert.MsgGamePath(gamePath)
	res, err := produce(tc, sourcePath, gamePath, msgPath, always(convert.JSONToMsgPack),
		"converted json to msgpack")
	if err != nil {
		return Result{Kind: PassThrough, GamePath: msgPath, Target: sourcePath}, err
	}
	return res, nil
}

// XMLToBXMTransform converts XML to binary XML served under ".bxm".
func XMLToBXMTransform(tc *TransformContext, sourcePath, gamePath string) (Result, error) {
	res, err := produce(tc, sourcePath, gamePath, convert.BXMGamePath(gamePath), always(convert.XMLToBXM),
		"converted xml to binary xml")
	if err != nil {
		return Result{Kind: PassThrough, GamePath: gamePath, Target: sourcePath}, err
	}
	return res, nil
}

// SkipMsgWithJSONSource skips a .msg file that has a .json sibling, since the
// sibling is converted to the same game path.
func SkipMsgWithJSONSource(tc *TransformContext, sourcePath, gamePath string) (Result, error) {
	sibling := strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + ".json"
	if fileExists(sibling) {
		tc.log().Warn("ignoring file, its .json source is converted instead",
			"path", gamePath, "source", tc.SourceID)
		return Result{Kind: Skip, GamePath: gamePath, Target: sourcePath}, nil
	}
	return PassThroughTransform(tc, sourcePath, gamePath)
}

// convertFunc converts source bytes. It returns ok=false when the source
// can be served unchanged.
type convertFunc func(data []byte) (out []byte, ok bool, err error)

func always(conv func([]byte) ([]byte, error)) convertFunc {
	return func(data []byte) ([]byte, bool, error) {
		out, err := conv(data)
		return out, err == nil, err
	}
}

// produce runs conv on sourcePath and writes the result to the scratch path
// of outGamePath, unless the cache says an earlier output is still current.
// Cache entries are keyed by the source game path.
func produce(tc *TransformContext, sourcePath, gamePath, outGamePath string, conv convertFunc, what string) (Result, error) {
	out := tc.ScratchPath(outGamePath)
	if e, ok := tc.Cache.TryGetIfCurrent(tc.SourceID, gamePath, tc.ModTime); ok && fileExists(out) {
		e.Used = true
		if tc.Verbose {
			tc.log().Info("already up to date", "path", outGamePath, "source", tc.SourceID)
		}
		return Result{Kind: Produced, GamePath: outGamePath, Target: out}, nil
	}

	data, err := os.ReadFile(sourcePath) //nolint:gosec // source files come from the override folder
	if err != nil {
		return Result{}, fmt.Errorf("%w: read %s: %w", ErrTransform, sourcePath, err)
	}
	converted, ok, err := conv(data)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", gamePath, err)
	}
	if !ok {
		return Result{Kind: PassThrough, GamePath: gamePath, Target: sourcePath}, nil
	}
	if err := fileops.WriteFileAtomic(out, converted); err != nil {
		return Result{}, fmt.Errorf("%w: write %s: %w", ErrTransform, out, err)
	}

	tc.Cache.AddEntry(tc.SourceID, gamePath, tc.ModTime).Used = true
	tc.log().Info(what, "path", gamePath, "output", outGamePath, "source", tc.SourceID)
	return Result{Kind: Produced, GamePath: outGamePath, Target: out}, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
