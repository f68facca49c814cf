package relink

import (
	"log/slog"

	"github.com/meigma/relink/redirect"
)

// Option configures an Engine.
type Option func(*Engine)

// WithStateDir sets where the engine keeps its cache registry and produced
// files. The default is <gameDir>/.relink.
func WithStateDir(dir string) Option {
	return func(e *Engine) {
		e.stateDir = dir
	}
}

// WithLogger sets the logger for engine activity.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRedirector sets the collaborator that applies path redirects.
// By default redirects are discarded.
func WithRedirector(r redirect.Redirector) Option {
	return func(e *Engine) {
		if r != nil {
			e.redirector = r
		}
	}
}

// WithModelInfoUpgrade controls whether outdated .minfo files are patched.
// Enabled by default.
func WithModelInfoUpgrade(enabled bool) Option {
	return func(e *Engine) {
		e.upgradeModelInfo = enabled
	}
}

// WithJSONToMsgPack controls whether .json files are converted to .msg.
// Enabled by default.
func WithJSONToMsgPack(enabled bool) Option {
	return func(e *Engine) {
		e.convertJSON = enabled
	}
}

// WithXMLToBXM controls whether .xml files are converted to .bxm.
// Enabled by default.
func WithXMLToBXM(enabled bool) Option {
	return func(e *Engine) {
		e.convertXML = enabled
	}
}

// WithPrintRedirects logs every redirect at info level.
func WithPrintRedirects(enabled bool) Option {
	return func(e *Engine) {
		e.printRedirects = enabled
	}
}

// WithVerbose logs per-file registration and cache hits at info level.
func WithVerbose(enabled bool) Option {
	return func(e *Engine) {
		e.verbose = enabled
	}
}

// WithIgnorePatterns skips source files whose folder-relative path matches
// any of the doublestar patterns (for example "**/.git/**").
func WithIgnorePatterns(patterns ...string) Option {
	return func(e *Engine) {
		e.ignore = append(e.ignore, patterns...)
	}
}

// WithChunkCacheSize sets how many decompressed archive chunks are cached.
// Use 0 to disable caching.
func WithChunkCacheSize(n int) Option {
	return func(e *Engine) {
		e.chunkCacheSize = n
	}
}

// WithTransform registers t for files with extension ext (including the
// dot, case-insensitive), replacing any built-in transform for it.
func WithTransform(ext string, t Transform) Option {
	return func(e *Engine) {
		if e.customTransforms == nil {
			e.customTransforms = make(TransformRegistry)
		}
		e.customTransforms.Register(ext, t)
	}
}
