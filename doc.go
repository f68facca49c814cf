//go:generate flatc --go --go-namespace fb -o internal schema/index.fbs

// Package relink manages a game's virtual file index.
//
// The game ships a FlatBuffers index (data.i) that maps hashed file paths
// either to chunks inside LZ4-compressed archive blobs (data.0, data.1, ...)
// or to loose "external" files under the data directory. An [Engine] loads
// the shipped index as a pristine baseline, merges folders of override files
// into a working copy and writes the result to its own state directory, so
// the shipped files are never modified.
//
// # Quick Start
//
//	table := redirect.NewTable()
//	e := relink.New("/games/relink",
//	    relink.WithStateDir("/games/relink/.relink"),
//	    relink.WithRedirector(table),
//	)
//	if err := e.Initialize(); err != nil {
//	    return err
//	}
//	defer e.Close()
//
//	if _, err := e.RegisterSourceFiles("my-mod", "/mods/my-mod/data"); err != nil {
//	    return err
//	}
//	indexPath, err := e.PersistIndex()
//
// # Transforms
//
// Override files are dispatched by extension through a [TransformRegistry].
// The built-in transforms upgrade outdated .minfo model descriptors, convert
// .json to MessagePack (.msg) and .xml to binary XML (.bxm). Converted files
// are written to a per-source scratch directory and cached by modification
// time, so unchanged files are not converted again on the next run.
//
// # Redirects
//
// The engine never intercepts file access. Every decision to serve a loose
// file in place of a game path is reported to a [redirect.Redirector].
//
// # Extraction
//
// [Engine.ArchiveFile] reads one shipped file. [Engine.ExtractArchiveFiles]
// writes many of them to a directory, decompressing each chunk once.
package relink
