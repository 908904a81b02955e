// Package config groups named constants shared between the CLI and the
// compiler/VM packages, mirroring how the rest of the toolchain keeps
// file-extension and exit-status conventions in one place.
package config

// SourceFileExt is the canonical extension for this dialect's scripts.
const SourceFileExt = ".ls"

// SourceFileExtensions are all extensions recognised as script source. The
// CLI does not consult them; it reads whatever input path it is given.
var SourceFileExtensions = []string{".ls", ".lingo"}

// CLI exit codes, per the command's documented contract.
const (
	ExitOK        = 0
	ExitRunError  = 1 // lex, parse, emit, or runtime error
	ExitArgsError = 2
)

// Environment-query defaults. The standalone host returns
// DefaultDirSeparator for `the dirseparator` when no config overrides it;
// DefaultPlatform is not consulted there, as `the platform` falls back to
// the Go runtime's GOOS.
const (
	DefaultDirSeparator = "/"
	DefaultPlatform     = "unknown"
)
