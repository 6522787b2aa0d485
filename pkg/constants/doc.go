// Package constants provides centralized configuration constants for the gdsync project.
//
// This package consolidates hard-coded values, limits, and formats
// from across the codebase into a single source of truth.
//
// Organization:
//   - archive.go: archive naming and container format constants
//   - remote.go: remote catalog constants (MIME types, rate limits, defaults)
//   - storage.go: size units, buffer sizes, file permissions
//   - output.go: CLI output formatting constants
//
// Modifying Constants:
// The archive naming constants are shared with archives already stored remotely.
// Changing ArchiveTimestampLayout or ArchiveExtension breaks "latest" lookup
// for existing archives: descending name order must stay equal to
// reverse-chronological order.
package constants
