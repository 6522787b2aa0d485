package constants

// Archive Naming
//
// Archive names follow "<project>-<YYYYMMDD>-<HHMMSS>.tar.gz". The timestamp is
// zero-padded and fixed width, so sorting names in descending lexicographic
// order yields the most recent archive first.
const (
	// ArchiveTimestampLayout is the Go time layout for the archive timestamp (YYYYMMDD-HHMMSS).
	ArchiveTimestampLayout = "20060102-150405"

	// ArchiveExtension is the suffix of every archive name.
	ArchiveExtension = ".tar.gz"

	// ArchiveNameSeparator separates the project name from the timestamp.
	ArchiveNameSeparator = "-"
)

// Archive Container
const (
	// ArchiveMimeType is the content type used when uploading archives.
	ArchiveMimeType = "application/tar+gzip"

	// GzipMimeType is the detected content type of a gzip stream.
	GzipMimeType = "application/gzip"
)
