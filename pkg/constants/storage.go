package constants

// Size Constants
//
// Standard binary size units (powers of 1024, not 1000).
const (
	// KB is one kilobyte (1,024 bytes).
	KB = 1024

	// MB is one megabyte (1,024 kilobytes = 1,048,576 bytes).
	MB = 1024 * KB

	// GB is one gigabyte (1,024 megabytes = 1,073,741,824 bytes).
	GB = 1024 * MB
)

// Buffer Sizes
const (
	// CopyBufferSize is the buffer size for local file copy operations.
	// 32KB provides good balance between memory usage and I/O performance.
	CopyBufferSize = 32 * KB
)

// File Permissions
//
// Standard Unix file permission constants.
const (
	// DefaultFilePermission is the default permission mode for created files (rw-r--r--).
	DefaultFilePermission = 0o644

	// DefaultDirPermission is the default permission mode for created directories (rwxr-xr-x).
	DefaultDirPermission = 0o755

	// PrivateDirPermission is used for the application directory (rwx------).
	// It holds OAuth2 tokens and client secrets.
	PrivateDirPermission = 0o700

	// PrivateFilePermission is used for cached credentials (rw-------).
	PrivateFilePermission = 0o600
)
