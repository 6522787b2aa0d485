package constants

// DefaultFolder is the remote folder used when the config does not name one.
// It must match the env-default tag of config.Config.Folder.
const DefaultFolder = "gdsync-projects"

// Google Drive
//
// Drive enforces per-user query quotas. The limiter keeps gdsync well below
// them even when pushing many projects in one run.
// Reference: https://developers.google.com/drive/api/guides/limits
const (
	// DriveFolderMimeType identifies folders in Drive listings.
	DriveFolderMimeType = "application/vnd.google-apps.folder"

	// DriveRateLimitPerSecond is the sustained request rate towards the Drive API.
	DriveRateLimitPerSecond = 10

	// DriveRateLimitBurst is the maximum number of back-to-back Drive requests.
	DriveRateLimitBurst = 5

	// DriveListPageSize is the page size for file listings.
	DriveListPageSize = 100
)

// Drive OAuth2 scope requested during login.
const DriveScope = "https://www.googleapis.com/auth/drive"

// S3
const (
	// S3FolderMarkerContentType is the content type of zero-byte folder markers.
	S3FolderMarkerContentType = "application/x-directory"

	// S3PartSize is the multipart upload / ranged download part size.
	S3PartSize = 8 * MB

	// S3Concurrency is the number of parts transferred in parallel by the S3 manager.
	S3Concurrency = 5
)
