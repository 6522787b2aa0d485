package constants_test

import (
	"sort"
	"testing"
	"time"

	"github.com/sgaunet/gdsync/pkg/constants"
)

func TestSizeConstants(t *testing.T) {
	tests := []struct {
		name     string
		constant int
		expected int
	}{
		{"KB", constants.KB, 1024},
		{"MB", constants.MB, 1024 * 1024},
		{"GB", constants.GB, 1024 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.constant != tt.expected {
				t.Errorf("%s = %d, want %d", tt.name, tt.constant, tt.expected)
			}
		})
	}
}

func TestBufferSizeConstants(t *testing.T) {
	if constants.CopyBufferSize != 32*constants.KB {
		t.Errorf("CopyBufferSize = %d, want %d (32KB)", constants.CopyBufferSize, 32*constants.KB)
	}
	if constants.S3PartSize < 5*constants.MB {
		t.Errorf("S3PartSize = %d, S3 rejects multipart parts below 5MB", constants.S3PartSize)
	}
}

func TestFilePermissionConstants(t *testing.T) {
	if constants.DefaultFilePermission != 0o644 {
		t.Errorf("DefaultFilePermission = %o, want 0644", constants.DefaultFilePermission)
	}
	if constants.DefaultDirPermission != 0o755 {
		t.Errorf("DefaultDirPermission = %o, want 0755", constants.DefaultDirPermission)
	}
	if constants.PrivateDirPermission != 0o700 {
		t.Errorf("PrivateDirPermission = %o, want 0700", constants.PrivateDirPermission)
	}
	if constants.PrivateFilePermission != 0o600 {
		t.Errorf("PrivateFilePermission = %o, want 0600", constants.PrivateFilePermission)
	}
}

func TestArchiveTimestampLayout(t *testing.T) {
	ts := time.Date(2023, time.January, 2, 3, 4, 5, 0, time.Local)
	if got := ts.Format(constants.ArchiveTimestampLayout); got != "20230102-030405" {
		t.Errorf("timestamp = %s, want 20230102-030405", got)
	}
}

// Names built with the timestamp layout must sort newest first in descending order.
func TestArchiveTimestampOrdering(t *testing.T) {
	times := []time.Time{
		time.Date(2023, time.January, 1, 0, 0, 0, 0, time.Local),
		time.Date(2023, time.June, 15, 12, 0, 0, 0, time.Local),
		time.Date(2023, time.June, 15, 9, 59, 59, 0, time.Local),
		time.Date(2024, time.February, 1, 0, 0, 0, 0, time.Local),
	}
	names := make([]string, 0, len(times))
	for _, ts := range times {
		names = append(names, "p-"+ts.Format(constants.ArchiveTimestampLayout)+constants.ArchiveExtension)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	want := "p-20240201-000000.tar.gz"
	if names[0] != want {
		t.Errorf("newest = %s, want %s", names[0], want)
	}
	if names[len(names)-1] != "p-20230101-000000.tar.gz" {
		t.Errorf("oldest = %s, want p-20230101-000000.tar.gz", names[len(names)-1])
	}
}

func TestRemoteDefaults(t *testing.T) {
	if constants.DefaultFolder != "gdsync-projects" {
		t.Errorf("DefaultFolder = %s, want gdsync-projects", constants.DefaultFolder)
	}
	if constants.ArchiveMimeType != "application/tar+gzip" {
		t.Errorf("ArchiveMimeType = %s, want application/tar+gzip", constants.ArchiveMimeType)
	}
}

func TestOutputConstants(t *testing.T) {
	if constants.SeparatorWidth != 60 {
		t.Errorf("SeparatorWidth = %d, want 60", constants.SeparatorWidth)
	}
	if constants.RedactedValue != "***REDACTED***" {
		t.Errorf("RedactedValue = %s, want ***REDACTED***", constants.RedactedValue)
	}
}
