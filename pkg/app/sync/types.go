// Package sync orchestrates push and pull of projects against a remote catalog.
package sync

import (
	"time"
)

// Phase identifies a step of a push or pull.
type Phase string

const (
	// PhaseResolve resolves the project from a path or a name.
	PhaseResolve Phase = "resolve"
	// PhasePrePush runs the pre-push hook.
	PhasePrePush Phase = "pre-push"
	// PhasePushFolder finds or creates the remote folder before upload.
	PhasePushFolder Phase = "push-folder"
	// PhaseArchive builds the in-memory archive.
	PhaseArchive Phase = "archive"
	// PhaseUpload uploads the archive.
	PhaseUpload Phase = "upload"
	// PhaseBackup saves a local copy of the archive.
	PhaseBackup Phase = "backup"
	// PhasePostPush runs the post-push hook.
	PhasePostPush Phase = "post-push"

	// PhaseCheck ensures pull will not overwrite a local file or directory.
	PhaseCheck Phase = "check"
	// PhasePullFolder finds or creates the remote folder before lookup.
	PhasePullFolder Phase = "pull-folder"
	// PhaseLookup finds the latest archive of the project.
	PhaseLookup Phase = "lookup"
	// PhaseDownload downloads the archive.
	PhaseDownload Phase = "download"
	// PhaseExtract verifies then extracts the archive.
	PhaseExtract Phase = "extract"
	// PhasePostPull runs the post-pull hook.
	PhasePostPull Phase = "post-pull"
)

// Status is the outcome of a single item.
type Status string

const (
	// StatusPushed means the archive was uploaded.
	StatusPushed Status = "pushed"
	// StatusPulled means the archive was downloaded and extracted.
	StatusPulled Status = "pulled"
	// StatusNotFound means no archive matched the project name.
	StatusNotFound Status = "not-found"
)

// ItemResult describes the outcome for one project.
type ItemResult struct {
	// Project is the project name.
	Project string
	// Status is the item outcome.
	Status Status
	// Archive is the archive file name, empty when not found.
	Archive string
	// FolderID is the remote folder id.
	FolderID string
	// FileID is the remote file id of the archive.
	FileID string
	// Bytes is the compressed archive size.
	Bytes int64
	// Members is the number of archive members.
	Members int
	// LocalPath is the project directory on disk.
	LocalPath string
}

// Result is the outcome of a batch.
type Result struct {
	// Items lists the items processed before the batch ended, in order.
	Items []ItemResult
	// Errors contains the error that ended the batch, if any.
	Errors []Error
	// Warnings contains non-fatal problems.
	Warnings []string
	// Duration is the total batch duration.
	Duration time.Duration
}

// Error represents an error that occurred during a batch.
type Error struct {
	// Phase indicates which phase the error occurred in.
	Phase Phase
	// Item is the path or name being processed.
	Item string
	// Message is the error message.
	Message string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

// Count returns the number of items with the given status.
func (r *Result) Count(status Status) int {
	n := 0
	for _, item := range r.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}

// Success reports whether the batch completed without error.
func (r *Result) Success() bool {
	return len(r.Errors) == 0
}

func (r *Result) addItem(item ItemResult) {
	r.Items = append(r.Items, item)
}

func (r *Result) addError(phase Phase, item, message string) {
	r.Errors = append(r.Errors, Error{
		Phase:     phase,
		Item:      item,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func (r *Result) addWarning(message string) {
	r.Warnings = append(r.Warnings, message)
}
