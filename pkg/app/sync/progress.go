package sync

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
)

// ProgressReporter provides user-visible progress reporting for push and pull.
type ProgressReporter interface {
	// StartPhase signals the beginning of a phase for item.
	StartPhase(item string, phase Phase)

	// CompletePhase signals successful phase completion.
	CompletePhase(item string, phase Phase)

	// FailPhase signals phase failure.
	FailPhase(item string, phase Phase, err error)

	// SkipPhase signals that a phase was skipped.
	SkipPhase(item string, phase Phase, reason string)

	// CompleteItem reports the final outcome of an item.
	CompleteItem(result ItemResult)
}

// ConsoleProgressReporter implements ProgressReporter with console output.
type ConsoleProgressReporter struct {
	logger *slog.Logger
}

// NewConsoleProgressReporter creates a new console progress reporter.
func NewConsoleProgressReporter(logger *slog.Logger) *ConsoleProgressReporter {
	return &ConsoleProgressReporter{
		logger: logger,
	}
}

// StartPhase logs the start of a phase.
func (r *ConsoleProgressReporter) StartPhase(item string, phase Phase) {
	r.logger.Info(fmt.Sprintf("[%s] %s: %s...", phaseOperation(phase), item, getPhaseMessage(phase)))
}

// CompletePhase logs successful phase completion.
func (r *ConsoleProgressReporter) CompletePhase(item string, phase Phase) {
	r.logger.Info(fmt.Sprintf("[%s] %s: %s ✓", phaseOperation(phase), item, getPhaseMessage(phase)))
}

// FailPhase logs phase failure.
func (r *ConsoleProgressReporter) FailPhase(item string, phase Phase, err error) {
	r.logger.Error(fmt.Sprintf("[%s] %s: %s ✗ %v", phaseOperation(phase), item, getPhaseMessage(phase), err))
}

// SkipPhase logs that a phase was skipped.
func (r *ConsoleProgressReporter) SkipPhase(item string, phase Phase, reason string) {
	r.logger.Info(fmt.Sprintf("[%s] %s: %s (skipped: %s)", phaseOperation(phase), item, getPhaseMessage(phase), reason))
}

// CompleteItem logs the outcome of an item.
func (r *ConsoleProgressReporter) CompleteItem(result ItemResult) {
	switch result.Status {
	case StatusPushed:
		r.logger.Info(fmt.Sprintf("[PUSH] %s: uploaded %s (%s) to folder %s",
			result.Project, result.Archive, humanize.Bytes(uint64(max(result.Bytes, 0))), result.FolderID),
			"fileID", result.FileID)
	case StatusPulled:
		r.logger.Info(fmt.Sprintf("[PULL] %s: extracted %s (%s, %d entries) into %s",
			result.Project, result.Archive, humanize.Bytes(uint64(max(result.Bytes, 0))), result.Members, result.LocalPath),
			"fileID", result.FileID)
	case StatusNotFound:
		r.logger.Warn(fmt.Sprintf("[PULL] %s: no archive found in folder %s", result.Project, result.FolderID))
	}
}

// phaseOperation returns the log prefix of a phase.
func phaseOperation(phase Phase) string {
	switch phase {
	case PhaseCheck, PhasePullFolder, PhaseLookup, PhaseDownload, PhaseExtract, PhasePostPull:
		return "PULL"
	default:
		return "PUSH"
	}
}

// getPhaseMessage returns a human-readable message for each phase.
func getPhaseMessage(phase Phase) string {
	switch phase {
	case PhaseResolve:
		return "Resolving project"
	case PhasePrePush:
		return "Running pre-push hook"
	case PhasePushFolder, PhasePullFolder:
		return "Locating remote folder"
	case PhaseArchive:
		return "Creating archive"
	case PhaseUpload:
		return "Uploading archive"
	case PhaseBackup:
		return "Saving local backup copy"
	case PhasePostPush:
		return "Running post-push hook"
	case PhaseCheck:
		return "Checking local destination"
	case PhaseLookup:
		return "Looking up latest archive"
	case PhaseDownload:
		return "Downloading archive"
	case PhaseExtract:
		return "Verifying and extracting archive"
	case PhasePostPull:
		return "Running post-pull hook"
	default:
		return string(phase)
	}
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Useful for testing or when progress reporting is not desired.
type NoOpProgressReporter struct{}

// NewNoOpProgressReporter creates a new no-op progress reporter.
func NewNoOpProgressReporter() *NoOpProgressReporter {
	return &NoOpProgressReporter{}
}

// StartPhase does nothing.
func (r *NoOpProgressReporter) StartPhase(_ string, _ Phase) {}

// CompletePhase does nothing.
func (r *NoOpProgressReporter) CompletePhase(_ string, _ Phase) {}

// FailPhase does nothing.
func (r *NoOpProgressReporter) FailPhase(_ string, _ Phase, _ error) {}

// SkipPhase does nothing.
func (r *NoOpProgressReporter) SkipPhase(_ string, _ Phase, _ string) {}

// CompleteItem does nothing.
func (r *NoOpProgressReporter) CompleteItem(_ ItemResult) {}
