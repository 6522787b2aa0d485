package sync

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestReporter() (*ConsoleProgressReporter, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	return NewConsoleProgressReporter(logger), &buf
}

func TestConsoleProgressReporter_AllPhases(t *testing.T) {
	reporter, _ := newTestReporter()
	phases := []Phase{
		PhaseResolve, PhasePrePush, PhasePushFolder, PhaseArchive, PhaseUpload, PhaseBackup, PhasePostPush,
		PhaseCheck, PhasePullFolder, PhaseLookup, PhaseDownload, PhaseExtract, PhasePostPull,
	}

	assert.NotPanics(t, func() {
		for _, phase := range phases {
			reporter.StartPhase("proj", phase)
			reporter.CompletePhase("proj", phase)
			reporter.FailPhase("proj", phase, errors.New("test error"))
			reporter.SkipPhase("proj", phase, "test")
		}
	})
}

func TestConsoleProgressReporter_Prefixes(t *testing.T) {
	reporter, buf := newTestReporter()

	reporter.StartPhase("proj", PhaseUpload)
	assert.Contains(t, buf.String(), "[PUSH] proj: Uploading archive...")

	buf.Reset()
	reporter.CompletePhase("proj", PhaseExtract)
	assert.Contains(t, buf.String(), "[PULL] proj: Verifying and extracting archive ✓")

	buf.Reset()
	reporter.FailPhase("proj", PhaseDownload, errors.New("boom"))
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "boom")

	buf.Reset()
	reporter.SkipPhase("proj", PhasePrePush, "project not found locally")
	assert.Contains(t, buf.String(), "(skipped: project not found locally)")
}

func TestConsoleProgressReporter_CompleteItem(t *testing.T) {
	reporter, buf := newTestReporter()

	reporter.CompleteItem(ItemResult{
		Project:  "proj",
		Status:   StatusPushed,
		Archive:  "proj-20230615-120000.tar.gz",
		FolderID: "folder",
		FileID:   "file",
		Bytes:    2048,
	})
	assert.Contains(t, buf.String(), "uploaded proj-20230615-120000.tar.gz (2.0 kB) to folder folder")

	buf.Reset()
	reporter.CompleteItem(ItemResult{Project: "proj", Status: StatusPulled, Members: 3, LocalPath: "/tmp/proj"})
	assert.Contains(t, buf.String(), "3 entries) into /tmp/proj")

	buf.Reset()
	reporter.CompleteItem(ItemResult{Project: "missing", Status: StatusNotFound, FolderID: "folder"})
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "[PULL] missing: no archive found in folder folder")
}

func TestGetPhaseMessage_Unknown(t *testing.T) {
	assert.Equal(t, "custom", getPhaseMessage(Phase("custom")))
	assert.Equal(t, "PUSH", phaseOperation(Phase("custom")))
}

func TestNoOpProgressReporter(t *testing.T) {
	reporter := NewNoOpProgressReporter()
	assert.NotPanics(t, func() {
		reporter.StartPhase("proj", PhaseArchive)
		reporter.CompletePhase("proj", PhaseArchive)
		reporter.FailPhase("proj", PhaseArchive, errors.New("test"))
		reporter.SkipPhase("proj", PhaseArchive, "test")
		reporter.CompleteItem(ItemResult{})
	})
}
