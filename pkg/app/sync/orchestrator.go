package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sgaunet/gdsync/pkg/archive"
	"github.com/sgaunet/gdsync/pkg/catalog"
	"github.com/sgaunet/gdsync/pkg/config"
	"github.com/sgaunet/gdsync/pkg/constants"
	"github.com/sgaunet/gdsync/pkg/project"
	"github.com/sgaunet/gdsync/pkg/storage"
	"github.com/sgaunet/gdsync/pkg/storage/localstorage"
)

var (
	// ErrAlreadyExists is returned when pull would overwrite a local file or directory.
	ErrAlreadyExists = errors.New("project already exists locally")
	// ErrRemote wraps every failure reported by the remote catalog.
	ErrRemote = errors.New("remote catalog error")
)

// Options tunes an Orchestrator. The zero value is usable.
type Options struct {
	// DestDir receives pulled projects. Defaults to the current directory.
	DestDir string
	// Progress receives user-visible progress. Defaults to a no-op reporter.
	Progress ProgressReporter
	// Logger receives debug output. Defaults to a discarding logger.
	Logger *slog.Logger
	// Clock stamps archive names. Defaults to the real clock.
	Clock archive.Clock
}

// Orchestrator runs push and pull batches against a catalog.
//
// Items are processed one at a time, in order. The first error ends the
// batch; an archive not found on pull is not an error.
type Orchestrator struct {
	catalog  catalog.Catalog
	cfg      *config.Config
	destDir  string
	progress ProgressReporter
	log      *slog.Logger
	clock    archive.Clock
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(c catalog.Catalog, cfg *config.Config, opts Options) *Orchestrator {
	o := &Orchestrator{
		catalog:  c,
		cfg:      cfg,
		destDir:  opts.DestDir,
		progress: opts.Progress,
		log:      opts.Logger,
		clock:    opts.Clock,
	}
	if o.destDir == "" {
		o.destDir = "."
	}
	if o.progress == nil {
		o.progress = NewNoOpProgressReporter()
	}
	if o.log == nil {
		o.log = slog.New(slog.DiscardHandler)
	}
	if o.clock == nil {
		o.clock = archive.RealClock{}
	}
	return o
}

// Push archives and uploads every path.
func (o *Orchestrator) Push(ctx context.Context, paths []string) (*Result, error) {
	startTime := time.Now()
	result := &Result{}
	defer func() { result.Duration = time.Since(startTime) }()

	for _, path := range paths {
		if err := o.pushOne(ctx, path, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (o *Orchestrator) pushOne(ctx context.Context, path string, result *Result) error {
	fail := func(phase Phase, err error) error {
		o.progress.FailPhase(path, phase, err)
		result.addError(phase, path, err.Error())
		return err
	}

	o.progress.StartPhase(path, PhaseResolve)
	p, err := project.FromPath(path, o.cfg)
	if err != nil {
		return fail(PhaseResolve, err)
	}
	o.progress.CompletePhase(path, PhaseResolve)
	item := p.Name

	if o.cfg.Hooks.HasPrePush() {
		if p.LocalPath == "" {
			o.progress.SkipPhase(item, PhasePrePush, "project not found locally")
		} else {
			o.progress.StartPhase(item, PhasePrePush)
			if err := o.cfg.Hooks.ExecutePrePush(ctx, p.LocalPath); err != nil {
				return fail(PhasePrePush, err)
			}
			o.progress.CompletePhase(item, PhasePrePush)
		}
	}

	o.progress.StartPhase(item, PhasePushFolder)
	folderID, err := o.catalog.FindOrCreateFolder(ctx, p.RemoteFolder)
	if err != nil {
		return fail(PhasePushFolder, fmt.Errorf("%w: %w", ErrRemote, err))
	}
	o.log.Debug("syncing to folder", "folder", p.RemoteFolder, "folderID", folderID)
	o.progress.CompletePhase(item, PhasePushFolder)

	o.progress.StartPhase(item, PhaseArchive)
	a, err := archive.Create(ctx, path, archive.Options{
		Clock:   o.clock,
		Exclude: o.cfg.Exclude,
		Logger:  o.log,
	})
	if err != nil {
		return fail(PhaseArchive, err)
	}
	o.log.Debug("created project archive", "archive", a.Name, "size", a.Size(), "members", len(a.Members))
	o.progress.CompletePhase(item, PhaseArchive)

	o.progress.StartPhase(item, PhaseUpload)
	fileID, err := o.catalog.Upload(ctx, folderID, a.Name, bytes.NewReader(a.Data), a.Size())
	if err != nil {
		return fail(PhaseUpload, fmt.Errorf("%w: %w", ErrRemote, err))
	}
	o.progress.CompletePhase(item, PhaseUpload)

	if p.ShouldBackup() {
		o.progress.StartPhase(item, PhaseBackup)
		// The archive is already safe remotely: a failed local copy is only a warning.
		if err := o.saveBackup(ctx, p.BackupDir, a); err != nil {
			o.progress.FailPhase(item, PhaseBackup, err)
			result.addWarning(fmt.Sprintf("failed to save backup copy of %s: %v", a.Name, err))
		} else {
			o.progress.CompletePhase(item, PhaseBackup)
		}
	}

	if o.cfg.Hooks.HasPostPush() {
		o.progress.StartPhase(item, PhasePostPush)
		if err := o.cfg.Hooks.ExecutePostPush(ctx, a.Name); err != nil {
			return fail(PhasePostPush, err)
		}
		o.progress.CompletePhase(item, PhasePostPush)
	}

	done := ItemResult{
		Project:   p.Name,
		Status:    StatusPushed,
		Archive:   a.Name,
		FolderID:  folderID,
		FileID:    fileID,
		Bytes:     a.Size(),
		Members:   len(a.Members),
		LocalPath: p.LocalPath,
	}
	result.addItem(done)
	o.progress.CompleteItem(done)
	return nil
}

func (o *Orchestrator) saveBackup(ctx context.Context, dir string, a *archive.Archive) error {
	if err := os.MkdirAll(dir, constants.DefaultDirPermission); err != nil {
		return fmt.Errorf("failed to create backup directory %s: %w", dir, err)
	}
	var store storage.Storage = localstorage.NewLocalStorage(dir)
	if err := store.SaveFile(ctx, bytes.NewReader(a.Data), a.Name, a.Size()); err != nil {
		return fmt.Errorf("failed to save backup %s: %w", a.Name, err)
	}
	return nil
}

// Pull downloads and extracts the latest archive of every name into the
// destination directory.
func (o *Orchestrator) Pull(ctx context.Context, names []string) (*Result, error) {
	startTime := time.Now()
	result := &Result{}
	defer func() { result.Duration = time.Since(startTime) }()

	for _, name := range names {
		if err := o.pullOne(ctx, name, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (o *Orchestrator) pullOne(ctx context.Context, name string, result *Result) error {
	fail := func(phase Phase, err error) error {
		o.progress.FailPhase(name, phase, err)
		result.addError(phase, name, err.Error())
		return err
	}

	o.progress.StartPhase(name, PhaseResolve)
	p, err := project.FromName(name, o.cfg)
	if err != nil {
		return fail(PhaseResolve, err)
	}
	o.progress.CompletePhase(name, PhaseResolve)

	o.progress.StartPhase(name, PhaseCheck)
	target := filepath.Join(o.destDir, p.Name)
	if _, err := os.Lstat(target); err == nil {
		return fail(PhaseCheck, fmt.Errorf("%w: %s, please delete it before proceeding", ErrAlreadyExists, target))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fail(PhaseCheck, fmt.Errorf("failed to check %s: %w", target, err))
	}
	o.progress.CompletePhase(name, PhaseCheck)

	o.progress.StartPhase(name, PhasePullFolder)
	folderID, err := o.catalog.FindOrCreateFolder(ctx, p.RemoteFolder)
	if err != nil {
		return fail(PhasePullFolder, fmt.Errorf("%w: %w", ErrRemote, err))
	}
	o.log.Debug("syncing from folder", "folder", p.RemoteFolder, "folderID", folderID)
	o.progress.CompletePhase(name, PhasePullFolder)

	o.progress.StartPhase(name, PhaseLookup)
	ref, err := o.catalog.FindLatest(ctx, folderID, p.Name)
	if err != nil {
		return fail(PhaseLookup, fmt.Errorf("%w: %w", ErrRemote, err))
	}
	if ref == nil {
		o.progress.SkipPhase(name, PhaseLookup, "no archive found")
		notFound := ItemResult{Project: p.Name, Status: StatusNotFound, FolderID: folderID}
		result.addItem(notFound)
		o.progress.CompleteItem(notFound)
		return nil
	}
	if _, ts, err := archive.ParseName(ref.Name); err == nil {
		o.log.Debug("found archive", "archive", ref.Name, "fileID", ref.ID, "created", ts)
	}
	o.progress.CompletePhase(name, PhaseLookup)

	o.progress.StartPhase(name, PhaseDownload)
	data, err := o.catalog.Download(ctx, ref.ID)
	if err != nil {
		return fail(PhaseDownload, fmt.Errorf("%w: %w", ErrRemote, err))
	}
	o.progress.CompletePhase(name, PhaseDownload)

	o.progress.StartPhase(name, PhaseExtract)
	verified, err := archive.Unpack(ctx, data, p.Name, o.destDir)
	if err != nil {
		return fail(PhaseExtract, err)
	}
	o.log.Debug("extracted archive", "root", verified.Root(), "bytes", verified.ContentSize(), "members", len(verified.Members()))
	o.progress.CompletePhase(name, PhaseExtract)

	absTarget, err := filepath.Abs(target)
	if err != nil {
		absTarget = target
	}
	if o.cfg.Hooks.HasPostPull() {
		o.progress.StartPhase(name, PhasePostPull)
		if err := o.cfg.Hooks.ExecutePostPull(ctx, absTarget); err != nil {
			return fail(PhasePostPull, err)
		}
		o.progress.CompletePhase(name, PhasePostPull)
	}

	done := ItemResult{
		Project:   p.Name,
		Status:    StatusPulled,
		Archive:   ref.Name,
		FolderID:  folderID,
		FileID:    ref.ID,
		Bytes:     int64(len(data)),
		Members:   len(verified.Members()),
		LocalPath: absTarget,
	}
	result.addItem(done)
	o.progress.CompleteItem(done)
	return nil
}
