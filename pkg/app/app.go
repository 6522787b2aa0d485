// Package app wires configuration, credentials and the remote catalog together.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sgaunet/gdsync/pkg/app/sync"
	"github.com/sgaunet/gdsync/pkg/auth"
	"github.com/sgaunet/gdsync/pkg/catalog"
	"github.com/sgaunet/gdsync/pkg/catalog/drivecatalog"
	"github.com/sgaunet/gdsync/pkg/catalog/localcatalog"
	"github.com/sgaunet/gdsync/pkg/catalog/s3catalog"
	"github.com/sgaunet/gdsync/pkg/config"
)

// App runs push and pull with a loaded configuration.
type App struct {
	cfg     *config.Config
	appDir  string
	destDir string
	catalog catalog.Catalog
	log     *slog.Logger
}

// Options configures NewApp. The zero value uses ~/.gdsync and the current directory.
type Options struct {
	// AppDir holds the config file, credentials, token and backups.
	AppDir string
	// ConfigFile overrides <AppDir>/gdsync.json.
	ConfigFile string
	// Remote overrides the configured remote type.
	Remote string
	// DestDir receives pulled projects.
	DestDir string
	// Catalog replaces the configured remote, mostly for tests.
	Catalog catalog.Catalog
}

// NewApp creates the application directory, loads and validates the configuration.
// The remote catalog is only contacted by the first Push or Pull step that needs it.
func NewApp(opts Options) (*App, error) {
	appDir := opts.AppDir
	if appDir == "" {
		var err error
		if appDir, err = config.DefaultAppDir(); err != nil {
			return nil, err
		}
	}
	if err := config.EnsureAppDir(appDir); err != nil {
		return nil, err
	}

	cfg, err := config.Load(appDir, opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.Remote != "" {
		cfg.Remote.Type = opts.Remote
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	destDir := opts.DestDir
	if destDir == "" {
		destDir = "."
	}
	return &App{
		cfg:     cfg,
		appDir:  appDir,
		destDir: destDir,
		catalog: opts.Catalog,
		log:     slog.New(slog.DiscardHandler),
	}, nil
}

// SetLogger sets the logger used for progress and debug output.
func (a *App) SetLogger(l *slog.Logger) {
	a.log = l
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.log
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// AppDir returns the application directory.
func (a *App) AppDir() string {
	return a.appDir
}

// Push archives and uploads every local project path.
func (a *App) Push(ctx context.Context, paths []string) (*sync.Result, error) {
	return a.orchestrator().Push(ctx, paths)
}

// Pull downloads and extracts the latest archive of every project name.
func (a *App) Pull(ctx context.Context, names []string) (*sync.Result, error) {
	return a.orchestrator().Pull(ctx, names)
}

// orchestrator defers connecting to the remote until the first catalog
// call, so local checks fail before any network or OAuth2 traffic.
func (a *App) orchestrator() *sync.Orchestrator {
	if a.catalog == nil {
		a.catalog = catalog.Lazy(a.newCatalog)
	}
	return sync.NewOrchestrator(a.catalog, a.cfg, sync.Options{
		DestDir:  a.destDir,
		Progress: sync.NewConsoleProgressReporter(a.log),
		Logger:   a.log,
	})
}

// newCatalog connects to the configured remote.
func (a *App) newCatalog(ctx context.Context) (catalog.Catalog, error) {
	switch a.cfg.Remote.Type {
	case config.RemoteDrive:
		client, err := auth.NewTokenProvider(a.appDir).Client(ctx)
		if err != nil {
			return nil, err
		}
		c, err := drivecatalog.New(ctx, client)
		if err != nil {
			return nil, err
		}
		a.log.Debug("connected to Google Drive")
		return c, nil
	case config.RemoteS3:
		s3cfg := a.cfg.Remote.S3
		c, err := s3catalog.New(ctx, s3catalog.Options{
			Endpoint:        s3cfg.Endpoint,
			Region:          s3cfg.Region,
			Bucket:          s3cfg.BucketName,
			Prefix:          s3cfg.BucketPath,
			AccessKeyID:     s3cfg.AccessKey,
			SecretAccessKey: s3cfg.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		if err := c.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		a.log.Debug("connected to S3", "bucket", s3cfg.BucketName, "endpoint", s3cfg.Endpoint)
		return c, nil
	case config.RemoteLocal:
		a.log.Debug("using local remote", "path", a.cfg.Remote.LocalPath)
		return localcatalog.New(a.cfg.Remote.LocalPath), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownRemote, a.cfg.Remote.Type)
	}
}
