package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sgaunet/gdsync/pkg/config"
	"github.com/sgaunet/gdsync/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigFromFile(t *testing.T) {
	t.Run("normal case", func(t *testing.T) {
		cfg, err := config.NewConfigFromFile("testdata/good-cfg.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)
		require.Equal(t, "0.1a", cfg.Version)
		require.Equal(t, "my-projects", cfg.Folder)
		require.Equal(t, "/var/backups/gdsync", cfg.Backups.Dir)
		require.Equal(t, config.RemoteS3, cfg.Remote.Type)
		require.Equal(t, "mybucket", cfg.Remote.S3.BucketName)
		require.Equal(t, "myregion", cfg.Remote.S3.Region)
		require.Equal(t, "myendpoint", cfg.Remote.S3.Endpoint)
		require.Equal(t, "mybucketpath", cfg.Remote.S3.BucketPath)
		require.Equal(t, "myaccesskey", cfg.Remote.S3.AccessKey)
		require.Equal(t, "mysecretkey", cfg.Remote.S3.SecretKey)
		require.Equal(t, "echo prepush", cfg.Hooks.PrePush)
		require.Equal(t, "echo postpush %ARCHIVE%", cfg.Hooks.PostPush)
		require.Equal(t, "echo postpull %PROJECT_DIR%", cfg.Hooks.PostPull)
		require.Equal(t, []string{"node_modules", "*.pyc"}, cfg.Exclude)
		require.True(t, cfg.NoLogTime)
		require.NoError(t, cfg.Validate())
	})
	t.Run("legacy json", func(t *testing.T) {
		cfg, err := config.NewConfigFromFile("testdata/legacy.json")
		require.NoError(t, err)
		require.Equal(t, "0.1a", cfg.Version)
		require.Equal(t, constants.DefaultFolder, cfg.Folder)
		require.Equal(t, config.RemoteDrive, cfg.Remote.Type)
		require.Empty(t, cfg.Backups.Dir)
		require.NoError(t, cfg.Validate())
	})
	t.Run("file not found", func(t *testing.T) {
		_, err := config.NewConfigFromFile("testdata/unknown.yaml")
		require.Error(t, err)
	})
	t.Run("invalid yaml", func(t *testing.T) {
		_, err := config.NewConfigFromFile("testdata/invalid-cfg.yaml")
		require.Error(t, err)
	})
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("GDSYNC_FOLDER", "from-env")
	cfg, err := config.NewConfigFromFile("testdata/good-cfg.yaml")
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Folder)
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.NewConfigFromEnv()
		require.NoError(t, err)
		require.Equal(t, "0.1a", cfg.Version)
		require.Equal(t, constants.DefaultFolder, cfg.Folder)
		require.Equal(t, config.RemoteDrive, cfg.Remote.Type)
		require.Empty(t, cfg.Exclude)
	})
	t.Run("valid environment variables", func(t *testing.T) {
		t.Setenv("GDSYNC_FOLDER", "envfolder")
		t.Setenv("GDSYNC_REMOTE", "local")
		t.Setenv("GDSYNC_LOCAL_REMOTE", "/mnt/share")
		t.Setenv("GDSYNC_BACKUPS_DIR", "/backups")
		t.Setenv("GDSYNC_EXCLUDE", "node_modules,*.pyc")
		t.Setenv("PREPUSH", "echo pre")
		t.Setenv("POSTPUSH", "echo post")
		t.Setenv("POSTPULL", "echo pulled")
		t.Setenv("NOLOGTIME", "true")

		cfg, err := config.NewConfigFromEnv()
		require.NoError(t, err)
		require.Equal(t, "envfolder", cfg.Folder)
		require.Equal(t, config.RemoteLocal, cfg.Remote.Type)
		require.Equal(t, "/mnt/share", cfg.Remote.LocalPath)
		require.Equal(t, "/backups", cfg.Backups.Dir)
		require.Equal(t, []string{"node_modules", "*.pyc"}, cfg.Exclude)
		require.Equal(t, "echo pre", cfg.Hooks.PrePush)
		require.Equal(t, "echo post", cfg.Hooks.PostPush)
		require.Equal(t, "echo pulled", cfg.Hooks.PostPull)
		require.True(t, cfg.NoLogTime)
		require.NoError(t, cfg.Validate())
	})
}

func TestLoad(t *testing.T) {
	t.Run("explicit file", func(t *testing.T) {
		cfg, err := config.Load(t.TempDir(), "testdata/good-cfg.yaml")
		require.NoError(t, err)
		require.Equal(t, "my-projects", cfg.Folder)
	})
	t.Run("app dir file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFile),
			[]byte(`{"version":"0.1a","folder":"from-app-dir"}`), 0o600))
		cfg, err := config.Load(dir, "")
		require.NoError(t, err)
		require.Equal(t, "from-app-dir", cfg.Folder)
	})
	t.Run("no file", func(t *testing.T) {
		cfg, err := config.Load(t.TempDir(), "")
		require.NoError(t, err)
		require.Equal(t, constants.DefaultFolder, cfg.Folder)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr error
	}{
		{
			name: "drive",
			cfg:  config.Config{Folder: "f", Remote: config.RemoteConfig{Type: config.RemoteDrive}},
		},
		{
			name:    "s3 without bucket",
			cfg:     config.Config{Folder: "f", Remote: config.RemoteConfig{Type: config.RemoteS3}},
			wantErr: config.ErrNoRemote,
		},
		{
			name: "s3",
			cfg: config.Config{Folder: "f", Remote: config.RemoteConfig{
				Type: config.RemoteS3,
				S3:   config.S3Config{BucketName: "b", Region: "r"},
			}},
		},
		{
			name:    "local without path",
			cfg:     config.Config{Folder: "f", Remote: config.RemoteConfig{Type: config.RemoteLocal}},
			wantErr: config.ErrNoRemote,
		},
		{
			name:    "unknown remote",
			cfg:     config.Config{Folder: "f", Remote: config.RemoteConfig{Type: "ftp"}},
			wantErr: config.ErrUnknownRemote,
		},
		{
			name:    "empty folder",
			cfg:     config.Config{Remote: config.RemoteConfig{Type: config.RemoteDrive}},
			wantErr: config.ErrInvalidFolder,
		},
		{
			name:    "nested folder",
			cfg:     config.Config{Folder: "a/b", Remote: config.RemoteConfig{Type: config.RemoteDrive}},
			wantErr: config.ErrInvalidFolder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := config.Config{
		Folder: "f",
		Remote: config.RemoteConfig{
			Type: config.RemoteS3,
			S3:   config.S3Config{AccessKey: "AKIAEXAMPLE", SecretKey: "supersecret"},
		},
	}

	out := cfg.Redacted()
	assert.NotContains(t, out, "AKIAEXAMPLE")
	assert.NotContains(t, out, "supersecret")
	assert.Contains(t, out, "***REDACTED***")
	// The receiver is untouched.
	assert.Equal(t, "supersecret", cfg.Remote.S3.SecretKey)
}

func TestEnsureAppDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".gdsync")
	require.NoError(t, config.EnsureAppDir(dir))
	require.NoError(t, config.EnsureAppDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	assert.DirExists(t, filepath.Join(dir, config.BackupDir))
}

func TestDefaultAppDir(t *testing.T) {
	t.Setenv("HOME", "/home/someone")
	dir, err := config.DefaultAppDir()
	require.NoError(t, err)
	assert.Equal(t, "/home/someone/.gdsync", dir)
}
