// Package config provides configuration management for gdsync.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/sgaunet/gdsync/pkg/constants"
	"github.com/sgaunet/gdsync/pkg/hooks"
	"gopkg.in/yaml.v3"
)

// File and directory names inside the application directory.
const (
	ConfigFile = "gdsync.json"
	BackupDir  = "backup"
	// AppDirName is the application directory created in the user's home.
	AppDirName = ".gdsync"
)

// Remote backend types.
const (
	RemoteDrive = "drive"
	RemoteS3    = "s3"
	RemoteLocal = "local"
)

var (
	// ErrNoRemote is returned when the selected remote lacks its mandatory settings.
	ErrNoRemote = errors.New("remote storage is not configured")
	// ErrUnknownRemote is returned for an unsupported remote type.
	ErrUnknownRemote = errors.New("unknown remote type")
	// ErrInvalidFolder is returned when the remote folder name is empty or contains a separator.
	ErrInvalidFolder = errors.New("invalid remote folder name")
)

// S3Config holds the configuration for the S3 remote.
type S3Config struct {
	Endpoint   string `env:"S3ENDPOINT"            env-default:"" json:"endpoint"   yaml:"endpoint"`
	BucketName string `env:"S3BUCKETNAME"          env-default:"" json:"bucketName" yaml:"bucketName"`
	BucketPath string `env:"S3BUCKETPATH"          env-default:"" json:"bucketPath" yaml:"bucketPath"`
	Region     string `env:"S3REGION"              env-default:"" json:"region"     yaml:"region"`
	AccessKey  string `env:"AWS_ACCESS_KEY_ID"     json:"accessKey"  yaml:"accessKey"`
	SecretKey  string `env:"AWS_SECRET_ACCESS_KEY" json:"secretKey"  yaml:"secretKey"`
}

// RemoteConfig selects and configures the catalog backend.
type RemoteConfig struct {
	Type      string   `env:"GDSYNC_REMOTE"       env-default:"drive" json:"type"      yaml:"type"`
	S3        S3Config `json:"s3"                 yaml:"s3"`
	LocalPath string   `env:"GDSYNC_LOCAL_REMOTE" env-default:""      json:"localPath" yaml:"localPath"`
}

// BackupsConfig enables a local copy of every pushed archive.
type BackupsConfig struct {
	Dir string `env:"GDSYNC_BACKUPS_DIR" env-default:"" json:"dir" yaml:"dir"`
}

// Config holds the application configuration.
type Config struct {
	Version   string        `env-default:"0.1a"   json:"version"   yaml:"version"`
	Folder    string        `env:"GDSYNC_FOLDER"  env-default:"gdsync-projects" json:"folder" yaml:"folder"`
	Backups   BackupsConfig `json:"backups"       yaml:"backups"`
	Remote    RemoteConfig  `json:"remote"        yaml:"remote"`
	Hooks     hooks.Hooks   `json:"hooks"         yaml:"hooks"`
	Exclude   []string      `env:"GDSYNC_EXCLUDE" env-separator:"," json:"exclude" yaml:"exclude"`
	NoLogTime bool          `env:"NOLOGTIME"      env-default:"false" json:"noLogTime" yaml:"noLogTime"`
}

// NewConfigFromFile returns a new Config struct from the given file.
// Environment variables override values read from the file.
func NewConfigFromFile(filePath string) (*Config, error) {
	var cfg Config
	err := cleanenv.ReadConfig(filePath, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from file %s: %w", filePath, err)
	}
	return &cfg, nil
}

// NewConfigFromEnv returns a new Config struct from the environment variables.
func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := cleanenv.ReadEnv(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}
	return &cfg, nil
}

// Load reads filePath when set, otherwise the gdsync.json of appDir when it
// exists, otherwise defaults and environment variables only.
func Load(appDir, filePath string) (*Config, error) {
	if filePath != "" {
		return NewConfigFromFile(filePath)
	}
	defaultFile := filepath.Join(appDir, ConfigFile)
	if _, err := os.Stat(defaultFile); err == nil {
		return NewConfigFromFile(defaultFile)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", defaultFile, err)
	}
	return NewConfigFromEnv()
}

// DefaultAppDir returns ~/.gdsync.
func DefaultAppDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, AppDirName), nil
}

// EnsureAppDir creates the application directory and its backup directory,
// readable by the owner only.
func EnsureAppDir(dir string) error {
	if err := os.MkdirAll(filepath.Join(dir, BackupDir), constants.PrivateDirPermission); err != nil {
		return fmt.Errorf("failed to create application directory %s: %w", dir, err)
	}
	if err := os.Chmod(dir, constants.PrivateDirPermission); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", dir, err)
	}
	return nil
}

// IsS3ConfigValid returns true if the S3 config is valid.
func (c *Config) IsS3ConfigValid() bool {
	return len(c.Remote.S3.BucketName) > 0 && len(c.Remote.S3.Region) > 0
}

// IsLocalConfigValid returns true if the local remote config is valid.
func (c *Config) IsLocalConfigValid() bool {
	return len(c.Remote.LocalPath) > 0
}

// Validate checks the folder name and the remote selection.
func (c *Config) Validate() error {
	if c.Folder == "" || strings.ContainsAny(c.Folder, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidFolder, c.Folder)
	}
	switch c.Remote.Type {
	case RemoteDrive:
		return nil
	case RemoteS3:
		if !c.IsS3ConfigValid() {
			return fmt.Errorf("%w: s3 requires bucketName and region", ErrNoRemote)
		}
		return nil
	case RemoteLocal:
		if !c.IsLocalConfigValid() {
			return fmt.Errorf("%w: local requires localPath", ErrNoRemote)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownRemote, c.Remote.Type)
	}
}

func (c *Config) String() string {
	cyaml, err := yaml.Marshal(c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return string(cyaml)
}

// Redacted returns a YAML representation of the config with sensitive fields redacted.
func (c *Config) Redacted() string {
	redacted := *c
	if redacted.Remote.S3.AccessKey != "" {
		redacted.Remote.S3.AccessKey = constants.RedactedValue
	}
	if redacted.Remote.S3.SecretKey != "" {
		redacted.Remote.S3.SecretKey = constants.RedactedValue
	}
	cyaml, err := yaml.Marshal(redacted)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return string(cyaml)
}

// Usage prints the usage of the config.
func (c *Config) Usage() {
	f := cleanenv.Usage(c, nil)
	f()
}
