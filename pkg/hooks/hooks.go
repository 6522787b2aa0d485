// Package hooks provides the shell commands run around push and pull.
package hooks

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-andiamo/splitter"
)

// Placeholders substituted in hook commands.
const (
	ArchivePlaceholder    = "%ARCHIVE%"
	ProjectDirPlaceholder = "%PROJECT_DIR%"
)

// Hooks holds the configuration for push and pull hooks.
type Hooks struct {
	PrePush  string `env:"PREPUSH"  env-default:"" json:"prepush"  yaml:"prepush"`
	PostPush string `env:"POSTPUSH" env-default:"" json:"postpush" yaml:"postpush"`
	PostPull string `env:"POSTPULL" env-default:"" json:"postpull" yaml:"postpull"`
}

// GeneratePrePushCmd generates the pre push command for projectDir.
func (h *Hooks) GeneratePrePushCmd(projectDir string) string {
	return strings.ReplaceAll(h.PrePush, ProjectDirPlaceholder, projectDir)
}

// GeneratePostPushCmd generates the post push command for an uploaded archive.
func (h *Hooks) GeneratePostPushCmd(archiveName string) string {
	return strings.ReplaceAll(h.PostPush, ArchivePlaceholder, archiveName)
}

// GeneratePostPullCmd generates the post pull command for an extracted project.
func (h *Hooks) GeneratePostPullCmd(projectDir string) string {
	return strings.ReplaceAll(h.PostPull, ProjectDirPlaceholder, projectDir)
}

// HasPrePush returns true if a pre push command is defined.
func (h *Hooks) HasPrePush() bool {
	return h.PrePush != ""
}

// HasPostPush returns true if a post push command is defined.
func (h *Hooks) HasPostPush() bool {
	return h.PostPush != ""
}

// HasPostPull returns true if a post pull command is defined.
func (h *Hooks) HasPostPull() bool {
	return h.PostPull != ""
}

// ExecutePrePush executes the pre push command.
func (h *Hooks) ExecutePrePush(ctx context.Context, projectDir string) error {
	return execute(ctx, h.GeneratePrePushCmd(projectDir))
}

// ExecutePostPush executes the post push command.
func (h *Hooks) ExecutePostPush(ctx context.Context, archiveName string) error {
	return execute(ctx, h.GeneratePostPushCmd(archiveName))
}

// ExecutePostPull executes the post pull command.
func (h *Hooks) ExecutePostPull(ctx context.Context, projectDir string) error {
	return execute(ctx, h.GeneratePostPullCmd(projectDir))
}

// execute executes the given command.
func execute(ctx context.Context, command string) error {
	if command == "" {
		return nil
	}
	commandSplitter, err := splitter.NewSplitter(' ', splitter.SingleQuotes, splitter.DoubleQuotes)
	if err != nil {
		return fmt.Errorf("failed to create command splitter: %w", err)
	}
	trimmer := splitter.Trim("'\"")
	splitCmd, err := commandSplitter.Split(command, trimmer)
	if err != nil {
		return fmt.Errorf("failed to parse command '%s': %w", command, err)
	}
	if len(splitCmd) == 0 {
		return nil
	}
	//nolint:gosec // G204: Command execution with user input is intentional for hook functionality
	out, err := exec.CommandContext(ctx, splitCmd[0], splitCmd[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to execute %s: %w (output: %s)", command, err, strings.TrimSpace(string(out)))
	}
	return nil
}
