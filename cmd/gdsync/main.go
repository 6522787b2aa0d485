// Package main provides the gdsync command-line tool for synchronizing project
// directories with a remote catalog.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sgaunet/gdsync/pkg/app"
	"github.com/spf13/cobra"
)

var version = "development" // Set by GoReleaser ldflags

var (
	configFile string
	appDir     string
	remote     string
)

var rootCmd = &cobra.Command{
	Use:   "gdsync",
	Short: "Synchronize project directories with Google Drive, S3 or a local folder",
	Long: `gdsync pushes local project directories as timestamped tar.gz archives
and pulls the latest archive of a project back.

Examples:
  gdsync push ./myproject
  gdsync pull myproject
  gdsync pull myproject --dest ~/work
  gdsync push ./myproject --remote s3 -c s3-config.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file (default <app-dir>/gdsync.json)")
	rootCmd.PersistentFlags().StringVar(&appDir, "app-dir", os.Getenv("GDSYNC_HOME"), "Application directory (default ~/.gdsync)")
	rootCmd.PersistentFlags().StringVar(&remote, "remote", "", "Remote type override: drive, s3 or local")

	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// newApp loads the configuration shared by every command.
func newApp(destDir string) (*app.App, error) {
	a, err := app.NewApp(app.Options{
		AppDir:     appDir,
		ConfigFile: configFile,
		Remote:     remote,
		DestDir:    destDir,
	})
	if err != nil {
		return nil, err
	}
	a.SetLogger(initTrace(os.Getenv("DEBUGLEVEL"), a.Config().NoLogTime))
	return a, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if isInterrupted(err) {
			fmt.Fprintln(os.Stderr, "Interrupted")
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop() already called
	}
}
