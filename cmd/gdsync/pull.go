package main

import (
	"github.com/sgaunet/gdsync/pkg/app/sync"
	"github.com/spf13/cobra"
)

var pullDest string

var pullCmd = &cobra.Command{
	Use:   "pull <name>...",
	Short: "Download and extract the latest archive of projects",
	Long: `Find the latest archive whose name contains each project name, verify it
and extract it under the destination directory. A project that already exists
locally is never overwritten; a project without archive is reported and skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPull,
}

func init() {
	pullCmd.Flags().StringVarP(&pullDest, "dest", "d", "", "Destination directory (default current directory)")
}

func runPull(cmd *cobra.Command, args []string) error {
	a, err := newApp(pullDest)
	if err != nil {
		return err
	}

	result, err := a.Pull(cmd.Context(), args)
	if err != nil {
		return redactError(err, a.Config())
	}
	a.Logger().Info("pull completed",
		"pulled", result.Count(sync.StatusPulled),
		"notFound", result.Count(sync.StatusNotFound),
		"duration", result.Duration)
	return nil
}
