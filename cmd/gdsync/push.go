package main

import (
	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:   "push <path>...",
	Short: "Archive local projects and upload them",
	Long: `Archive every project directory and upload it to the remote folder as
<name>-<YYYYMMDD>-<HHMMSS>.tar.gz. The batch stops at the first error.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPush,
}

func runPush(cmd *cobra.Command, args []string) error {
	a, err := newApp("")
	if err != nil {
		return err
	}

	result, err := a.Push(cmd.Context(), args)
	if err != nil {
		return redactError(err, a.Config())
	}
	for _, w := range result.Warnings {
		a.Logger().Warn(w)
	}
	a.Logger().Info("push completed", "projects", len(result.Items), "duration", result.Duration)
	return nil
}
