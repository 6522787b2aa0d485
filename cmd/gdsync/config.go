package main

import (
	"fmt"
	"strings"

	"github.com/sgaunet/gdsync/pkg/config"
	"github.com/sgaunet/gdsync/pkg/constants"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the environment variables and the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp("")
		if err != nil {
			return err
		}
		(&config.Config{}).Usage()
		fmt.Fprintln(cmd.OutOrStdout(), strings.Repeat("-", constants.SeparatorWidth))
		fmt.Fprintf(cmd.OutOrStdout(), "gdsync configuration (%s):\n", a.AppDir())
		fmt.Fprint(cmd.OutOrStdout(), a.Config().Redacted())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
