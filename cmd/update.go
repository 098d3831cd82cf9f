package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tanq16/recudl/internal/output"
	"github.com/tanq16/recudl/internal/update"
)

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Check whether a newer release is available",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			tag, link := update.Check(cmd.Context(), Version)
			if tag == "" {
				output.PrintInfo("recudl " + Version + " is up to date")
				return
			}
			output.PrintSuccess("New update available: " + tag)
			output.PrintDetail(link)
		},
	}
}
