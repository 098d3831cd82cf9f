package cmd

import (
	"github.com/spf13/cobra"
)

func newSeriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "series",
		Short: "Download every pending url one after another",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			s, targets, ok := setupDownload()
			if !ok {
				return
			}
			jobs := s.Resolve(cmd.Context(), targets)
			s.RunSerial(cmd.Context(), jobs)
		},
	}
}
