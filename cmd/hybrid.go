package cmd

import (
	"github.com/spf13/cobra"
)

func newHybridCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hybrid",
		Short: "Download serially per server but in parallel across servers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			s, targets, ok := setupDownload()
			if !ok {
				return
			}
			jobs := s.Resolve(cmd.Context(), targets)
			s.RunHybrid(cmd.Context(), jobs)
		},
	}
}
