package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/recudl/internal/output"
)

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [LISTING_URL]",
		Short: "Collect video page urls from a listing page into the config",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			// Parsing only needs the header template, so an otherwise
			// unfilled config is allowed here.
			cfg, ok := loadConfig()
			if !ok {
				return
			}
			if err := cfg.ParseHTML(cmd.Context(), buildClient(), args[0]); err != nil {
				output.PrintError(fmt.Sprintf("%v", err))
				os.Exit(1)
			}
			output.PrintSuccess("Parsed HTML successfully")
		},
	}
}
