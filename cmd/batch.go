package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/recudl/internal/config"
	"github.com/tanq16/recudl/internal/output"
)

func newBatchCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE]",
		Short: "Download the streams listed in a YAML file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if mode != "serial" && mode != "parallel" && mode != "hybrid" {
				output.PrintError("Unknown mode " + mode + ", use serial, parallel or hybrid")
				os.Exit(1)
			}
			targets, err := config.LoadBatch(args[0])
			if err != nil {
				output.PrintError(fmt.Sprintf("Cannot read batch file: %v", err))
				os.Exit(1)
			}
			if len(targets) == 0 {
				output.PrintError("No entries found in the batch file")
				os.Exit(1)
			}
			// Batch entries bring their own urls; the config only has to
			// supply the session header template.
			cfg, ok := loadConfig()
			if !ok {
				return
			}
			if cfg.Header["Cookie"] == "" || cfg.Header["User-Agent"] == "" {
				output.PrintWarning("Please fill in the Cookie and User-Agent in " + configPath)
				return
			}
			s := newScheduler(cfg)
			jobs := s.Resolve(cmd.Context(), targets)
			switch mode {
			case "serial":
				s.RunSerial(cmd.Context(), jobs)
			case "hybrid":
				s.RunHybrid(cmd.Context(), jobs)
			default:
				s.RunParallel(cmd.Context(), jobs, workers)
			}
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "parallel", "Scheduling policy: serial, parallel or hybrid")
	return cmd
}
