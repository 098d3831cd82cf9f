package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tanq16/recudl/internal/config"
	"github.com/tanq16/recudl/internal/output"
	"github.com/tanq16/recudl/internal/playlist"
	"github.com/tanq16/recudl/internal/scheduler"
)

func newPlaylistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "playlist [M3U8_FILE]",
		Short: "Save resolved playlists only, or download one from a local manifest",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			s, targets, ok := setupDownload()
			if !ok {
				return
			}
			if len(args) == 1 {
				data, err := os.ReadFile(args[0])
				if err != nil {
					output.PrintError(fmt.Sprintf("Failed to read playlist: %v", err))
					os.Exit(1)
				}
				name := strings.TrimSuffix(filepath.Base(args[0]), ".m3u8")
				// The first config entry supplies the range and resume
				// offset for a locally supplied manifest.
				t := config.Target{URL: args[0], Range: [2]float64{0, 100}}
				if len(targets) > 0 {
					t = targets[0]
				}
				s.RunSerial(cmd.Context(), []scheduler.Job{{
					Target:   t,
					Playlist: playlist.NewFromFilename(data, name, 0),
				}})
				return
			}
			for _, j := range s.Resolve(cmd.Context(), targets) {
				if j.Playlist.IsNil() {
					continue
				}
				name := j.Playlist.Filename + ".m3u8"
				if err := os.WriteFile(name, j.Playlist.Raw, 0644); err != nil {
					output.PrintError(fmt.Sprintf("Failed to write %s: %v", name, err))
					continue
				}
				output.PrintSuccess("Completed: " + j.Playlist.Filename + ":" + j.Target.URL)
			}
		},
	}
}
