package postprocess

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Options selects which finishing steps run after a download completes.
// Every step is best-effort: a failed step is logged and skipped.
type Options struct {
	RemuxToMP4        bool   `json:"remux_to_mp4" yaml:"remux_to_mp4"`
	GenerateThumbnail bool   `json:"generate_thumbnail" yaml:"generate_thumbnail"`
	OrganizeOutput    bool   `json:"organize_output" yaml:"organize_output"`
	OpenInExplorer    bool   `json:"open_in_explorer" yaml:"open_in_explorer"`
	WriteReport       bool   `json:"write_report" yaml:"write_report"`
	OutputDir         string `json:"output_dir" yaml:"output_dir"`
	ReportsDir        string `json:"reports_dir" yaml:"reports_dir"`
	ThumbnailsDir     string `json:"thumbnails_dir" yaml:"thumbnails_dir"`
}

func DefaultOptions() Options {
	return Options{
		RemuxToMP4:        true,
		GenerateThumbnail: true,
		OrganizeOutput:    true,
		OpenInExplorer:    false,
		WriteReport:       true,
		OutputDir:         "downloads",
		ReportsDir:        "reports",
		ThumbnailsDir:     "thumbnails",
	}
}

// Summary records what actually happened to one file, and doubles as
// the on-disk report format.
type Summary struct {
	File      string   `json:"file"`
	SourceURL string   `json:"source_url"`
	Steps     []string `json:"steps"`
	Elapsed   float64  `json:"elapsed_seconds"`
	Timestamp int64    `json:"timestamp"`
}

// Run applies the enabled steps to <baseName>.ts and returns a summary
// of the steps that succeeded.
func Run(opts Options, baseName, sourceURL string) (*Summary, error) {
	started := time.Now()
	logger := log.With().Str("op", "postprocess").Logger()
	final := baseName + ".ts"
	if _, err := os.Stat(final); err != nil {
		return nil, fmt.Errorf("output file not found: %w", err)
	}
	summary := &Summary{SourceURL: sourceURL, Steps: []string{}}

	if opts.RemuxToMP4 {
		if _, err := exec.LookPath("ffmpeg"); err != nil {
			logger.Warn().Msg("ffmpeg not found, skipping remux")
		} else {
			// The remux lands in the output dir straight away.
			dir := opts.OutputDir
			if dir == "" {
				dir = "."
			}
			mp4 := filepath.Join(dir, filepath.Base(baseName)+".mp4")
			cmd := exec.Command("ffmpeg", "-y", "-i", final, "-c", "copy", mp4)
			if err := os.MkdirAll(dir, 0755); err != nil {
				logger.Warn().Msgf("cannot create output dir: %v", err)
			} else if out, err := cmd.CombinedOutput(); err != nil {
				logger.Warn().Msgf("remux failed: %v: %s", err, out)
			} else {
				os.Remove(final)
				final = mp4
				summary.Steps = append(summary.Steps, "remux_to_mp4")
			}
		}
	}

	if opts.OrganizeOutput && opts.OutputDir != "" {
		dest := filepath.Join(opts.OutputDir, filepath.Base(final))
		if dest != final {
			if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
				logger.Warn().Msgf("cannot create output dir: %v", err)
			} else if err := os.Rename(final, dest); err != nil {
				logger.Warn().Msgf("cannot move output: %v", err)
			} else {
				final = dest
				summary.Steps = append(summary.Steps, "organize_output")
			}
		}
	}

	if opts.GenerateThumbnail {
		if err := generateThumbnail(final, baseName, opts.ThumbnailsDir); err != nil {
			logger.Warn().Msgf("thumbnail failed: %v", err)
		} else {
			summary.Steps = append(summary.Steps, "thumbnail")
		}
	}

	summary.File = final
	summary.Elapsed = math.Round(time.Since(started).Seconds()*100) / 100
	summary.Timestamp = time.Now().Unix()

	if opts.WriteReport {
		if err := writeReport(summary, baseName, opts.ReportsDir); err != nil {
			logger.Warn().Msgf("report failed: %v", err)
		} else {
			summary.Steps = append(summary.Steps, "report")
		}
	}

	if opts.OpenInExplorer {
		if err := openInExplorer(final); err != nil {
			logger.Warn().Msgf("cannot open file browser: %v", err)
		}
	}
	return summary, nil
}

// generateThumbnail grabs a frame a quarter of the way into the recording.
func generateThumbnail(mediaPath, baseName, dir string) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return fmt.Errorf("ffprobe not found")
	}
	probe := exec.Command("ffprobe", "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", mediaPath)
	out, err := probe.Output()
	if err != nil {
		return fmt.Errorf("ffprobe: %w", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return fmt.Errorf("unreadable duration %q", strings.TrimSpace(string(out)))
	}
	offset := math.Max(1.0, duration*0.25)
	secs := int(offset)
	stamp := fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	thumb := filepath.Join(dir, filepath.Base(baseName)+".jpg")
	cmd := exec.Command("ffmpeg", "-y", "-ss", stamp, "-i", mediaPath, "-frames:v", "1", thumb)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg: %v: %s", err, out)
	}
	return nil
}

func writeReport(summary *Summary, baseName, dir string) error {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, filepath.Base(baseName)+".json"), data, 0644)
}

func openInExplorer(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	switch runtime.GOOS {
	case "windows":
		return exec.Command("explorer", "/select,", abs).Start()
	case "darwin":
		return exec.Command("open", "-R", abs).Start()
	default:
		return exec.Command("xdg-open", filepath.Dir(abs)).Start()
	}
}
