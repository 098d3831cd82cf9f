package recu

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/recudl/internal/playlist"
	"github.com/tanq16/recudl/internal/utils"
)

// ProgressFunc receives engine progress: segments completed in this run,
// the run's segment total, and the formatted rate with the estimated
// time remaining.
type ProgressFunc func(completed, total int64, speed string)

// Mux streams the playlist's segments into <Filename>.ts in order. The
// window is a percentage pair over the whole segment list; a nonzero
// startIndex resumes a previous run by appending at that segment
// instead. On failure the returned index is where a resume should pick
// up; full success returns 0.
func Mux(ctx context.Context, client *utils.RecuHTTPClient, pl *playlist.Playlist, headers map[string]string, startIndex int, window [2]float64, progress ProgressFunc) (int, error) {
	avgDuration := utils.NewSampleWindow(25)
	avgSize := utils.NewSampleWindow(25)
	if startIndex < 0 {
		startIndex = 0
	}
	if err := ctx.Err(); err != nil {
		return startIndex, fmt.Errorf("aborting: %w", err)
	}
	if window[0] > 100 || window[1] <= window[0] {
		return startIndex, utils.NewValidationError("duration format error: start %.1f end %.1f", window[0], window[1])
	}
	if window[0] < 0 {
		window[0] = 0
	}
	if window[1] > 100 {
		window[1] = 100
	}

	var file *os.File
	name := pl.Filename + ".ts"
	if startIndex != 0 {
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Warn().Str("op", "recu/mux").Msg("original file not found, creating new one")
		} else {
			file = f
		}
	}
	if file == nil {
		if _, err := os.Stat(name); err == nil {
			pl.Filename = utils.NextAvailableName(pl.Filename, ".ts")
			name = pl.Filename + ".ts"
		}
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			return startIndex, fmt.Errorf("can not create file: %w", err)
		}
		file = f
	}
	defer file.Close()

	if startIndex == 0 {
		startIndex = int(float64(pl.Len()) * window[0] / 100)
	}
	endIndex := int(float64(pl.Len()) * window[1] / 100)
	totalSegments := endIndex - startIndex
	if totalSegments <= 0 {
		return startIndex, utils.NewValidationError("no segments to download")
	}
	log.Debug().Str("op", "recu/mux").Msgf("Downloading segments %d to %d of %d into %s", startIndex, endIndex, pl.Len(), name)

	for i := startIndex; i < endIndex; i++ {
		if err := ctx.Err(); err != nil {
			return i, fmt.Errorf("aborting: %w", err)
		}
		begin := time.Now()
		chunk, err := fetchWithRetry(ctx, client, pl.Segments[i], headers, initialFetchTimeout, segmentPolicy)
		if err != nil {
			percent := float64(i) / float64(pl.Len()) * 100
			return i, fmt.Errorf("%w\nFailed at %.2f%%", err, percent)
		}
		if _, err := file.Write(chunk); err != nil {
			return i, fmt.Errorf("can not write file: %w", err)
		}
		avgSize.Add(float64(len(chunk)))
		avgDuration.Add(time.Since(begin).Minutes())
		speed := 0.0
		if d := avgDuration.Average(); d > 0 {
			speed = avgSize.Average() / (d * 60)
		}
		if progress != nil {
			left := float64(endIndex-i-1) * avgDuration.Average()
			progress(int64(i-startIndex+1), int64(totalSegments),
				fmt.Sprintf("%s, %s left", utils.FormatBytesPerSecond(speed), utils.FormatMinutes(left)))
		}
	}
	return 0, nil
}
