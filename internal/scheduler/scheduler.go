package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/recudl/internal/config"
	"github.com/tanq16/recudl/internal/output"
	"github.com/tanq16/recudl/internal/playlist"
	"github.com/tanq16/recudl/internal/postprocess"
	"github.com/tanq16/recudl/internal/recu"
	"github.com/tanq16/recudl/internal/state"
	"github.com/tanq16/recudl/internal/utils"
)

const DefaultWorkers = 4

// Job pairs a resolution target with its resolved playlist. A nil
// playlist means there is nothing to download for that target; every
// dispatch policy skips such jobs.
type Job struct {
	Target   config.Target
	Playlist *playlist.Playlist
}

// Scheduler resolves targets up front and dispatches the resulting
// jobs through one of three policies: strictly sequential, a staggered
// worker pool, or one serial lane per segment host.
type Scheduler struct {
	client  *utils.RecuHTTPClient
	header  map[string]string
	opts    postprocess.Options
	history *state.Log
	stagger time.Duration
}

func New(client *utils.RecuHTTPClient, header map[string]string, opts postprocess.Options, history *state.Log) *Scheduler {
	return &Scheduler{
		client:  client,
		header:  header,
		opts:    opts,
		history: history,
		stagger: time.Second,
	}
}

// Resolve turns every target into a Job, in source order, before any
// download starts. Targets already marked complete and targets that
// fail to resolve yield nil playlists; failures are reported here and
// nowhere else.
func (s *Scheduler) Resolve(ctx context.Context, targets []config.Target) []Job {
	jobs := make([]Job, len(targets))
	for i, t := range targets {
		jobs[i] = Job{Target: t, Playlist: playlist.Nil(i)}
		if t.Complete {
			log.Debug().Str("op", "scheduler").Msgf("skipping completed url %s", t.URL)
			continue
		}
		if ctx.Err() != nil {
			output.PrintWarning("Aborting, skipped " + t.URL)
			continue
		}
		pl, outcome, err := recu.Resolve(ctx, s.client, t.URL, s.header, i)
		switch outcome {
		case recu.OutcomeOK:
			jobs[i].Playlist = pl
		case recu.OutcomeBlocked:
			output.PrintError(fmt.Sprintf("%v", err))
			output.PrintError("Cloudflare blocked, failed on url: " + t.URL)
		case recu.OutcomeNeedsAuth:
			output.PrintError("Please log in, failed on url: " + t.URL)
		case recu.OutcomeRateLimited:
			output.PrintWarning("Daily view used, failed on url: " + t.URL)
		default:
			output.PrintError(fmt.Sprintf("Error: %v, failed on url: %s", err, t.URL))
		}
	}
	return jobs
}

// RunSerial downloads every job one after another in source order. A
// failed job never stops the ones after it.
func (s *Scheduler) RunSerial(ctx context.Context, jobs []Job) {
	manager, ids := newDisplay(jobs)
	if manager == nil {
		return
	}
	manager.StartDisplay()
	defer manager.StopDisplay()
	for i, j := range jobs {
		if j.Playlist.IsNil() {
			continue
		}
		s.runJob(ctx, manager, ids[i], j, fmt.Sprintf("%d/%d: ", i+1, len(jobs)))
	}
}

// RunParallel downloads with a bounded worker pool, pacing submissions
// so the host sees a ramp of downloads instead of a burst.
func (s *Scheduler) RunParallel(ctx context.Context, jobs []Job, workers int) {
	manager, ids := newDisplay(jobs)
	if manager == nil {
		return
	}
	if workers < 1 {
		workers = DefaultWorkers
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	manager.StartDisplay()
	defer manager.StopDisplay()

	jobCh := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobCh {
				s.runJob(ctx, manager, ids[i], jobs[i], "")
			}
		}()
	}
submit:
	for i, j := range jobs {
		if j.Playlist.IsNil() {
			continue
		}
		select {
		case jobCh <- i:
		case <-ctx.Done():
			break submit
		}
		select {
		case <-time.After(s.stagger):
		case <-ctx.Done():
			break submit
		}
	}
	close(jobCh)
	wg.Wait()
}

// RunHybrid groups jobs by the host serving their segments and runs
// one strictly serial worker per host. Hosts download concurrently
// without any single host ever seeing two downloads at once.
func (s *Scheduler) RunHybrid(ctx context.Context, jobs []Job) {
	type lane struct {
		id  int
		job Job
	}
	manager := output.NewManager()
	groups := make(map[string][]lane)
	var order []string
	for _, j := range jobs {
		if j.Playlist.IsNil() {
			continue
		}
		origin, err := j.Playlist.Origin()
		if err != nil {
			output.PrintError(fmt.Sprintf("%v, dropped url: %s", err, j.Target.URL))
			continue
		}
		if _, seen := groups[origin]; !seen {
			order = append(order, origin)
		}
		groups[origin] = append(groups[origin], lane{id: manager.Register(j.Playlist.Filename), job: j})
	}
	if len(groups) == 0 {
		return
	}
	manager.StartDisplay()
	defer manager.StopDisplay()

	var wg sync.WaitGroup
	for _, origin := range order {
		wg.Add(1)
		go func(lanes []lane) {
			defer wg.Done()
			for _, l := range lanes {
				s.runJob(ctx, manager, l.id, l.job, "")
			}
		}(groups[origin])
	}
	wg.Wait()
}

// newDisplay registers every downloadable job with a fresh manager and
// returns the job-index-to-display-id mapping. A nil manager means
// there is nothing to run.
func newDisplay(jobs []Job) (*output.Manager, []int) {
	runnable := false
	for _, j := range jobs {
		if !j.Playlist.IsNil() {
			runnable = true
			break
		}
	}
	if !runnable {
		return nil, nil
	}
	manager := output.NewManager()
	ids := make([]int, len(jobs))
	for i, j := range jobs {
		if !j.Playlist.IsNil() {
			ids[i] = manager.Register(j.Playlist.Filename)
		}
	}
	return manager, ids
}

// runJob streams one playlist to disk, then applies post-processing
// and records the outcome in the run history.
func (s *Scheduler) runJob(ctx context.Context, manager *output.Manager, id int, j Job, prefix string) {
	pl := j.Playlist
	manager.SetStatus(id, "pending")
	manager.SetMessage(id, prefix+"Downloading "+pl.Filename)
	segHeaders := recu.FormatHeaders(s.header, "", recu.SegmentHeaders)
	idx, err := recu.Mux(ctx, s.client, pl, segHeaders, j.Target.ResumeOffset, j.Target.Range, func(completed, total int64, speed string) {
		manager.SetProgress(id, completed, total, speed)
	})
	if err != nil {
		status := state.StatusFailed
		if errors.Is(err, context.Canceled) {
			status = state.StatusAborted
		}
		lastIndex := idx
		s.appendHistory(state.Entry{
			URL:         j.Target.URL,
			Filename:    pl.Filename,
			Status:      status,
			LastIndex:   &lastIndex,
			SourceIndex: pl.SourceIndex,
		})
		manager.ReportError(id, fmt.Errorf("%w\nDownload Failed at line: %d", err, idx))
		return
	}

	var size uint64
	if fi, statErr := os.Stat(pl.Filename + ".ts"); statErr == nil {
		size = uint64(fi.Size())
	}
	manager.SetMessage(id, prefix+"Processing "+pl.Filename)
	finalPath := pl.Filename + ".ts"
	if summary, perr := postprocess.Run(s.opts, pl.Filename, j.Target.URL); perr != nil {
		log.Warn().Str("op", "scheduler").Msgf("post-processing failed for %s: %v", pl.Filename, perr)
	} else {
		finalPath = summary.File
	}
	s.appendHistory(state.Entry{
		URL:         j.Target.URL,
		Filename:    pl.Filename,
		Status:      state.StatusComplete,
		SourceIndex: pl.SourceIndex,
	})
	manager.Complete(id, fmt.Sprintf("%sDownloaded %s (%s)", prefix, finalPath, output.FormatBytes(size)))
}

func (s *Scheduler) appendHistory(entry state.Entry) {
	if s.history == nil {
		return
	}
	if err := s.history.Append(entry); err != nil {
		log.Warn().Str("op", "scheduler").Msgf("cannot record history: %v", err)
	}
}
