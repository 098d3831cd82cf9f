package recu

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/tanq16/recudl/internal/playlist"
	"github.com/tanq16/recudl/internal/utils"
)

// segmentServer serves n segments with deterministic payloads and counts
// per-segment hits. expireAt >= 0 makes that segment answer 410.
func segmentServer(t *testing.T, n, expireAt int) (*httptest.Server, *playlist.Playlist, []byte, *[]atomic.Int32) {
	t.Helper()
	hits := make([]atomic.Int32, n)
	mux := http.NewServeMux()
	var full bytes.Buffer
	for i := 0; i < n; i++ {
		payload := []byte(fmt.Sprintf("payload-%02d|", i))
		full.Write(payload)
		idx := i
		mux.HandleFunc(fmt.Sprintf("/seg%d.ts", i), func(w http.ResponseWriter, r *http.Request) {
			hits[idx].Add(1)
			if idx == expireAt {
				w.WriteHeader(http.StatusGone)
				return
			}
			w.Write(payload)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	segments := make([]string, n)
	for i := range segments {
		segments[i] = fmt.Sprintf("%s/seg%d.ts", srv.URL, i)
	}
	pl := &playlist.Playlist{
		Raw:      []byte("manifest"),
		Segments: segments,
		Filename: "stream",
	}
	return srv, pl, full.Bytes(), &hits
}

func segmentBytes(full []byte, from, to int) []byte {
	// Payloads are fixed width, so slicing by segment is arithmetic.
	width := len("payload-00|")
	return full[from*width : to*width]
}

func TestMuxDownloadsFullWindow(t *testing.T) {
	chdir(t, t.TempDir())
	_, pl, full, _ := segmentServer(t, 4, -1)

	var lastCompleted, lastTotal int64
	calls := 0
	idx, err := Mux(context.Background(), testClient(), pl, nil, 0, [2]float64{0, 100}, func(completed, total int64, speed string) {
		calls++
		lastCompleted, lastTotal = completed, total
		if speed == "" {
			t.Error("empty speed string")
		}
	})
	if err != nil {
		t.Fatalf("mux failed: %v", err)
	}
	if idx != 0 {
		t.Errorf("index = %d, want 0 on success", idx)
	}
	got, err := os.ReadFile("stream.ts")
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, full) {
		t.Errorf("output = %q, want %q", got, full)
	}
	if calls != 4 || lastCompleted != 4 || lastTotal != 4 {
		t.Errorf("progress calls=%d last=%d/%d, want 4 calls ending 4/4", calls, lastCompleted, lastTotal)
	}
}

func TestMuxAppliesPercentWindow(t *testing.T) {
	chdir(t, t.TempDir())
	_, pl, full, hits := segmentServer(t, 10, -1)

	idx, err := Mux(context.Background(), testClient(), pl, nil, 0, [2]float64{30, 70}, nil)
	if err != nil {
		t.Fatalf("mux failed: %v", err)
	}
	if idx != 0 {
		t.Errorf("index = %d", idx)
	}
	got, err := os.ReadFile("stream.ts")
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if want := segmentBytes(full, 3, 7); !bytes.Equal(got, want) {
		t.Errorf("output = %q, want segments 3..6", got)
	}
	for i := range *hits {
		want := int32(0)
		if i >= 3 && i < 7 {
			want = 1
		}
		if got := (*hits)[i].Load(); got != want {
			t.Errorf("segment %d fetched %d times, want %d", i, got, want)
		}
	}
}

func TestMuxClampsWindowEdges(t *testing.T) {
	chdir(t, t.TempDir())
	_, pl, full, _ := segmentServer(t, 4, -1)

	idx, err := Mux(context.Background(), testClient(), pl, nil, 0, [2]float64{-20, 150}, nil)
	if err != nil {
		t.Fatalf("mux failed: %v", err)
	}
	if idx != 0 {
		t.Errorf("index = %d", idx)
	}
	got, err := os.ReadFile("stream.ts")
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, full) {
		t.Error("clamped window should cover every segment")
	}
}

func TestMuxRejectsInvertedWindow(t *testing.T) {
	chdir(t, t.TempDir())
	_, pl, _, hits := segmentServer(t, 4, -1)

	idx, err := Mux(context.Background(), testClient(), pl, nil, 0, [2]float64{70, 30}, nil)
	var verr *utils.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if idx != 0 {
		t.Errorf("index = %d", idx)
	}
	if _, statErr := os.Stat("stream.ts"); !os.IsNotExist(statErr) {
		t.Error("rejected window must not create the output file")
	}
	for i := range *hits {
		if (*hits)[i].Load() != 0 {
			t.Error("rejected window must not fetch segments")
		}
	}
}

func TestMuxRejectsEmptyWindow(t *testing.T) {
	chdir(t, t.TempDir())
	_, pl, _, _ := segmentServer(t, 3, -1)

	// 10..20 percent of three segments rounds down to zero of them.
	_, err := Mux(context.Background(), testClient(), pl, nil, 0, [2]float64{10, 20}, nil)
	var verr *utils.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if !strings.Contains(err.Error(), "no segments") {
		t.Errorf("err = %v", err)
	}
}

func TestMuxResumeProducesIdenticalFile(t *testing.T) {
	_, pl, full, _ := segmentServer(t, 6, -1)

	// Reference: one uninterrupted run.
	chdir(t, t.TempDir())
	if idx, err := Mux(context.Background(), testClient(), pl, nil, 0, [2]float64{0, 100}, nil); err != nil || idx != 0 {
		t.Fatalf("full run: idx=%d err=%v", idx, err)
	}
	reference, err := os.ReadFile("stream.ts")
	if err != nil {
		t.Fatalf("read reference: %v", err)
	}
	if !bytes.Equal(reference, full) {
		t.Fatalf("reference run wrote %q", reference)
	}

	// Interrupted run: first two segments already on disk, resume at 2.
	chdir(t, t.TempDir())
	pl.Filename = "stream"
	if err := os.WriteFile("stream.ts", segmentBytes(full, 0, 2), 0644); err != nil {
		t.Fatal(err)
	}
	idx, err := Mux(context.Background(), testClient(), pl, nil, 2, [2]float64{0, 100}, nil)
	if err != nil || idx != 0 {
		t.Fatalf("resumed run: idx=%d err=%v", idx, err)
	}
	resumed, err := os.ReadFile("stream.ts")
	if err != nil {
		t.Fatalf("read resumed: %v", err)
	}
	if !bytes.Equal(resumed, reference) {
		t.Errorf("resumed file differs from uninterrupted file:\n%q\n%q", resumed, reference)
	}
}

func TestMuxResumeWithoutFileStartsFresh(t *testing.T) {
	chdir(t, t.TempDir())
	_, pl, full, hits := segmentServer(t, 5, -1)

	idx, err := Mux(context.Background(), testClient(), pl, nil, 3, [2]float64{0, 100}, nil)
	if err != nil || idx != 0 {
		t.Fatalf("idx=%d err=%v", idx, err)
	}
	got, err := os.ReadFile("stream.ts")
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	// The resume index survives into the fresh file: only segments 3+.
	if want := segmentBytes(full, 3, 5); !bytes.Equal(got, want) {
		t.Errorf("output = %q, want %q", got, want)
	}
	for i := 0; i < 3; i++ {
		if (*hits)[i].Load() != 0 {
			t.Errorf("segment %d should not be refetched on resume", i)
		}
	}
}

func TestMuxCollisionPicksFreshName(t *testing.T) {
	chdir(t, t.TempDir())
	_, pl, full, _ := segmentServer(t, 3, -1)

	if err := os.WriteFile("stream.ts", []byte("occupied"), 0644); err != nil {
		t.Fatal(err)
	}
	idx, err := Mux(context.Background(), testClient(), pl, nil, 0, [2]float64{0, 100}, nil)
	if err != nil || idx != 0 {
		t.Fatalf("idx=%d err=%v", idx, err)
	}
	if pl.Filename != "stream(1)" {
		t.Errorf("filename = %q, want stream(1)", pl.Filename)
	}
	original, err := os.ReadFile("stream.ts")
	if err != nil || string(original) != "occupied" {
		t.Errorf("existing file was touched: %q err=%v", original, err)
	}
	got, err := os.ReadFile("stream(1).ts")
	if err != nil {
		t.Fatalf("read diverged output: %v", err)
	}
	if !bytes.Equal(got, full) {
		t.Errorf("diverged output = %q", got)
	}
}

func TestMuxExpiredSegmentReportsPosition(t *testing.T) {
	chdir(t, t.TempDir())
	_, pl, full, hits := segmentServer(t, 6, 2)

	idx, err := Mux(context.Background(), testClient(), pl, nil, 0, [2]float64{0, 100}, nil)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
	if idx != 2 {
		t.Errorf("failing index = %d, want 2", idx)
	}
	if !strings.Contains(err.Error(), "33.33%") {
		t.Errorf("err = %v, want completion percentage 33.33%%", err)
	}
	if got := (*hits)[2].Load(); got != 1 {
		t.Errorf("expired segment fetched %d times, want 1", got)
	}
	got, readErr := os.ReadFile("stream.ts")
	if readErr != nil {
		t.Fatalf("read output: %v", readErr)
	}
	// Segments before the expiry must already be on disk for a resume.
	if want := segmentBytes(full, 0, 2); !bytes.Equal(got, want) {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestMuxCancellationReturnsResumeIndex(t *testing.T) {
	chdir(t, t.TempDir())
	_, pl, full, _ := segmentServer(t, 8, -1)

	ctx, cancel := context.WithCancel(context.Background())
	idx, err := Mux(ctx, testClient(), pl, nil, 0, [2]float64{0, 100}, func(completed, total int64, speed string) {
		if completed == 2 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if !strings.Contains(err.Error(), "aborting") {
		t.Errorf("err = %v, want aborting prefix", err)
	}
	if idx != 2 {
		t.Errorf("resume index = %d, want 2", idx)
	}
	got, readErr := os.ReadFile("stream.ts")
	if readErr != nil {
		t.Fatalf("read output: %v", readErr)
	}
	if want := segmentBytes(full, 0, 2); !bytes.Equal(got, want) {
		t.Errorf("output = %q, want first two segments", got)
	}
}
