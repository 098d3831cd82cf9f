package config

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tanq16/recudl/internal/utils"
)

// CompleteMarker in a target's resume slot records that the download
// finished in a previous run and must not be repeated.
const CompleteMarker = "COMPLETE"

// Target is one decoded download request: the video page URL, the
// percentage window to download, and an optional resume point.
type Target struct {
	URL          string
	Range        [2]float64
	ResumeOffset int
	Complete     bool
}

// DecodeTarget decodes one configured URL entry. An entry is either a
// bare URL string or an array in one of four shapes:
//
//	[url]
//	[url, resume]
//	[url, start, end, total]
//	[url, start, end, total, resume]
//
// where start/end/total are clock strings ("h:m:s") locating a window
// inside the stream, and resume is a segment index or CompleteMarker.
// Anything else is rejected outright; a malformed entry must never
// reach the network.
func DecodeTarget(raw json.RawMessage) (Target, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return Target{URL: s, Range: [2]float64{0, 100}}, nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return Target{}, utils.NewValidationError("url is incorrect type")
	}
	if len(arr) < 1 || len(arr) == 3 || len(arr) > 5 {
		return Target{}, utils.NewValidationError("incorrect length of url array")
	}
	t := Target{Range: [2]float64{0, 100}}
	if err := json.Unmarshal(arr[0], &t.URL); err != nil {
		return Target{}, utils.NewValidationError("url is incorrect type")
	}
	if len(arr) >= 4 {
		var times [3]string
		for i := range times {
			if err := json.Unmarshal(arr[i+1], &times[i]); err != nil {
				return Target{}, utils.NewValidationError("time range is incorrect type")
			}
		}
		r, err := ParsePercent(times[0], times[1], times[2])
		if err != nil {
			return Target{}, err
		}
		if r[1] <= r[0] {
			return Target{}, utils.NewValidationError("time range is empty: start %s end %s", times[0], times[1])
		}
		t.Range = r
	}
	if len(arr) == 2 || len(arr) == 5 {
		last := arr[len(arr)-1]
		var n float64
		if err := json.Unmarshal(last, &n); err == nil {
			t.ResumeOffset = int(n)
			return t, nil
		}
		var marker string
		if err := json.Unmarshal(last, &marker); err != nil || marker != CompleteMarker {
			return Target{}, utils.NewValidationError("resume marker is incorrect type")
		}
		t.Complete = true
	}
	return t, nil
}

// ParsePercent converts a start/end/total clock triple into the
// percentage window the download engine consumes. A zero total means
// the stream length is unknown and yields the full window.
func ParsePercent(start, end, total string) ([2]float64, error) {
	s0, err := parseClock(start)
	if err != nil {
		return [2]float64{}, err
	}
	s1, err := parseClock(end)
	if err != nil {
		return [2]float64{}, err
	}
	s2, err := parseClock(total)
	if err != nil {
		return [2]float64{}, err
	}
	if s2 == 0 {
		return [2]float64{0, 100}, nil
	}
	return [2]float64{s0 / s2 * 100, s1 / s2 * 100}, nil
}

// parseClock reads colon-separated time components weighted in base 60,
// so "1:30:05" is 5405 seconds and a bare "90" is 90 seconds.
func parseClock(s string) (float64, error) {
	total := 0.0
	for _, part := range strings.Split(s, ":") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return 0, utils.NewValidationError("wrong time format: %s", s)
		}
		total = total*60 + v
	}
	return total, nil
}
