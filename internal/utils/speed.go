package utils

import "fmt"

// SampleWindow is a fixed-capacity ring of recent samples whose average
// approximates an instantaneous rate. One window lives for one download.
type SampleWindow struct {
	data []float64
	pos  int
	size int
}

func NewSampleWindow(size int) *SampleWindow {
	if size <= 0 {
		size = 25
	}
	return &SampleWindow{size: size}
}

func (w *SampleWindow) Add(v float64) {
	if w.size <= 0 {
		w.size = 25
	}
	if len(w.data) < w.size {
		w.data = append(w.data, v)
	} else {
		w.data[w.pos] = v
	}
	w.pos = (w.pos + 1) % w.size
}

func (w *SampleWindow) Average() float64 {
	if len(w.data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range w.data {
		sum += v
	}
	return sum / float64(len(w.data))
}

// FormatBytesPerSecond renders a rate with decimal unit thresholds.
func FormatBytesPerSecond(num float64) string {
	unit := "B/s"
	switch {
	case num >= 1000000:
		num /= 1000000
		unit = "MB/s"
	case num >= 1000:
		num /= 1000
		unit = "KB/s"
	}
	return fmt.Sprintf("%.1f %s", num, unit)
}

func FormatMinutes(num float64) string {
	unit := "mins"
	switch {
	case num < 1:
		num *= 60
		unit = "secs"
	case num > 1440:
		num /= 1440
		unit = "days"
	case num > 60:
		num /= 60
		unit = "hours"
	}
	return fmt.Sprintf("%.1f %s", num, unit)
}
