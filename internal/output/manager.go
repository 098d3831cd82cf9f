package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

type StreamOutput struct {
	ID          int
	URL         string
	Status      string
	Message     string
	StreamLines []string
	Complete    bool
	StartTime   time.Time
	LastUpdated time.Time
	Error       error
	Index       int
}

type ErrorReport struct {
	Source string
	Error  error
	Time   time.Time
}

// Manager renders every registered stream's status in place, redrawing
// the block on a ticker instead of scrolling the terminal.
type Manager struct {
	outputs     map[int]*StreamOutput
	mutex       sync.RWMutex
	numLines    int
	maxStreams  int // Max stream lines kept per download
	errors      []ErrorReport
	doneCh      chan struct{}
	displayTick time.Duration
	streamCount int
	displayWg   sync.WaitGroup
}

func NewManager() *Manager {
	return &Manager{
		outputs:     make(map[int]*StreamOutput),
		errors:      []ErrorReport{},
		maxStreams:  10,
		doneCh:      make(chan struct{}),
		displayTick: 300 * time.Millisecond,
	}
}

// Register adds a stream to the display and returns its id.
func (m *Manager) Register(url string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.streamCount++
	m.outputs[m.streamCount] = &StreamOutput{
		ID:          m.streamCount,
		URL:         url,
		Status:      "pending",
		StreamLines: []string{},
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
		Index:       m.streamCount,
	}
	return m.streamCount
}

func (m *Manager) SetMessage(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Message = message
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) SetStatus(id int, status string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Status = status
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) Complete(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.StreamLines = []string{}
		if message == "" {
			info.Message = fmt.Sprintf("Completed %s", info.URL)
		} else {
			info.Message = message
		}
		info.Complete = true
		info.Status = "success"
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) ReportError(id int, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		info.Complete = true
		info.Status = "error"
		info.Error = err
		info.LastUpdated = time.Now()
		m.errors = append(m.errors, ErrorReport{
			Source: info.URL,
			Error:  err,
			Time:   time.Now(),
		})
	}
}

// Errors returns every failure reported so far, in arrival order.
func (m *Manager) Errors() []ErrorReport {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return append([]ErrorReport(nil), m.errors...)
}

func (m *Manager) AddStreamLine(id int, line string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		wrappedLines := wrapText(line, 2+4)
		info.StreamLines = append(info.StreamLines, wrappedLines...)
		if len(info.StreamLines) > m.maxStreams {
			info.StreamLines = info.StreamLines[len(info.StreamLines)-m.maxStreams:]
		}
		info.LastUpdated = time.Now()
	}
}

// SetProgress replaces the stream's output with a single progress bar
// line. text carries whatever the download loop wants shown after the
// counts, typically the current rate.
func (m *Manager) SetProgress(id int, completed, total int64, text string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if info, exists := m.outputs[id]; exists {
		progressBar := PrintProgressBar(max(0, completed), total, 30)
		counts := fmt.Sprintf("%d/%d segments", completed, total)
		display := fmt.Sprintf("%s%s %s %s", progressBar, debugStyle.Render(counts), StyleSymbols["bullet"], debugStyle.Render(text))
		info.StreamLines = []string{display} // Replace, so the bar never scrolls
		info.LastUpdated = time.Now()
	}
}

func (m *Manager) ClearAll() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for id := range m.outputs {
		m.outputs[id].StreamLines = []string{}
	}
}

func (m *Manager) statusIndicator(status string) string {
	switch status {
	case "success", "pass":
		return successStyle.Render(StyleSymbols["pass"])
	case "error", "fail":
		return errorStyle.Render(StyleSymbols["fail"])
	case "warning":
		return warningStyle.Render(StyleSymbols["warning"])
	case "pending":
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

func (m *Manager) sortStreams() (active, pending, completed []*StreamOutput) {
	var all []*StreamOutput
	for _, info := range m.outputs {
		all = append(all, info)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Index < all[j].Index
	})
	for _, s := range all {
		if s.Complete {
			completed = append(completed, s)
		} else if s.Status == "pending" && s.Message == "" {
			pending = append(pending, s)
		} else {
			active = append(active, s)
		}
	}
	return active, pending, completed
}

func (m *Manager) renderStream(info *StreamOutput, lineCount, availableLines int) int {
	statusDisplay := m.statusIndicator(info.Status)
	elapsed := time.Since(info.StartTime).Round(time.Second)
	if info.Complete {
		elapsed = info.LastUpdated.Sub(info.StartTime).Round(time.Second)
	}
	var styledMessage string
	switch info.Status {
	case "success":
		styledMessage = successStyle.Render(info.Message)
	case "error":
		styledMessage = errorStyle.Render(info.Message)
	case "warning":
		styledMessage = warningStyle.Render(info.Message)
	default:
		styledMessage = pendingStyle.Render(info.Message)
	}
	fmt.Printf("%s%s %s %s\n", strings.Repeat(" ", 2), statusDisplay, debugStyle.Render(elapsed.String()), styledMessage)
	lineCount++
	if len(info.StreamLines) > 0 && lineCount < availableLines {
		indent := strings.Repeat(" ", 2+4)
		for _, line := range info.StreamLines {
			if lineCount >= availableLines {
				break
			}
			fmt.Printf("%s%s\n", indent, streamStyle.Render(line))
			lineCount++
		}
	}
	return lineCount
}

func (m *Manager) updateDisplay() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	_, termHeight, _ := term.GetSize(int(os.Stdout.Fd()))
	if termHeight <= 0 {
		termHeight = 24
	}
	availableLines := termHeight - 3 // Leave room for the prompt

	if m.numLines > 0 {
		fmt.Printf("\033[%dA\033[J", m.numLines)
	}

	lineCount := 0
	active, pending, completed := m.sortStreams()

	totalNeeded := 0
	for _, s := range active {
		totalNeeded += 1 + len(s.StreamLines)
	}
	totalNeeded += len(pending) + len(completed)
	if totalNeeded > availableLines {
		maxCompleted := availableLines - (totalNeeded - len(completed))
		if maxCompleted < 0 {
			maxCompleted = 0
		}
		if len(completed) > maxCompleted {
			completed = completed[len(completed)-maxCompleted:]
		}
	}

	for _, s := range active {
		if lineCount >= availableLines {
			break
		}
		lineCount = m.renderStream(s, lineCount, availableLines)
	}
	for _, s := range pending {
		if lineCount >= availableLines {
			break
		}
		fmt.Printf("%s%s %s\n", strings.Repeat(" ", 2), m.statusIndicator(s.Status), pendingStyle.Render("Waiting..."))
		lineCount++
	}
	if len(completed) > 10 && lineCount < availableLines {
		PrintInfo(fmt.Sprintf("%s%d streams finished with hidden status ...", strings.Repeat(" ", 2), len(completed)-8))
		completed = completed[len(completed)-8:]
		lineCount++
	}
	for _, s := range completed {
		if lineCount >= availableLines {
			break
		}
		lineCount = m.renderStream(s, lineCount, availableLines)
	}
	m.numLines = lineCount
}

func (m *Manager) StartDisplay() {
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.updateDisplay()
			case <-m.doneCh:
				m.ClearAll()
				m.updateDisplay()
				m.ShowSummary()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
}

func (m *Manager) displayErrors() {
	if len(m.errors) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(strings.Repeat(" ", 2) + errorStyle.Bold(true).Render("Errors:"))
	for i, err := range m.errors {
		fmt.Printf("%s%s %s %s\n",
			strings.Repeat(" ", 2+2),
			errorStyle.Render(fmt.Sprintf("%d.", i+1)),
			debugStyle.Render(fmt.Sprintf("[%s]", err.Time.Format("15:04:05"))),
			errorStyle.Render(fmt.Sprintf("Stream: %s", err.Source)))
		fmt.Printf("%s%s\n", strings.Repeat(" ", 2+4), errorStyle.Render(fmt.Sprintf("Error: %v", err.Error)))
	}
}

func (m *Manager) ShowSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	fmt.Println()
	var success, failures int
	for _, info := range m.outputs {
		if info.Status == "success" {
			success++
		} else if info.Status == "error" {
			failures++
		}
	}
	fmt.Println(strings.Repeat(" ", 2) + success2Style.Render(fmt.Sprintf("Completed %d of %d", success, len(m.outputs))))
	if failures > 0 {
		fmt.Println(strings.Repeat(" ", 2) + errorStyle.Render(fmt.Sprintf("Failed %d of %d", failures, len(m.outputs))))
	}
	m.displayErrors()
	fmt.Println()
}
