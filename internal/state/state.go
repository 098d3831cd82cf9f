package state

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const DefaultPath = "recu_state.json"

type Status string

const (
	StatusComplete Status = "COMPLETE"
	StatusFailed   Status = "FAILED"
	StatusAborted  Status = "ABORTED"
)

// Entry is one finished download attempt. LastIndex is the segment to
// resume from and stays null for completed downloads.
type Entry struct {
	ID          string `json:"id"`
	Timestamp   int64  `json:"timestamp"`
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	Status      Status `json:"status"`
	LastIndex   *int   `json:"last_index"`
	SourceIndex int    `json:"source_index"`
}

// Log is an append-only run history. Appends are fire-and-forget at the
// call sites; history must never block or fail a download.
type Log struct {
	mu   sync.Mutex
	path string
}

func NewLog(path string) *Log {
	if path == "" {
		path = DefaultPath
	}
	return &Log{path: path}
}

func (l *Log) Append(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().Unix()
	}
	entries := l.load()
	entries = append(entries, entry)
	data, err := json.MarshalIndent(fileShape{Entries: entries}, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0644)
}

func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

type fileShape struct {
	Entries []Entry `json:"entries"`
}

// load tolerates a missing or corrupt history file by starting fresh.
func (l *Log) load() []Entry {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil
	}
	var shape fileShape
	if err := json.Unmarshal(data, &shape); err != nil {
		log.Warn().Str("op", "state").Msgf("unreadable history file %s, starting fresh", l.path)
		return nil
	}
	return shape.Entries
}
