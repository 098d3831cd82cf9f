package config

import (
	"fmt"
	"os"

	"github.com/tanq16/recudl/internal/utils"
	"gopkg.in/yaml.v3"
)

// BatchFile is the YAML shape accepted by the batch command, a friendlier
// front end to the same targets the JSON config encodes positionally.
type BatchFile struct {
	Streams []BatchEntry `yaml:"streams"`
}

type BatchEntry struct {
	Link     string   `yaml:"link"`
	Range    []string `yaml:"range,omitempty"`
	Resume   int      `yaml:"resume,omitempty"`
	Complete bool     `yaml:"complete,omitempty"`
}

// LoadBatch reads a YAML batch file and decodes each entry into a
// download target.
func LoadBatch(path string) ([]Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading batch file: %w", err)
	}
	var batch BatchFile
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("error parsing batch file: %w", err)
	}
	if len(batch.Streams) == 0 {
		return nil, fmt.Errorf("no streams found in batch file")
	}
	targets := make([]Target, 0, len(batch.Streams))
	for i, entry := range batch.Streams {
		if entry.Link == "" {
			return nil, utils.NewValidationError("stream %d: link is required", i+1)
		}
		t := Target{
			URL:          entry.Link,
			Range:        [2]float64{0, 100},
			ResumeOffset: entry.Resume,
			Complete:     entry.Complete,
		}
		if len(entry.Range) > 0 {
			if len(entry.Range) != 3 {
				return nil, utils.NewValidationError("stream %d: range needs start, end, and total times", i+1)
			}
			r, err := ParsePercent(entry.Range[0], entry.Range[1], entry.Range[2])
			if err != nil {
				return nil, fmt.Errorf("stream %d: %w", i+1, err)
			}
			if r[1] <= r[0] {
				return nil, utils.NewValidationError("stream %d: time range is empty", i+1)
			}
			t.Range = r
		}
		targets = append(targets, t)
	}
	return targets, nil
}
