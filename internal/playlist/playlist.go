package playlist

import (
	"fmt"
	"strings"
)

// Playlist is one resolved stream manifest: the raw manifest bytes, the
// ordered segment URLs, and the derived output base name. SourceIndex
// back-references the caller's URL list; the playlist does not own it.
type Playlist struct {
	SourceIndex int
	Raw         []byte
	Segments    []string
	Filename    string
}

// New builds a Playlist from raw manifest bytes, deriving the output name
// from the manifest URL.
func New(raw []byte, manifestURL string, sourceIndex int) (*Playlist, error) {
	filename, err := ParseStreamURL(manifestURL)
	if err != nil {
		return nil, err
	}
	return NewFromFilename(raw, filename, sourceIndex), nil
}

// NewFromFilename builds a Playlist with an already-known output name.
// Directive lines and lines shorter than two characters are dropped; of the
// remaining entries the first and last are host-injected boundary markers,
// not playable segments. Segment order is append order and is never
// rearranged.
func NewFromFilename(raw []byte, filename string, sourceIndex int) *Playlist {
	var items []string
	for _, line := range strings.Split(string(raw), "\n") {
		if len(line) < 2 || strings.HasPrefix(line, "#") {
			continue
		}
		items = append(items, line)
	}
	if len(items) > 1 {
		items = items[1 : len(items)-1]
	} else {
		items = nil
	}
	return &Playlist{
		SourceIndex: sourceIndex,
		Raw:         raw,
		Segments:    items,
		Filename:    filename,
	}
}

// Nil returns the "nothing to do" sentinel for sourceIndex; it
// short-circuits every downstream stage.
func Nil(sourceIndex int) *Playlist {
	return NewFromFilename(nil, "", sourceIndex)
}

func (p *Playlist) Len() int {
	return len(p.Segments)
}

func (p *Playlist) IsNil() bool {
	return p == nil || len(p.Raw) == 0
}

// Origin returns the host component of the first segment URL, used to group
// concurrent downloads by server.
func (p *Playlist) Origin() (string, error) {
	if len(p.Segments) == 0 {
		return "", fmt.Errorf("playlist contains no data")
	}
	parts := strings.Split(p.Segments[0], "/")
	if len(parts) < 3 {
		return "", fmt.Errorf("playlist doesn't contain urls")
	}
	return parts[2], nil
}

// ParseStreamURL derives the canonical output base name from a manifest URL
// whose path carries the username at the fifth slash-delimited component and
// a 5-part comma/hyphen timestamp at the sixth. A 4-digit year is truncated
// to its last two digits.
func ParseStreamURL(url string) (string, error) {
	parts := strings.Split(url, "/")
	if len(parts) < 6 {
		return "", fmt.Errorf("wrong url format")
	}
	username := parts[4]
	date := strings.ReplaceAll(parts[5], ",", "-")
	dateParts := strings.Split(date, "-")
	if len(dateParts) < 5 {
		return "", fmt.Errorf("wrong date format")
	}
	if len(dateParts[0]) == 4 {
		dateParts[0] = dateParts[0][2:]
	}
	return fmt.Sprintf("CB_%s_%s-%s-%s_%s-%s", username, dateParts[0], dateParts[1], dateParts[2], dateParts[3], dateParts[4]), nil
}
