package config

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/recudl/internal/postprocess"
	"github.com/tanq16/recudl/internal/recu"
	"github.com/tanq16/recudl/internal/utils"
)

const DefaultPath = "config.json"

// Config is the persisted application configuration. Urls stays raw
// because entries are heterogeneous; DecodeTarget interprets them.
type Config struct {
	Urls        []json.RawMessage   `json:"urls"`
	Header      map[string]string   `json:"header"`
	PostProcess postprocess.Options `json:"post_process"`

	path string
}

// Default returns the skeleton configuration written on first run, with
// one empty URL slot and the header template keys the user must fill.
func Default(path string) *Config {
	return &Config{
		Urls:        []json.RawMessage{json.RawMessage(`""`)},
		Header:      map[string]string{"Cookie": "", "User-Agent": ""},
		PostProcess: postprocess.DefaultOptions(),
		path:        path,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{path: path}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if cfg.Header == nil {
		cfg.Header = make(map[string]string)
	}
	return cfg, nil
}

func (c *Config) Save() error {
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}

func (c *Config) Path() string {
	return c.path
}

// Empty reports whether the configuration is still the untouched
// skeleton: no usable first URL, or a Cookie or User-Agent that is
// missing or left blank.
func (c *Config) Empty() bool {
	if len(c.Urls) < 1 {
		return true
	}
	var s string
	if err := json.Unmarshal(c.Urls[0], &s); err == nil && s == "" {
		return true
	}
	if c.Header["Cookie"] == "" {
		return true
	}
	if c.Header["User-Agent"] == "" {
		return true
	}
	return false
}

// Targets decodes every configured URL entry, failing fast on the first
// malformed one so nothing is downloaded from a half-valid list.
func (c *Config) Targets() ([]Target, error) {
	targets := make([]Target, 0, len(c.Urls))
	for i, raw := range c.Urls {
		t, err := DecodeTarget(raw)
		if err != nil {
			return nil, fmt.Errorf("url %d: %w", i+1, err)
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// ParseHTML scrapes a profile page for video links and appends every
// hit to the configured URL list. The page is fetched once with no
// retries; a scrape is cheap to rerun by hand.
func (c *Config) ParseHTML(ctx context.Context, client *utils.RecuHTTPClient, profileURL string) error {
	parts := strings.Split(profileURL, "/")
	if len(parts) < 5 {
		return utils.NewValidationError("wrong profile url format")
	}
	name := parts[4]
	prefix := strings.Join(parts[:3], "/")

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, profileURL, nil)
	if err != nil {
		return err
	}
	for k, v := range recu.FormatHeaders(c.Header, "", recu.PageHeaders) {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s, status code: %d, cloudflare blocked", utils.Shorten(string(data), 200), resp.StatusCode)
	}

	marker := fmt.Sprintf(`href="/%s/video/`, name)
	urls := append([]json.RawMessage(nil), c.Urls...)
	found := 0
	for _, line := range strings.Split(string(data), "\n") {
		code, err := utils.SearchString(line, marker, `/play"`)
		if err != nil {
			continue
		}
		link, err := json.Marshal(fmt.Sprintf("%s/%s/video/%s/play", prefix, name, code))
		if err != nil {
			continue
		}
		urls = append(urls, json.RawMessage(link))
		found++
	}
	log.Info().Str("op", "config/parse").Msgf("Found %d videos for %s", found, name)
	c.Urls = urls
	return c.Save()
}
