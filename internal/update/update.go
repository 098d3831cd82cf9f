package update

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var releaseURL = "https://api.github.com/repos/tanq16/recudl/releases/latest"

// Check asks GitHub for the latest release and returns its tag and page
// link when it is newer than current. Every failure returns empty
// strings. The request goes through a plain client; session headers
// stay on the media host.
func Check(ctx context.Context, current string) (tag, link string) {
	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, releaseURL, nil)
	if err != nil {
		return "", ""
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", ""
	}
	var release map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", ""
	}
	if pre, ok := release["prerelease"].(bool); ok && pre {
		return "", ""
	}
	latest, ok := release["tag_name"].(string)
	if !ok || !Newer(latest, current) {
		return "", ""
	}
	log.Debug().Str("op", "update").Msgf("latest release %s", latest)
	page, _ := release["html_url"].(string)
	return latest, page
}

// Newer reports whether candidate is a strictly newer numeric version
// than current. Tags may carry a leading v; components compare
// numerically and a longer tag wins a shared prefix. Anything
// non-numeric compares as not newer.
func Newer(candidate, current string) bool {
	cand := strings.Split(strings.TrimPrefix(strings.TrimSpace(candidate), "v"), ".")
	curr := strings.Split(strings.TrimPrefix(strings.TrimSpace(current), "v"), ".")
	n := min(len(cand), len(curr))
	for i := 0; i < n; i++ {
		a, err := strconv.Atoi(cand[i])
		if err != nil {
			return false
		}
		b, err := strconv.Atoi(curr[i])
		if err != nil {
			return false
		}
		if a != b {
			return a > b
		}
	}
	for _, part := range cand[n:] {
		v, err := strconv.Atoi(part)
		if err != nil {
			return false
		}
		if v > 0 {
			return true
		}
	}
	return false
}
