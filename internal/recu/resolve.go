package recu

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/recudl/internal/playlist"
	"github.com/tanq16/recudl/internal/utils"
)

// Resolve turns a video page URL into a quality-selected, fully
// qualified segment playlist. The chain is page -> embedded token and
// video id -> API endpoint -> manifest, with the max-quality variant
// followed when the manifest is a master playlist. The returned Outcome
// classifies non-OK results for user-facing reporting; the playlist is
// the nil sentinel whenever the Outcome is not OutcomeOK.
func Resolve(ctx context.Context, client *utils.RecuHTTPClient, pageURL string, template map[string]string, sourceIndex int) (*playlist.Playlist, Outcome, error) {
	log.Info().Str("op", "recu/resolve").Msgf("Downloading page %s", pageURL)
	pageData, err := fetchWithRetry(ctx, client, pageURL, FormatHeaders(template, "", PageHeaders), initialFetchTimeout, pagePolicy)
	if err != nil {
		return playlist.Nil(sourceIndex), OutcomeBlocked, err
	}
	html := string(pageData)
	token, err := utils.SearchString(html, `data-token="`, `"`)
	if err != nil {
		return playlist.Nil(sourceIndex), OutcomeProtocolError, err
	}
	// The video id sits after the token in the page, so scope the second
	// search to that section.
	section := html
	if idx := strings.Index(html, token); idx != -1 {
		section = html[idx:]
	}
	videoID, err := utils.SearchString(section, `data-video-id="`, `"`)
	if err != nil {
		return playlist.Nil(sourceIndex), OutcomeProtocolError, err
	}
	apiURL := strings.Join(strings.Split(pageURL, "/")[:3], "/") + "/api/video/" + videoID + "?token=" + token
	log.Info().Str("op", "recu/resolve").Msg("Getting link to playlist")
	apiData, err := fetchWithRetry(ctx, client, apiURL, FormatHeaders(template, apiURL, APIHeaders), initialFetchTimeout, pagePolicy)
	if err != nil {
		return playlist.Nil(sourceIndex), OutcomeProtocolError, err
	}
	switch string(apiData) {
	case "shall_subscribe":
		return playlist.Nil(sourceIndex), OutcomeRateLimited, nil
	case "shall_signin":
		return playlist.Nil(sourceIndex), OutcomeNeedsAuth, nil
	case "wrong_token":
		return playlist.Nil(sourceIndex), OutcomeProtocolError, ErrWrongToken
	}
	manifestURL, err := utils.SearchString(string(apiData), `<source src="`, `"`)
	if err != nil {
		return playlist.Nil(sourceIndex), OutcomeProtocolError, err
	}
	manifestURL = strings.ReplaceAll(manifestURL, "amp;", "")
	log.Info().Str("op", "recu/resolve").Msg("Downloading playlist")
	manifestData, err := fetchWithRetry(ctx, client, manifestURL, FormatHeaders(template, "", SegmentHeaders), initialFetchTimeout, pagePolicy)
	if err != nil {
		return playlist.Nil(sourceIndex), OutcomeProtocolError, err
	}
	body := string(manifestData)
	lines := strings.Split(body, "\n")
	prefix := ""
	if idx := strings.LastIndex(manifestURL, "/"); idx != -1 {
		prefix = manifestURL[:idx+1]
	}
	if strings.Contains(body, "EXT-X-STREAM-INF") {
		// Master playlist: the line after the last NAME=max stream entry
		// is the variant to follow.
		for i := 0; i < len(lines)-1; i++ {
			if strings.Contains(lines[i], "NAME=max") {
				next := lines[i+1]
				if !strings.Contains(next, prefix) {
					next = prefix + next
				}
				manifestURL = next
			}
		}
		log.Debug().Str("op", "recu/resolve").Msgf("Following max-quality variant %s", manifestURL)
		manifestData, err = fetchWithRetry(ctx, client, manifestURL, FormatHeaders(template, "", SegmentHeaders), initialFetchTimeout, pagePolicy)
		if err != nil {
			return playlist.Nil(sourceIndex), OutcomeProtocolError, err
		}
		lines = strings.Split(string(manifestData), "\n")
	}
	for i, line := range lines {
		if len(line) < 2 || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, prefix) {
			lines[i] = prefix + line
		}
	}
	pl, err := playlist.New([]byte(strings.Join(lines, "\n")), manifestURL, sourceIndex)
	if err != nil {
		return playlist.Nil(sourceIndex), OutcomeProtocolError, err
	}
	return pl, OutcomeOK, nil
}
