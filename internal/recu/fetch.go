package recu

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/recudl/internal/utils"
)

const (
	initialFetchTimeout = 10 * time.Second
	rateLimitDelay      = 100 * time.Millisecond
)

// fetchPolicy parameterizes the bounded-retry loop so the page and
// segment call sites share one primitive instead of drifting apart.
type fetchPolicy struct {
	maxRetries  int
	retryDelay  time.Duration
	timeoutStep time.Duration
	segment     bool // 429 retries for free, 410 exhausts the budget
}

var (
	pagePolicy    = fetchPolicy{maxRetries: 5, retryDelay: 200 * time.Millisecond, timeoutStep: 30 * time.Second}
	segmentPolicy = fetchPolicy{maxRetries: 5, retryDelay: time.Second, timeoutStep: 30 * time.Second, segment: true}
)

// doRequest performs a single GET with the given headers under a
// per-attempt deadline and returns the full body and status code.
func doRequest(ctx context.Context, client *utils.RecuHTTPClient, url string, headers map[string]string, timeout time.Duration) ([]byte, int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}

// fetchWithRetry GETs url until it gets a 200 or the policy's retry
// budget runs out. Transport failures widen the next attempt's deadline
// by timeoutStep; page fetches widen it on every failure. The last
// error is surfaced, with HTTP failures reported as a StatusError
// carrying the truncated body.
func fetchWithRetry(ctx context.Context, client *utils.RecuHTTPClient, url string, headers map[string]string, timeout time.Duration, policy fetchPolicy) ([]byte, error) {
	retry := 0
	for {
		if cerr := ctx.Err(); cerr != nil {
			return nil, fmt.Errorf("aborting: %w", cerr)
		}
		data, status, err := doRequest(ctx, client, url, headers, timeout)
		if err == nil && status == http.StatusOK {
			return data, nil
		}
		if policy.segment && status == http.StatusTooManyRequests {
			// Rate limiting does not consume the retry budget.
			time.Sleep(rateLimitDelay)
			continue
		}
		transportErr := err != nil
		if transportErr {
			err = fmt.Errorf("request failed: %w", err)
		} else if status == http.StatusGone && policy.segment {
			log.Error().Str("op", "recu/fetch").Msg("Download Expired")
			retry = policy.maxRetries
			err = fmt.Errorf("status code: %d: %w", status, ErrExpired)
		} else {
			err = &StatusError{Code: status, Body: utils.Shorten(string(data), 200)}
		}
		retry++
		if retry > policy.maxRetries {
			return nil, err
		}
		if transportErr || !policy.segment {
			timeout += policy.timeoutStep
		}
		log.Warn().Str("op", "recu/fetch").Msgf("Error: %s, Retrying...", utils.Shorten(err.Error(), 40))
		time.Sleep(policy.retryDelay)
	}
}
