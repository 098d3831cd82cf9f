package recu

import (
	"errors"
	"fmt"
)

// Outcome classifies the result of a resolution attempt so callers can
// report recoverable host responses without unwrapping errors.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeBlocked      // page fetch never succeeded, likely an edge block
	OutcomeNeedsAuth    // host asked for a signed-in session
	OutcomeRateLimited  // host asked the client to slow down
	OutcomeProtocolError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeNeedsAuth:
		return "needs cookie"
	case OutcomeRateLimited:
		return "rate limited"
	default:
		return "protocol error"
	}
}

// StatusError is the terminal failure of a retried fetch: the last HTTP
// status along with a truncated response body.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status code: %d, %s", e.Code, e.Body)
}

var (
	// ErrExpired marks an HTTP 410 on a segment fetch: the link set is
	// dead and no retry is attempted.
	ErrExpired = errors.New("download expired")
	// ErrWrongToken is the host's literal response when the page token
	// does not match the video.
	ErrWrongToken = errors.New("wrong token")
)
