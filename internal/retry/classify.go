package retry

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// statusTooManyRequests is the one status code the classifier cares about.
// Spelled as a literal so this package stays ignorant of net/http.
const statusTooManyRequests = 429

// statusCoder is probed through the wrapped error chain to find an explicit
// status signal. Collaborating error types (API client wrappers and the
// like) expose their HTTP-ish status through it.
type statusCoder interface {
	StatusCode() int
}

// retryableFragments are matched against the lowercased error message.
// Best-effort transient detection for errors that carry no status; kept
// behind this single classification point.
var retryableFragments = []string{
	"resource_exhausted",
	"quota",
	"rate limit",
	"network",
	"fetch",
	"timeout",
}

// minedStatusPattern extracts a "(429)"-style status embedded in a message
// when no structured status is available.
var minedStatusPattern = regexp.MustCompile(`\((\d{3})\)`)

// Server retry hint patterns, checked in order; first match wins. The first
// two carry seconds, the third milliseconds.
var (
	retryDelayPattern        = regexp.MustCompile(`(?i)RetryDelay:\s*(\d+(?:\.\d+)?)s`)
	retryAfterSecondsPattern = regexp.MustCompile(`(?i)retry after\s+(\d+(?:\.\d+)?)\s*s`)
	retryAfterMillisPattern  = regexp.MustCompile(`(?i)retryAfter:\s*(\d+)`)
)

// Retryable reports whether err looks like a transient failure worth
// another attempt: a 429 status (explicit, nested, or mined from the
// message) or a message mentioning quota/rate-limit/network trouble.
// Absence of a recognizable status is not itself disqualifying.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	if statusOf(err) == statusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range retryableFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// statusOf extracts a coarse status signal from err: an explicit
// StatusCode anywhere in the wrapped chain, else a "(NNN)" substring mined
// from the message. Returns 0 when nothing recognizable is found.
func statusOf(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}

	if m := minedStatusPattern.FindStringSubmatch(err.Error()); m != nil {
		code, convErr := strconv.Atoi(m[1])
		if convErr == nil {
			return code
		}
	}
	return 0
}

// serverAdvisedDelay parses an optional server-supplied retry hint from the
// error message. The hint is authoritative in one direction only: it can
// push the computed wait up (even past the local MaxDelay ceiling), never
// down.
func serverAdvisedDelay(err error) time.Duration {
	msg := err.Error()

	if m := retryDelayPattern.FindStringSubmatch(msg); m != nil {
		return secondsToDuration(m[1])
	}
	if m := retryAfterSecondsPattern.FindStringSubmatch(msg); m != nil {
		return secondsToDuration(m[1])
	}
	if m := retryAfterMillisPattern.FindStringSubmatch(msg); m != nil {
		ms, convErr := strconv.Atoi(m[1])
		if convErr == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return 0
}

func secondsToDuration(s string) time.Duration {
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
