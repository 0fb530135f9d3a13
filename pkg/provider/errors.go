package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a provider failure for the retry/fallback policy.
type ErrorKind int

const (
	// KindTransient covers 5xx, malformed responses and network hiccups.
	// Retried with backoff, then the chain falls through.
	KindTransient ErrorKind = iota
	// KindAuth covers bad or missing credentials. Never retried; the
	// provider is marked unhealthy immediately.
	KindAuth
	// KindRateLimited is a 429 from the provider itself. Treated as
	// transient.
	KindRateLimited
	// KindTimeout is a call that exceeded its deadline. Treated as
	// transient.
	KindTimeout
)

// Error is a classified provider failure.
type Error struct {
	Kind     ErrorKind
	Provider string
	Status   int
	Msg      string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Msg, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Msg)
}

var authMessagePatterns = []string{
	"invalid api key",
	"invalid x-api-key",
	"incorrect api key",
	"unauthorized",
	"authentication",
	"api key not configured",
	"permission denied",
}

// IsPermanent reports whether an error is an authentication-class failure
// that should stop all retries against the provider.
func IsPermanent(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		if pe.Kind == KindAuth {
			return true
		}
		if pe.Status == 401 || pe.Status == 403 {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, p := range authMessagePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// classifyStatus maps an upstream HTTP status to an ErrorKind.
func classifyStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindRateLimited
	default:
		return KindTransient
	}
}

// wrapCallError converts a transport-level error into a classified Error.
func wrapCallError(providerID string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Provider: providerID, Msg: "request timed out"}
	}
	return &Error{Kind: KindTransient, Provider: providerID, Msg: err.Error()}
}
