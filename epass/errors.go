package epass

import (
	"errors"
	"fmt"
)

var (
	// ErrTokenNotConfigured means no token source (primary store, local
	// store, environment) yielded a usable access/refresh pair. Not
	// recoverable without operator intervention.
	ErrTokenNotConfigured = errors.New("epass tokens not configured: provide EPASS_TOKEN and EPASS_REFRESH_TOKEN or store a token pair")

	// ErrAuthentication means both the refresh-token grant and the
	// password-grant fallback failed, or no credentials are configured.
	// The UI layer should prompt for a re-link rather than show a
	// generic failure.
	ErrAuthentication = errors.New("epass authentication failed")
)

// UpstreamError is a failure reported by the operator API itself: a
// business-level status embedded in the payload, or a non-2xx HTTP
// response that the 401 retry path did not resolve.
type UpstreamError struct {
	StatusCode  int    // HTTP status, 0 for payload-level failures
	Code        int    // operator status code from the response payload
	Description string // operator-provided description, may be empty
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Description != "":
		return fmt.Sprintf("epass api error: status %d: %s", e.StatusCode, e.Description)
	case e.StatusCode != 0:
		return fmt.Sprintf("epass api error: status %d", e.StatusCode)
	case e.Description != "":
		return fmt.Sprintf("epass api error: %s", e.Description)
	default:
		return fmt.Sprintf("epass api error: code %d", e.Code)
	}
}

// ParseTimestampError reports a transaction timestamp that does not match
// the operator's DD/MM/YYYY HH:mm:ss wire format.
type ParseTimestampError struct {
	Value string
	Err   error
}

func (e *ParseTimestampError) Error() string {
	return fmt.Sprintf("invalid epass timestamp %q: %v", e.Value, e.Err)
}

func (e *ParseTimestampError) Unwrap() error { return e.Err }
