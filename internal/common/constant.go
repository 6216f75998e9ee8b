// Package common contains shared constants and sentinel errors used across
// matchmate client components.
package common

const (
	// AuthorizationHeaderName carries the bearer token on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// RequestIDHeaderName correlates a client request with backend logs.
	RequestIDHeaderName = "X-Request-ID"

	// ProfileIncompleteMessage replaces backend messages that mean the
	// caller's own profile is not filled in enough to search.
	ProfileIncompleteMessage = "Please complete your profile before searching."
)
