package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/matchmate/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrPaymentRequired is an opaque membership signal; the client does not
	// interpret it beyond surfacing it.
	ErrPaymentRequired = errors.New("payment required")
)

const maxRawMessage = 500

// RemoteError is a non-2xx response. It matches common.ErrRemoteRejected
// and, for 401/403 and 402, ErrUnauthorized and ErrPaymentRequired.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote rejected (%d): %s", e.StatusCode, e.Message)
}

// UserMessage is the message extracted from the response body.
func (e *RemoteError) UserMessage() string { return e.Message }

func (e *RemoteError) Unwrap() []error {
	errs := []error{common.ErrRemoteRejected}
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		errs = append(errs, ErrUnauthorized)
	case http.StatusPaymentRequired:
		errs = append(errs, ErrPaymentRequired)
	}
	return errs
}

// ExtractMessage derives one human-readable message from an error body.
// Structured JSON is tried first; otherwise the raw text is used, and an
// empty body falls back to the HTTP status text.
func ExtractMessage(status int, body []byte) string {
	var v any
	if err := json.Unmarshal(body, &v); err == nil {
		if msgs := collectMessages(v); len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return http.StatusText(status)
	}
	if len(raw) > maxRawMessage {
		cut := maxRawMessage
		for cut > 0 && !utf8.RuneStart(raw[cut]) {
			cut--
		}
		raw = raw[:cut] + "…"
	}
	return raw
}

func collectMessages(v any) []string {
	switch x := v.(type) {
	case string:
		if s := strings.TrimSpace(x); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, item := range x {
			out = append(out, collectMessages(item)...)
		}
		return out
	case map[string]any:
		for _, key := range []string{"message", "messages", "error", "errors", "detail", "msg"} {
			if inner, ok := x[key]; ok {
				if msgs := collectMessages(inner); len(msgs) > 0 {
					return msgs
				}
			}
		}
		// field -> messages maps, e.g. {"city": ["required"]}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			for _, m := range stringsOf(x[k]) {
				out = append(out, k+": "+m)
			}
		}
		return out
	}
	return nil
}

func stringsOf(v any) []string {
	switch x := v.(type) {
	case string:
		return []string{x}
	case []any:
		var out []string
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
