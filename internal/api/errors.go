package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxErrorMessage = 200

// Error is returned for any non-2xx response. The client does not branch on
// status codes; callers may inspect StatusCode if they care.
type Error struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("failed to %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("failed to %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *Error with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// errorMessage extracts a human readable message from an error body. Both
// {"message": ...} and {"error": ...} shapes are understood; anything else is
// returned as trimmed text.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return truncate(strings.TrimSpace(string(body)), maxErrorMessage)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
