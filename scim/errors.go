package scim

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrNoRemoteID      = errors.New("scim: create response carries no resource id")
	ErrInvalidPin      = errors.New("scim: invalid pinned public key")
	ErrPinMismatch     = errors.New("scim: server public key does not match any pin")
	ErrIncompleteCert  = errors.New("scim: client certificate and key must be configured together")
	ErrEmptyResourceID = errors.New("scim: empty resource id")
)

// maximum response body kept on a StatusError
const maxErrorBody = 512

// StatusError reports an HTTP response whose status differs from the one
// the SCIM operation requires.
type StatusError struct {
	Method string
	URL    string
	Got    int
	Want   int
	Body   string
}

func (e *StatusError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: HTTP response code %d returned, expected %d", e.Method, e.URL, e.Got, e.Want)
	if e.Body != "" {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	return b.String()
}

func newStatusError(method, url string, got, want int, body []byte) *StatusError {
	excerpt := strings.TrimSpace(string(body))
	if len(excerpt) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = excerpt[:cut] + "..."
	}
	return &StatusError{Method: method, URL: url, Got: got, Want: want, Body: excerpt}
}
