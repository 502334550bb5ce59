package api

import (
	"errors"
	"fmt"
	"time"
)

// Classified upstream failures. Callers branch with errors.Is; the two
// body-carrying kinds additionally unwrap via errors.As.
var (
	ErrRequest      = errors.New("failed to build request")
	ErrNetwork      = errors.New("network error")
	ErrNotFound     = errors.New("not found")
	ErrNoContent    = errors.New("no content")
	ErrUnauthorized = errors.New("unauthorized")
	ErrServer       = errors.New("server error")
	ErrJSONDecode   = errors.New("invalid json response")
	ErrUnknown      = errors.New("unknown error")
	ErrCancelled    = errors.New("cancelled")
)

// ClientError is any other 4xx, with whatever body the upstream attached.
type ClientError struct {
	StatusCode int
	Body       string
}

func (e *ClientError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("client error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("client error (%d): %s", e.StatusCode, e.Body)
}

// OAuthErrorResponse is the upstream's standard token endpoint error object.
type OAuthErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorURI         string `json:"error_uri"`
}

// OAuthError is a 4xx from the token endpoint; Response is nil when the
// body did not parse.
type OAuthError struct {
	Response *OAuthErrorResponse
}

func (e *OAuthError) Error() string {
	if e.Response == nil {
		return "oauth error"
	}
	return fmt.Sprintf("oauth error: %s (%s)", e.Response.Error, e.Response.ErrorDescription)
}

var ErrOAuthStorage = errors.New("oauth token storage error")

// OAuthExpiredError reports a token that can no longer be refreshed.
type OAuthExpiredError struct {
	When time.Time
}

func (e *OAuthExpiredError) Error() string {
	return fmt.Sprintf("oauth token expired at %s", e.When.Format(time.RFC3339))
}

func classifyStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == 401 || status == 403:
		return ErrUnauthorized
	case status == 404:
		return ErrNotFound
	case status >= 400 && status < 500:
		return &ClientError{StatusCode: status, Body: string(body)}
	case status >= 500 && status < 600:
		return ErrServer
	default:
		return ErrUnknown
	}
}
