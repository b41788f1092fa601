package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
)

// APIError represents an error response from a service.
//
// The authentication service wraps upstream IAM errors in a "detail"
// string that embeds the original JSON error body; OAuthError unwraps
// it. The other services return plain message/detail fields.
type APIError struct {
	StatusCode  int    `json:"-"`
	Message     string `json:"message,omitempty"`
	Detail      string `json:"detail,omitempty"`
	Code        string `json:"error,omitempty"`
	Description string `json:"error_description,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	case e.Code != "":
		return e.Code
	case e.Message != "":
		return e.Message
	case e.Detail != "":
		return e.Detail
	default:
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
}

func (e *APIError) empty() bool {
	return e.Message == "" && e.Detail == "" && e.Code == ""
}

// IsAuthError returns true if the request was rejected for missing or
// invalid credentials.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFound returns true if the resource does not exist.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// wrappedErrorPattern extracts the JSON body the authentication service
// embeds at the end of its "detail" string, e.g.
//
//	"401: upstream error, response: {\"error\": \"authorization_pending\"}"
var wrappedErrorPattern = regexp.MustCompile(`response:\s*(\{.*\})\s*$`)

// OAuthError returns the OAuth error code and description carried by the
// response, unwrapping the detail field if necessary. Both strings are
// empty when the response carries no recognizable OAuth error.
func (e *APIError) OAuthError() (code, description string) {
	if e.Code != "" {
		return e.Code, e.Description
	}

	if match := wrappedErrorPattern.FindStringSubmatch(e.Detail); match != nil {
		var embedded struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		if json.Unmarshal([]byte(match[1]), &embedded) == nil {
			return embedded.Error, embedded.Description
		}
	}

	return "", ""
}
