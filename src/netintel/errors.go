// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netintel

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the netintel package.
var (
	// ErrInvalidInput is returned when the submitted target is empty or is
	// neither an IP address nor a domain name. No lookup is launched.
	ErrInvalidInput = errors.New("netintel: invalid target")

	// ErrEndpointUnavailable marks a 404 or 502 answer from an analyze
	// endpoint variant, meaning the variant is not deployed behind the proxy.
	ErrEndpointUnavailable = errors.New("netintel: endpoint variant unavailable")

	// ErrNoEndpointReachable is returned when fallback probing has no
	// candidate left and no concrete error was captured.
	ErrNoEndpointReachable = errors.New("netintel: analyze endpoint not reachable")

	// ErrNoIPFound is the warning recorded for the geolocation lookup when no
	// IP address could be discovered in the DNS or analyze payloads.
	ErrNoIPFound = errors.New("netintel: no IP address found in DNS or analyze response")

	// ErrInternalPanic is returned when a panic is recovered inside a lookup.
	ErrInternalPanic = errors.New("netintel: internal panic recovered")

	// ErrStaleGeneration is returned by [Submission.Wait] when the submission
	// was superseded by a newer one or by [Inspector.Reset] before it settled.
	ErrStaleGeneration = errors.New("netintel: submission superseded")
)

// TransportError is a non-2xx HTTP answer from a lookup endpoint.
// Network failures are returned as-is, wrapped with the request URL.
type TransportError struct {
	// URL is the full request URL.
	URL string

	// StatusCode is the numeric HTTP status.
	StatusCode int

	// Status is the status line text, e.g. "502 Bad Gateway".
	Status string

	// Body is the response body, possibly empty.
	Body string
}

// Error renders the status code followed by the body, or the status text
// when the body is empty.
func (e *TransportError) Error() string {
	detail := e.Body
	if detail == "" {
		detail = e.Status
	}
	if detail == "" {
		detail = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, detail)
}

// Unwrap maps 404 and 502 to [ErrEndpointUnavailable] so callers can use
// [errors.Is] instead of inspecting the status code.
func (e *TransportError) Unwrap() error {
	if isUnavailableStatus(e.StatusCode) {
		return ErrEndpointUnavailable
	}
	return nil
}

func isUnavailableStatus(code int) bool {
	return code == http.StatusNotFound || code == http.StatusBadGateway
}
