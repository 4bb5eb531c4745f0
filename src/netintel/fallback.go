// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netintel

import (
	"context"
	"errors"
)

// DefaultAnalyzeEndpoints are the equivalent paths under which the analyze
// service may be routed. They differ only in trailing segments.
var DefaultAnalyzeEndpoints = []string{
	"/analyze/analyze",
	"/analyze/analyze/",
	"/analyze/",
	"/analyze",
}

// FetchFunc performs one request against an endpoint path.
type FetchFunc func(ctx context.Context, endpoint string) (any, error)

// EndpointFallback probes an ordered list of equivalent endpoint paths for
// one logical lookup, for backends whose reverse proxy routes a feature
// inconsistently.
type EndpointFallback struct {
	Candidates []string
}

// Resolve tries each candidate strictly in order and returns the first
// successful payload together with the endpoint that produced it.
//
// An error matching [ErrEndpointUnavailable] (HTTP 404 or 502) moves on to
// the next candidate. Any other error, including a network failure or a
// cancelled context, is returned immediately and the remaining candidates
// are not requested. When every candidate is unavailable the last such
// error is returned, or [ErrNoEndpointReachable] if there were no
// candidates at all.
func (f EndpointFallback) Resolve(ctx context.Context, fetch FetchFunc) (any, string, error) {
	var lastErr error
	for _, endpoint := range f.Candidates {
		payload, err := fetch(ctx, endpoint)
		if err == nil {
			return payload, endpoint, nil
		}
		if !errors.Is(err, ErrEndpointUnavailable) {
			return nil, endpoint, err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrNoEndpointReachable
	}
	return nil, "", lastErr
}
