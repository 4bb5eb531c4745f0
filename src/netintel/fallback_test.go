// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netintel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingServer answers each path with a fixed status and body and
// records the paths requested, in order.
type recordingServer struct {
	mu     sync.Mutex
	paths  []string
	routes map[string]struct {
		status int
		body   string
	}
}

func (s *recordingServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.paths = append(s.paths, r.URL.Path)
	route, ok := s.routes[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(route.status)
	_, _ = w.Write([]byte(route.body))
}

func (s *recordingServer) requested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

func newRecordingServer(t *testing.T, routes map[string]struct {
	status int
	body   string
}) (*recordingServer, *apiClient) {
	t.Helper()
	rs := &recordingServer{routes: routes}
	srv := httptest.NewServer(rs)
	t.Cleanup(srv.Close)
	return rs, &apiClient{base: srv.URL + "/api", http: srv.Client()}
}

func TestEndpointFallbackSkipsUnavailable(t *testing.T) {
	rs, client := newRecordingServer(t, map[string]struct {
		status int
		body   string
	}{
		"/api/analyze/analyze":  {http.StatusNotFound, "not found"},
		"/api/analyze/analyze/": {http.StatusBadGateway, "bad gateway"},
		"/api/analyze/":         {http.StatusNotFound, "nope"},
		"/api/analyze":          {http.StatusOK, `{"verdict":"clean"}`},
	})

	params := url.Values{"target": {"example.com"}}
	fallback := EndpointFallback{Candidates: DefaultAnalyzeEndpoints}
	payload, endpoint, err := fallback.Resolve(context.Background(), func(ctx context.Context, ep string) (any, error) {
		return client.getJSON(ctx, ep, params)
	})

	require.NoError(t, err)
	assert.Equal(t, "/analyze", endpoint)
	assert.Equal(t, map[string]any{"verdict": "clean"}, payload)
	assert.Equal(t, []string{
		"/api/analyze/analyze",
		"/api/analyze/analyze/",
		"/api/analyze/",
		"/api/analyze",
	}, rs.requested())
}

func TestEndpointFallbackStopsOnOtherStatus(t *testing.T) {
	rs, client := newRecordingServer(t, map[string]struct {
		status int
		body   string
	}{
		"/api/analyze/analyze": {http.StatusInternalServerError, "boom"},
		"/api/analyze":         {http.StatusOK, `{}`},
	})

	fallback := EndpointFallback{Candidates: DefaultAnalyzeEndpoints}
	_, endpoint, err := fallback.Resolve(context.Background(), func(ctx context.Context, ep string) (any, error) {
		return client.getJSON(ctx, ep, nil)
	})

	require.Error(t, err)
	assert.Equal(t, "/analyze/analyze", endpoint)
	assert.False(t, errors.Is(err, ErrEndpointUnavailable))

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.Equal(t, "HTTP 500: boom", te.Error())
	assert.Equal(t, []string{"/api/analyze/analyze"}, rs.requested(), "remaining candidates must not be requested")
}

func TestEndpointFallbackAllUnavailable(t *testing.T) {
	_, client := newRecordingServer(t, nil)

	fallback := EndpointFallback{Candidates: []string{"/a", "/b"}}
	_, endpoint, err := fallback.Resolve(context.Background(), func(ctx context.Context, ep string) (any, error) {
		return client.getJSON(ctx, ep, nil)
	})

	require.Error(t, err)
	assert.Empty(t, endpoint)
	assert.ErrorIs(t, err, ErrEndpointUnavailable)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.URL, "/api/b", "last error is reported")
}

func TestEndpointFallbackNoCandidates(t *testing.T) {
	called := false
	_, _, err := EndpointFallback{}.Resolve(context.Background(), func(context.Context, string) (any, error) {
		called = true
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrNoEndpointReachable)
	assert.False(t, called)
}

func TestEndpointFallbackNetworkErrorStops(t *testing.T) {
	netErr := errors.New("connection refused")
	calls := 0
	_, _, err := EndpointFallback{Candidates: []string{"/a", "/b"}}.Resolve(context.Background(),
		func(context.Context, string) (any, error) {
			calls++
			return nil, netErr
		})
	assert.ErrorIs(t, err, netErr)
	assert.Equal(t, 1, calls)
}
