// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netintel_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/netintel/src/netintel"
)

// fakeAPI serves the lookup contract. Routes default to healthy answers
// and can be overridden per path.
type fakeAPI struct {
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	hits   map[string]int
}

func newFakeAPI() *fakeAPI {
	f := &fakeAPI{hits: make(map[string]int)}
	f.routes = map[string]http.HandlerFunc{
		"/api/dns/": func(w http.ResponseWriter, r *http.Request) {
			ip := "93.184.216.34"
			if r.URL.Query().Get("domain") == "b.example.com" {
				ip = "198.51.100.2"
			}
			fmt.Fprintf(w, `{"domain":%q,"servers":{"Cloudflare":{"A":[%q]},"Google":{"A":[%q]}}}`,
				r.URL.Query().Get("domain"), ip, ip)
		},
		"/api/ssl/ssl": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"local_certificate":{"days_remaining":90,"subject":{"commonName":"example.com"}}}`)
		},
		"/api/domain/": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"registrar":"Example Registrar","raw":"{\"name_servers\":[\"ns1.example.com\"]}"}`)
		},
		"/api/ip/": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"query":%q,"country":"Testland","city":"Testville"}`, r.URL.Query().Get("target"))
		},
		"/api/analyze": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"target":%q,"verdict":"clean"}`, r.URL.Query().Get("target"))
		},
		"/api/dns/propagation": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"servers":{"1.1.1.1":{"A":["93.184.216.34"]}}}`)
		},
	}
	return f
}

func (f *fakeAPI) set(path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[path] = h
}

func (f *fakeAPI) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	h, ok := f.routes[r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func status(code int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, body, code)
	}
}

func newTestInspector(t *testing.T, api *fakeAPI, opts ...netintel.Option) *netintel.Inspector {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	base := []netintel.Option{
		netintel.WithAPIBase(srv.URL + "/api"),
		netintel.WithHTTPClient(srv.Client()),
	}
	return netintel.New(append(base, opts...)...)
}

func waitSummary(t *testing.T, sub *netintel.Submission) netintel.Summary {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := sub.Wait(ctx)
	require.NoError(t, err)
	return s
}

func byLookup(tasks []netintel.Task) map[netintel.Lookup]netintel.Task {
	m := make(map[netintel.Lookup]netintel.Task, len(tasks))
	for _, task := range tasks {
		m[task.Lookup] = task
	}
	return m
}

func TestSummaryHandlerRunsBeforeWaitReturns(t *testing.T) {
	api := newFakeAPI()

	var (
		mu      sync.Mutex
		handled []netintel.Summary
	)
	in := newTestInspector(t, api, netintel.WithSummaryHandler(func(s netintel.Summary) {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, s)
	}))

	sub, err := in.Submit(context.Background(), "example.com", netintel.SubmitOptions{})
	require.NoError(t, err)
	s := waitSummary(t, sub)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, handled, 1, "the handler has returned once Wait returns")
	assert.Equal(t, s, handled[0], "the handler receives the summary Wait returns")
}

func TestSubmitDomainAllSucceed(t *testing.T) {
	api := newFakeAPI()

	var summaries atomic.Int32
	in := newTestInspector(t, api, netintel.WithSummaryHandler(func(netintel.Summary) {
		summaries.Add(1)
	}))

	sub, err := in.Submit(context.Background(), "  Example.COM ", netintel.SubmitOptions{})
	require.NoError(t, err)
	assert.Equal(t, "example.com", sub.Target().Raw)
	assert.Equal(t, netintel.KindDomain, sub.Target().Kind)
	assert.NotEmpty(t, sub.ID())

	s := waitSummary(t, sub)
	assert.True(t, s.AllSucceeded())
	assert.Equal(t, "all lookups succeeded", s.Message())
	assert.Equal(t, 4, s.Total, "dns, certificate, registration and chained geolocation")
	assert.Equal(t, sub.Generation(), s.Generation)
	assert.Equal(t, sub.ID(), s.ID)
	assert.Equal(t, int32(1), summaries.Load())

	tasks := in.Snapshot()
	require.Len(t, tasks, 4)
	var order []netintel.Lookup
	for _, task := range tasks {
		order = append(order, task.Lookup)
		assert.Equal(t, netintel.StatusOK, task.Status, "lookup %s", task.Lookup)
		assert.NoError(t, task.Err)
		assert.NotEmpty(t, task.Sections)
		assert.Equal(t, sub.Generation(), task.Generation)
	}
	assert.Equal(t, []netintel.Lookup{
		netintel.LookupDNS,
		netintel.LookupCertificate,
		netintel.LookupGeolocation,
		netintel.LookupRegistration,
	}, order)

	geo := byLookup(tasks)[netintel.LookupGeolocation]
	assert.True(t, geo.Supplementary)
	assert.Equal(t, "93.184.216.34", geo.Param)
	assert.Contains(t, geo.Sections[0].Fields, netintel.Field{Label: "country", Value: "Testland"})

	dns := byLookup(tasks)[netintel.LookupDNS]
	assert.Equal(t, "/dns/", dns.Endpoint)
	require.Len(t, dns.Sections, 2)
	assert.Equal(t, "Cloudflare", dns.Sections[0].Title)

	assert.Equal(t, 1, api.count("/api/ip/"), "geolocation is chained once")
}

func TestSubmitIPTarget(t *testing.T) {
	api := newFakeAPI()
	in := newTestInspector(t, api)

	sub, err := in.Submit(context.Background(), "8.8.8.8", netintel.SubmitOptions{AutoAnalyze: true})
	require.NoError(t, err)

	s := waitSummary(t, sub)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 0, s.Failures)

	tasks := byLookup(sub.Tasks())
	require.Len(t, tasks, 2)

	geo := tasks[netintel.LookupGeolocation]
	assert.False(t, geo.Supplementary)
	assert.Equal(t, "8.8.8.8", geo.Param)

	analyze := tasks[netintel.LookupAnalyze]
	assert.Equal(t, netintel.StatusOK, analyze.Status)
	assert.Equal(t, "/analyze", analyze.Endpoint, "last candidate answered")
	assert.Equal(t, 1, api.count("/api/analyze/analyze"))
	assert.Equal(t, 1, api.count("/api/analyze/analyze/"))
	assert.Equal(t, 1, api.count("/api/analyze/"))
	assert.Equal(t, 0, api.count("/api/dns/"), "no DNS lookup for IP targets")
}

func TestSubmitInvalidInput(t *testing.T) {
	api := newFakeAPI()
	in := newTestInspector(t, api)

	for _, raw := range []string{"", "   ", "not a domain", "256.1.1.1"} {
		sub, err := in.Submit(context.Background(), raw, netintel.SubmitOptions{AutoAnalyze: true})
		require.ErrorIs(t, err, netintel.ErrInvalidInput, "input %q", raw)
		assert.Nil(t, sub)
		assert.Nil(t, in.Snapshot())
	}

	for _, path := range []string{"/api/dns/", "/api/ip/", "/api/analyze"} {
		assert.Zero(t, api.count(path), "no lookup may run for invalid input")
	}
}

func TestSubmitCountsFailures(t *testing.T) {
	api := newFakeAPI()
	api.set("/api/ssl/ssl", status(http.StatusInternalServerError, "tls probe crashed"))
	api.set("/api/dns/propagation", status(http.StatusServiceUnavailable, "resolver pool down"))

	var tasksSeen atomic.Int32
	in := newTestInspector(t, api, netintel.WithTaskHandler(func(netintel.Task) {
		tasksSeen.Add(1)
	}))

	sub, err := in.Submit(context.Background(), "example.com", netintel.SubmitOptions{
		AutoAnalyze:      true,
		PropagationCheck: true,
	})
	require.NoError(t, err)

	s := waitSummary(t, sub)
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 2, s.Failures)
	assert.False(t, s.AllSucceeded())
	assert.Equal(t, "2 lookups failed", s.Message())
	assert.Eventually(t, func() bool { return tasksSeen.Load() == 6 },
		5*time.Second, 10*time.Millisecond, "every terminal task is reported")

	tasks := byLookup(sub.Tasks())
	cert := tasks[netintel.LookupCertificate]
	assert.Equal(t, netintel.StatusError, cert.Status)
	assert.EqualError(t, cert.Err, "HTTP 500: tls probe crashed")

	var te *netintel.TransportError
	require.ErrorAs(t, tasks[netintel.LookupPropagation].Err, &te)
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)

	// Siblings are unaffected.
	assert.Equal(t, netintel.StatusOK, tasks[netintel.LookupDNS].Status)
	assert.Equal(t, netintel.StatusOK, tasks[netintel.LookupRegistration].Status)
	assert.Equal(t, netintel.StatusOK, tasks[netintel.LookupAnalyze].Status)
	assert.Equal(t, netintel.StatusOK, tasks[netintel.LookupGeolocation].Status)
}

func TestSubmitNoIPFoundWarning(t *testing.T) {
	api := newFakeAPI()
	api.set("/api/dns/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"servers":{"Cloudflare":{"A":[],"MX":[{"preference":10,"exchange":"mx.example.com"}]}}}`)
	})
	in := newTestInspector(t, api)

	sub, err := in.Submit(context.Background(), "example.com", netintel.SubmitOptions{})
	require.NoError(t, err)

	s := waitSummary(t, sub)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 0, s.Failures)
	assert.Equal(t, 1, s.Warnings)
	assert.True(t, s.AllSucceeded(), "a warning is not a failure")

	geo := byLookup(sub.Tasks())[netintel.LookupGeolocation]
	assert.Equal(t, netintel.StatusWarning, geo.Status)
	assert.ErrorIs(t, geo.Err, netintel.ErrNoIPFound)
	assert.EqualError(t, geo.Err, "netintel: no IP address found in DNS or analyze response")
	assert.Zero(t, api.count("/api/ip/"))
}

func TestSubmitAnalyzeYieldsIP(t *testing.T) {
	api := newFakeAPI()
	api.set("/api/dns/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"servers":{}}`)
	})
	api.set("/api/analyze", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"hosting":{"ip":"203.0.113.9"}}}`)
	})
	in := newTestInspector(t, api)

	sub, err := in.Submit(context.Background(), "example.com", netintel.SubmitOptions{AutoAnalyze: true})
	require.NoError(t, err)

	s := waitSummary(t, sub)
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 0, s.Warnings)

	geo := byLookup(sub.Tasks())[netintel.LookupGeolocation]
	assert.Equal(t, netintel.StatusOK, geo.Status)
	assert.Equal(t, "203.0.113.9", geo.Param)
	assert.True(t, geo.Supplementary)
}

func TestSubmitDNSFailureSkipsGeolocation(t *testing.T) {
	api := newFakeAPI()
	api.set("/api/dns/", status(http.StatusBadGateway, "upstream down"))
	in := newTestInspector(t, api)

	sub, err := in.Submit(context.Background(), "example.com", netintel.SubmitOptions{})
	require.NoError(t, err)

	s := waitSummary(t, sub)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Failures)
	_, hasGeo := byLookup(sub.Tasks())[netintel.LookupGeolocation]
	assert.False(t, hasGeo, "no geolocation without a successful trigger")
}

func TestSubmitConcurrencyOne(t *testing.T) {
	api := newFakeAPI()
	in := newTestInspector(t, api, netintel.WithConcurrency(1))

	sub, err := in.Submit(context.Background(), "example.com", netintel.SubmitOptions{
		AutoAnalyze:      true,
		PropagationCheck: true,
	})
	require.NoError(t, err)

	s := waitSummary(t, sub)
	assert.Equal(t, 6, s.Total, "chained lookup must not deadlock on a single slot")
	assert.Equal(t, 0, s.Failures)
}

func TestRegistrableWHOIS(t *testing.T) {
	api := newFakeAPI()
	var got atomic.Value
	api.set("/api/domain/", func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.URL.Query().Get("domain"))
		fmt.Fprint(w, `{}`)
	})
	in := newTestInspector(t, api, netintel.WithRegistrableWHOIS(true))

	sub, err := in.Submit(context.Background(), "www.example.co.uk", netintel.SubmitOptions{})
	require.NoError(t, err)
	waitSummary(t, sub)

	assert.Equal(t, "example.co.uk", got.Load())
	assert.Equal(t, "example.co.uk", byLookup(sub.Tasks())[netintel.LookupRegistration].Param)
}

// lockedBuffer is a goroutine-safe log sink.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// stubbornTransport holds matching requests until released and then
// completes them on a fresh context, so their responses arrive after the
// submission that issued them was cancelled.
type stubbornTransport struct {
	next    http.RoundTripper
	match   func(*http.Request) bool
	entered chan struct{}
	release chan struct{}
}

func (s *stubbornTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if !s.match(r) {
		return s.next.RoundTrip(r)
	}
	s.entered <- struct{}{}
	<-s.release
	return s.next.RoundTrip(r.WithContext(context.Background()))
}

func TestResubmitDiscardsLateResponse(t *testing.T) {
	api := newFakeAPI()
	srv := httptest.NewServer(api)
	defer srv.Close()

	transport := &stubbornTransport{
		next: srv.Client().Transport,
		match: func(r *http.Request) bool {
			return r.URL.Path == "/api/dns/" && r.URL.Query().Get("domain") == "a.example.com"
		},
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}

	logs := &lockedBuffer{}
	var summaries []netintel.Summary
	var mu sync.Mutex

	in := netintel.New(
		netintel.WithAPIBase(srv.URL+"/api"),
		netintel.WithHTTPClient(&http.Client{Transport: transport}),
		netintel.WithLogger(zerolog.New(logs).Level(zerolog.DebugLevel)),
		netintel.WithSummaryHandler(func(s netintel.Summary) {
			mu.Lock()
			defer mu.Unlock()
			summaries = append(summaries, s)
		}),
	)

	subA, err := in.Submit(context.Background(), "a.example.com", netintel.SubmitOptions{})
	require.NoError(t, err)
	<-transport.entered

	subB, err := in.Submit(context.Background(), "b.example.com", netintel.SubmitOptions{})
	require.NoError(t, err)
	assert.Greater(t, subB.Generation(), subA.Generation())

	sB := waitSummary(t, subB)
	assert.Equal(t, 0, sB.Failures)

	// A's DNS answer arrives only now, carrying its own address.
	close(transport.release)
	staleDNS := fmt.Sprintf(`"generation":%d,"lookup":"dns","message":"discarded stale result"`, subA.Generation())
	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), staleDNS)
	}, 5*time.Second, 10*time.Millisecond)

	_, err = subA.Wait(context.Background())
	assert.ErrorIs(t, err, netintel.ErrStaleGeneration)
	assert.True(t, netintel.IsStale(err))
	assert.True(t, subA.Stale())
	assert.False(t, subB.Stale())

	for _, task := range in.Snapshot() {
		assert.Equal(t, subB.Generation(), task.Generation)
		assert.NotEqual(t, "a.example.com", task.Param)
		assert.NotEqual(t, "93.184.216.34", task.Param, "A's address must not chain into B")
	}
	geo := byLookup(in.Snapshot())[netintel.LookupGeolocation]
	assert.Equal(t, "198.51.100.2", geo.Param)

	dnsA := byLookup(subA.Tasks())[netintel.LookupDNS]
	assert.NotEqual(t, netintel.StatusOK, dnsA.Status, "late response must not be recorded")
	assert.Nil(t, dnsA.Payload)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, summaries, 1, "superseded submission never summarizes")
	assert.Equal(t, subB.Generation(), summaries[0].Generation)
}

func TestResetCancelsInFlight(t *testing.T) {
	api := newFakeAPI()
	block := make(chan struct{})
	api.set("/api/ssl/ssl", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	defer close(block)

	in := newTestInspector(t, api)
	sub, err := in.Submit(context.Background(), "example.com", netintel.SubmitOptions{})
	require.NoError(t, err)

	in.Reset()
	assert.Nil(t, in.Snapshot())

	select {
	case <-sub.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Done not closed after Reset")
	}

	_, err = sub.Wait(context.Background())
	assert.ErrorIs(t, err, netintel.ErrStaleGeneration)
	assert.Equal(t, sub.Generation()+1, in.Generation())
}

func TestWaitHonorsContext(t *testing.T) {
	api := newFakeAPI()
	block := make(chan struct{})
	api.set("/api/domain/", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	defer close(block)

	in := newTestInspector(t, api)
	sub, err := in.Submit(context.Background(), "example.com", netintel.SubmitOptions{})
	require.NoError(t, err)
	defer in.Reset()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = sub.Wait(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSubmitContextCancelledSettles(t *testing.T) {
	api := newFakeAPI()
	block := make(chan struct{})
	api.set("/api/ssl/ssl", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	defer close(block)

	in := newTestInspector(t, api)
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := in.Submit(ctx, "example.com", netintel.SubmitOptions{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return api.count("/api/ssl/ssl") == 1
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	s := waitSummary(t, sub)
	assert.GreaterOrEqual(t, s.Failures, 1)
	cert := byLookup(sub.Tasks())[netintel.LookupCertificate]
	assert.Equal(t, netintel.StatusError, cert.Status)
	assert.ErrorIs(t, cert.Err, context.Canceled)
}

func TestSetAnalyzeEndpoints(t *testing.T) {
	api := newFakeAPI()
	api.set("/api/v2/analyze", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"v":2}`)
	})
	in := newTestInspector(t, api, netintel.WithAnalyzeEndpoints("/missing"))
	assert.Equal(t, []string{"/missing"}, in.AnalyzeEndpoints())

	in.SetAnalyzeEndpoints()
	assert.Equal(t, []string{"/missing"}, in.AnalyzeEndpoints(), "empty update is a no-op")

	in.SetAnalyzeEndpoints("/v2/analyze")
	sub, err := in.Submit(context.Background(), "1.1.1.1", netintel.SubmitOptions{AutoAnalyze: true})
	require.NoError(t, err)
	waitSummary(t, sub)

	analyze := byLookup(sub.Tasks())[netintel.LookupAnalyze]
	assert.Equal(t, netintel.StatusOK, analyze.Status)
	assert.Equal(t, "/v2/analyze", analyze.Endpoint)
	assert.Zero(t, api.count("/api/missing"))
}
