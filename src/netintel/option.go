// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netintel

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Option is a functional option for configuring an [Inspector].
type Option func(*Inspector)

// WithAPIBase sets the base URL every lookup path is appended to.
// The default is "http://localhost/api".
func WithAPIBase(base string) Option {
	return func(i *Inspector) {
		if base != "" {
			i.client.base = base
		}
	}
}

// WithHTTPClient sets the [http.Client] used for every lookup.
//
// Passing nil is a no-op and [http.DefaultClient] will be used.
func WithHTTPClient(client *http.Client) Option {
	return func(i *Inspector) {
		if client != nil {
			i.client.http = client
		}
	}
}

// WithTimeout bounds each individual HTTP request. A lookup that exceeds it
// ends in [StatusError]. The default is no per-request timeout; the
// submission context still applies.
func WithTimeout(d time.Duration) Option {
	return func(i *Inspector) {
		if d > 0 {
			i.client.timeout = d
		}
	}
}

// WithConcurrency sets the maximum number of lookups in flight for one
// submission. The default is 8.
func WithConcurrency(n int) Option {
	return func(i *Inspector) {
		if n > 0 {
			i.concurrency = n
		}
	}
}

// WithAnalyzeEndpoints replaces the ordered candidate paths probed for the
// analyze lookup. The default is [DefaultAnalyzeEndpoints].
func WithAnalyzeEndpoints(endpoints ...string) Option {
	return func(i *Inspector) {
		if len(endpoints) > 0 {
			i.analyze = append([]string(nil), endpoints...)
		}
	}
}

// WithProviders sets the DNS providers whose answers are listed first, in
// the given order. The default is [DefaultProviders].
func WithProviders(providers []Provider) Option {
	return func(i *Inspector) {
		i.norm.providers = providers
	}
}

// WithClock sets the time source used for task timestamps and the
// certificate expiry computation. Mostly useful in tests.
func WithClock(now func() time.Time) Option {
	return func(i *Inspector) {
		if now != nil {
			i.norm.now = now
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(i *Inspector) {
		i.logger = logger
	}
}

// WithSummaryHandler registers fn to receive the [Summary] of every
// submission that settles. Superseded submissions never produce one.
//
// fn is called from a lookup goroutine and must not block for long. The
// submission's [Submission.Done] channel is closed only after fn returns,
// so fn must not call [Submission.Wait] on the submission it is reporting;
// the Summary argument is the same value Wait would return.
func WithSummaryHandler(fn func(Summary)) Option {
	return func(i *Inspector) {
		i.onSummary = fn
	}
}

// WithTaskHandler registers fn to receive each task as it reaches a terminal
// state. Only tasks of the live submission are reported.
func WithTaskHandler(fn func(Task)) Option {
	return func(i *Inspector) {
		i.onTask = fn
	}
}

// WithRegistrableWHOIS makes the registration lookup query the registrable
// domain (eTLD+1) instead of the exact host, e.g. "example.co.uk" for
// "www.example.co.uk".
func WithRegistrableWHOIS(enabled bool) Option {
	return func(i *Inspector) {
		i.registrableWHOIS = enabled
	}
}

// SetAnalyzeEndpoints replaces the analyze candidate paths on a running
// [Inspector]. It is safe to call concurrently with [Inspector.Submit].
// Lookups already in flight keep the list they started with.
//
// Passing zero endpoints is a no-op.
func (i *Inspector) SetAnalyzeEndpoints(endpoints ...string) {
	if len(endpoints) == 0 {
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.analyze = append([]string(nil), endpoints...)
}

// AnalyzeEndpoints returns a copy of the analyze candidate paths.
func (i *Inspector) AnalyzeEndpoints() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.analyze...)
}
