// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package dnsapi

import (
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Option is a functional option for configuring a [Server].
type Option func(*Server)

// WithResolvers replaces all resolvers of the lookup route.
// This overrides the default Cloudflare, Google and Quad9 resolvers.
func WithResolvers(resolvers []Resolver) Option {
	return func(s *Server) {
		s.resolvers = append([]Resolver(nil), resolvers...)
	}
}

// WithPropagationResolvers replaces the resolvers of the propagation route.
func WithPropagationResolvers(resolvers []Resolver) Option {
	return func(s *Server) {
		s.propagation = append([]Resolver(nil), resolvers...)
	}
}

// WithRecordTypes sets the record types queried when a request names none.
// The default is [DefaultRecordTypes].
func WithRecordTypes(types ...string) Option {
	return func(s *Server) {
		if len(types) > 0 {
			s.recordTypes = normalizeTypes(types)
		}
	}
}

// WithTimeout sets the timeout for each DNS query.
// The default is 2 seconds.
//
// This option has no effect if a custom DNS client is set via [WithDNSClient],
// as the custom client's own Timeout configuration takes precedence.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithConcurrency sets the maximum number of concurrent DNS queries per
// request. The default is 16.
func WithConcurrency(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithCache sets a custom [Cache] implementation.
// By default, the server uses an in-memory cache with a 1-minute TTL.
//
// Pass nil together with a zero [WithCacheTTL] to disable caching entirely.
func WithCache(cache Cache) Option {
	return func(s *Server) {
		s.cache = cache
	}
}

// WithCacheTTL sets the TTL for the built-in in-memory cache. Zero disables
// the built-in cache. This has no effect if a custom cache is set via
// [WithCache].
func WithCacheTTL(d time.Duration) Option {
	return func(s *Server) {
		if d >= 0 {
			s.cacheTTL = d
		}
	}
}

// WithDNSClient sets a custom [dns.Client] for all DNS operations, e.g.
// TCP transport or DNS-over-TLS. Truncated answers are not retried over
// TCP when a custom client is set.
//
// Passing nil is a no-op and the default UDP client will be used.
func WithDNSClient(client *dns.Client) Option {
	return func(s *Server) {
		if client != nil {
			s.dnsClient = client
		}
	}
}

// WithEDNS0Size sets the EDNS0 UDP buffer size.
// The default is 1232 bytes, which is the recommended size to prevent
// IP fragmentation over UDP.
//
// See: https://dnsflagday.net/2020/
func WithEDNS0Size(size uint16) Option {
	return func(s *Server) {
		if size > 0 {
			s.edns0Size = size
		}
	}
}

// WithRateLimit sets the sustained per-client request rate and burst.
// A zero limit disables rate limiting. The default is 5 requests per
// second with a burst of 10.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(s *Server) {
		s.rateLimit = limit
		if burst > 0 {
			s.rateBurst = burst
		}
	}
}

// WithTrustedProxies sets the peer addresses whose X-Forwarded-For and
// X-Real-IP headers are trusted when identifying clients for rate limiting.
func WithTrustedProxies(proxies ...string) Option {
	return func(s *Server) {
		s.trusted = append([]string(nil), proxies...)
	}
}

// WithHealthProbe sets the name resolved by resolver health checks.
// The default is "google.com".
func WithHealthProbe(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.healthProbe = name
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry sets the Prometheus registry the server's collectors are
// registered with and that /metrics exposes. By default every server gets
// its own registry with the Go and process collectors.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// SetResolvers adds or replaces resolvers of the lookup route on a running
// [Server]. It is safe to call concurrently with request handling.
//
// For each resolver provided, if a resolver with the same name is already
// configured it is replaced in place; otherwise it is appended.
// Requests already in flight keep the list they started with.
//
// Passing zero resolvers is a no-op.
func (s *Server) SetResolvers(resolvers ...Resolver) {
	if len(resolvers) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, resolver := range resolvers {
		updated := false
		for i, r := range s.resolvers {
			if r.Name == resolver.Name {
				s.resolvers[i] = resolver
				updated = true
				break
			}
		}
		if !updated {
			s.resolvers = append(s.resolvers, resolver)
		}
	}
}

// DeleteResolvers removes resolvers of the lookup route by name at runtime.
//
// Passing zero names or unknown names is a no-op.
func (s *Server) DeleteResolvers(names ...string) {
	if len(names) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	toDelete := make(map[string]struct{}, len(names))
	for _, name := range names {
		toDelete[name] = struct{}{}
	}

	var kept []Resolver
	for _, r := range s.resolvers {
		if _, deleteMe := toDelete[r.Name]; !deleteMe {
			kept = append(kept, r)
		}
	}
	s.resolvers = kept
}

// normalizeTypes upper-cases and trims record type names, dropping blanks.
func normalizeTypes(types []string) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
