// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package dnsapi

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/H0llyW00dzZ/netintel/src/netintel"
)

// Default configuration values.
const (
	defaultTimeout     = 2 * time.Second
	defaultCacheTTL    = time.Minute
	defaultConcurrency = 16
	defaultEDNS0Size   = 1232 // Recommended size to prevent IP fragmentation
	defaultRateBurst   = 10
	defaultHealthProbe = "google.com"
)

// defaultRateLimit is the sustained per-client request rate.
var defaultRateLimit = rate.Every(time.Second / 5)

// Report is the JSON body of the lookup and propagation routes.
type Report struct {
	Domain      string                         `json:"domain"`
	RecordTypes []string                       `json:"record_types"`
	Servers     map[string]map[string][]string `json:"servers"`
}

// ResolverStatus represents the health status of a single resolver.
type ResolverStatus struct {
	Name    string `json:"name"`
	Address string `json:"address"`

	// Online indicates whether the resolver is responding to queries.
	Online bool `json:"online"`

	// LatencyMs is the round-trip time in milliseconds.
	// Only meaningful when Online is true.
	LatencyMs int64 `json:"latency_ms"`

	// Error is set if the health check failed.
	Error string `json:"error,omitempty"`
}

// Server resolves every requested record type against a set of upstream
// resolvers and serves the results as JSON.
type Server struct {
	mu          sync.RWMutex
	resolvers   []Resolver
	propagation []Resolver

	recordTypes []string
	timeout     time.Duration
	concurrency int
	cache       Cache
	cacheTTL    time.Duration
	edns0Size   uint16
	dnsClient   *dns.Client
	tcpClient   *dns.Client
	rateLimit   rate.Limit
	rateBurst   int
	trusted     []string
	healthProbe string
	logger      zerolog.Logger
	registry    *prometheus.Registry
	metrics     *metrics
	limiters    *limiterSet
}

// New creates a new [Server] with the default resolvers. Use functional
// options to customize behavior.
//
//	srv := dnsapi.New(
//	    dnsapi.WithTimeout(3 * time.Second),
//	    dnsapi.WithRecordTypes("A", "AAAA", "MX"),
//	)
func New(opts ...Option) *Server {
	s := &Server{
		resolvers:   append([]Resolver(nil), defaultResolvers...),
		propagation: append([]Resolver(nil), defaultPropagationResolvers...),
		recordTypes: append([]string(nil), DefaultRecordTypes...),
		timeout:     defaultTimeout,
		concurrency: defaultConcurrency,
		cacheTTL:    defaultCacheTTL,
		edns0Size:   defaultEDNS0Size,
		rateLimit:   defaultRateLimit,
		rateBurst:   defaultRateBurst,
		healthProbe: defaultHealthProbe,
		logger:      zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	// Initialize cache if not set by option.
	if s.cache == nil && s.cacheTTL > 0 {
		s.cache = newMemoryCache(s.cacheTTL)
	}

	// Initialize shared DNS clients if not set by WithDNSClient option.
	// Truncated UDP answers are retried over TCP.
	if s.dnsClient == nil {
		s.dnsClient = &dns.Client{Timeout: s.timeout, Net: "udp"}
		s.tcpClient = &dns.Client{Timeout: s.timeout, Net: "tcp"}
	}

	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	s.metrics = newMetrics(s.registry)

	if s.rateLimit > 0 {
		s.limiters = newLimiterSet(s.rateLimit, s.rateBurst)
	}

	return s
}

// Lookup resolves domain against the configured resolvers, reporting each
// under its name. An empty types list queries [DefaultRecordTypes] or the
// types set with [WithRecordTypes].
func (s *Server) Lookup(ctx context.Context, domain string, types ...string) (Report, error) {
	return s.resolve(ctx, domain, types, s.Resolvers())
}

// Propagation resolves domain against the propagation resolvers, reporting
// each under its address.
func (s *Server) Propagation(ctx context.Context, domain string, types ...string) (Report, error) {
	s.mu.RLock()
	resolvers := append([]Resolver(nil), s.propagation...)
	s.mu.RUnlock()
	return s.resolve(ctx, domain, types, resolvers)
}

// Resolvers returns a copy of the currently configured resolvers.
func (s *Server) Resolvers() []Resolver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Resolver(nil), s.resolvers...)
}

// FlushCache clears all cached answers.
func (s *Server) FlushCache() {
	if s.cache != nil {
		s.cache.Flush()
	}
}

// ResolverHealth checks the health of all configured resolvers.
// It returns the online/offline status and latency for each resolver.
func (s *Server) ResolverHealth(ctx context.Context) ([]ResolverStatus, error) {
	resolvers := s.Resolvers()
	if len(resolvers) == 0 {
		return nil, ErrNoResolvers
	}

	statuses := make([]ResolverStatus, len(resolvers))
	var wg sync.WaitGroup

	// Semaphore to limit concurrency.
	sem := make(chan struct{}, s.concurrency)

Loop:
	for i, r := range resolvers {
		// Check context before starting new work
		select {
		case <-ctx.Done():
			for j := i; j < len(resolvers); j++ {
				statuses[j] = ResolverStatus{
					Name:    resolvers[j].Name,
					Address: resolvers[j].Address,
					Error:   ctx.Err().Error(),
				}
			}
			break Loop
		default:
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(idx int, r Resolver) {
			defer wg.Done()
			defer func() { <-sem }() // Release semaphore
			defer func() {
				if rec := recover(); rec != nil {
					statuses[idx] = ResolverStatus{
						Name:    r.Name,
						Address: r.Address,
						Error:   fmt.Errorf("%w: %v", ErrInternalPanic, rec).Error(),
					}
				}
			}()

			statuses[idx] = checkResolverHealth(ctx, s.dnsClient, r, s.healthProbe, s.edns0Size)
		}(i, r)
	}

	wg.Wait()
	if ctx.Err() != nil {
		return statuses, ctx.Err()
	}
	return statuses, nil
}

// resolve queries every (resolver, type) pair concurrently. Query failures
// are reported as answer lines, never as an error.
func (s *Server) resolve(ctx context.Context, domain string, types []string, resolvers []Resolver) (Report, error) {
	domain = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(domain), "."))
	if netintel.Classify(domain) != netintel.KindDomain {
		return Report{}, fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}
	if len(resolvers) == 0 {
		return Report{}, ErrNoResolvers
	}
	types = normalizeTypes(types)
	if len(types) == 0 {
		types = s.recordTypes
	}

	report := Report{
		Domain:      domain,
		RecordTypes: types,
		Servers:     make(map[string]map[string][]string, len(resolvers)),
	}
	for _, r := range resolvers {
		report.Servers[r.Name] = make(map[string][]string, len(types))
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)

	for _, r := range resolvers {
		for _, rtype := range types {
			group.Go(func() error {
				answers := s.query(groupCtx, r, domain, rtype)
				mu.Lock()
				report.Servers[r.Name][rtype] = answers
				mu.Unlock()
				return nil
			})
		}
	}

	_ = group.Wait()
	return report, nil
}

// query returns the answer lines of one resolver for one type, from the
// cache when possible.
func (s *Server) query(ctx context.Context, r Resolver, domain, rtype string) (answers []string) {
	defer func() {
		if rec := recover(); rec != nil {
			answers = []string{"Error: " + fmt.Errorf("%w: %v", ErrInternalPanic, rec).Error()}
		}
	}()

	qtype, ok := parseRecordType(rtype)
	if !ok {
		return []string{"Error: unsupported record type " + rtype}
	}

	key := cacheKey(r.Address, domain, rtype)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			s.metrics.cacheHits.Inc()
			return cached
		}
	}

	start := time.Now()
	msg, err := queryDNS(ctx, s.dnsClient, domain, r.Address, qtype, s.edns0Size)
	if err == nil && msg != nil && msg.Truncated && s.tcpClient != nil {
		msg, err = queryDNS(ctx, s.tcpClient, domain, r.Address, qtype, s.edns0Size)
	}
	s.metrics.queryDuration.WithLabelValues(r.Name, rtype).Observe(time.Since(start).Seconds())
	s.metrics.queries.WithLabelValues(r.Name, rtype, outcomeLabel(msg, err)).Inc()

	answers, cacheable := outcome(msg, err, qtype)
	if err != nil {
		s.logger.Debug().Err(err).
			Str("resolver", r.Name).
			Str("domain", domain).
			Str("type", rtype).
			Msg("dns query failed")
	}

	if cacheable && s.cache != nil {
		s.cache.Set(key, answers)
	}
	return answers
}
