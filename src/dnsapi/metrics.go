// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package dnsapi

import (
	"errors"

	"github.com/miekg/dns"
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the collectors exported on /metrics.
type metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	queries         *prometheus.CounterVec
	queryDuration   *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	rateLimited     prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dnsapi_requests_total",
				Help: "Total number of HTTP requests by route and status code.",
			},
			[]string{"route", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dnsapi_request_duration_seconds",
				Help:    "Time taken to serve HTTP requests.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"route"},
		),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dnsapi_dns_queries_total",
				Help: "Total number of upstream DNS queries by resolver, type and outcome.",
			},
			[]string{"resolver", "rtype", "outcome"},
		),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dnsapi_dns_query_duration_seconds",
				Help:    "Time taken for upstream DNS queries.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
			[]string{"resolver", "rtype"},
		),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dnsapi_cache_hits_total",
			Help: "Total number of answers served from the cache.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dnsapi_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter.",
		}),
	}
	reg.MustRegister(m.requests, m.requestDuration, m.queries, m.queryDuration, m.cacheHits, m.rateLimited)
	return m
}

// outcomeLabel classifies a query result for the queries counter.
func outcomeLabel(msg *dns.Msg, err error) string {
	switch {
	case errors.Is(err, ErrDNSTimeout):
		return "timeout"
	case err != nil, msg == nil:
		return "error"
	case msg.Rcode == dns.RcodeNameError:
		return "nxdomain"
	case msg.Rcode != dns.RcodeSuccess:
		return "servfail"
	default:
		return "ok"
	}
}

// routeLabel bounds the route label to the known routes.
func routeLabel(path string) string {
	switch path {
	case "/", "/propagation", "/health", "/health/resolvers", "/metrics":
		return path
	default:
		return "other"
	}
}
