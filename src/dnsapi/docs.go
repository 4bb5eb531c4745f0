// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package dnsapi serves the DNS lookup contract consumed by the netintel
// DNS lookup: every requested record type resolved against several public
// resolvers, reported per resolver as JSON.
//
//	{
//	  "domain": "example.com",
//	  "record_types": ["A", "MX"],
//	  "servers": {
//	    "Cloudflare": {"A": ["93.184.216.34"], "MX": ["0 ."]},
//	    "Google":     {"A": ["93.184.216.34"], "MX": ["0 ."]}
//	  }
//	}
//
// Answers are rendered per type: TXT strings are joined, MX is
// "<preference> <exchange>" and every other type is its record data. A
// type without records is an empty list. Failures are answer lines too:
// "NXDOMAIN", "Timeout", "NoNameservers: <RCODE>" or "Error: <detail>".
//
// # Features
//
//   - Concurrent fan-out over every (resolver, type) pair
//   - Propagation route over a wider list of public resolvers
//   - Built-in caching of answers with configurable TTL, or any backend
//     via the [Cache] interface
//   - Truncated UDP answers retried over TCP
//   - Per-client rate limiting with 429 responses
//   - Prometheus metrics on /metrics
//   - Resolver hot-reload with [Server.SetResolvers] and
//     [Server.DeleteResolvers]
//
// # Quick Start
//
//	srv := dnsapi.New(dnsapi.WithLogger(logger))
//	if err := srv.Run(ctx, ":8080"); err != nil {
//	    log.Fatal(err)
//	}
//
// [Server.Handler] can be mounted on an existing mux instead.
package dnsapi
