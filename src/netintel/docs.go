// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package netintel runs network-intelligence lookups for a single domain or
// IP address against an HTTP lookup API and turns the heterogeneous answers
// into uniform, display-ready fields.
//
// A submitted target is classified as IPv4, IPv6 or domain. Domains get DNS,
// certificate and registration (WHOIS) lookups; IP addresses get a
// geolocation lookup. Analyze and propagation lookups are optional. All
// lookups of a submission run concurrently and fail independently.
//
// # Features
//
//   - Generation tracking: a new submission cancels the previous one and
//     nothing the old one returns afterwards is recorded
//   - Chained geolocation: an IP address found anywhere in the DNS or
//     analyze answer starts a supplementary geolocation lookup
//   - Endpoint fallback: the analyze lookup probes equivalent paths in
//     order, skipping those answering 404 or 502
//   - Schema-tolerant normalization: alternative key names, nesting and
//     case are resolved per field, missing data renders as [Placeholder]
//   - Panic recovery: a panicking lookup fails alone with [ErrInternalPanic]
//   - Functional options and structured logging via zerolog
//   - Typed errors: sentinel errors for [errors.Is] matching
//
// # Quick Start
//
//	in := netintel.New(netintel.WithAPIBase("http://localhost/api"))
//
//	sub, err := in.Submit(ctx, "example.com", netintel.SubmitOptions{AutoAnalyze: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	summary, err := sub.Wait(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, t := range sub.Tasks() {
//	    fmt.Println(t.Lookup.Title(), t.Status)
//	}
//	fmt.Println(summary.Message())
//
// # Cancellation
//
// [Inspector.Submit] and [Inspector.Reset] cancel the context shared by
// every request of the live submission. A superseded [Submission] never
// produces a [Summary]; its Wait returns [ErrStaleGeneration].
package netintel
