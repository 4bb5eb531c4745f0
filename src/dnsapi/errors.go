// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package dnsapi

import "errors"

// Sentinel errors for the dnsapi package.
var (
	// ErrNoResolvers is returned when a lookup runs with no resolver configured.
	ErrNoResolvers = errors.New("dnsapi: no resolvers configured")

	// ErrInvalidDomain is returned when a domain name fails validation.
	ErrInvalidDomain = errors.New("dnsapi: invalid domain name")

	// ErrDNSTimeout is returned when a DNS query exceeds the configured timeout.
	ErrDNSTimeout = errors.New("dnsapi: DNS query timed out")

	// ErrInternalPanic is returned when an internal panic is recovered during execution.
	ErrInternalPanic = errors.New("dnsapi: internal panic recovered")
)
