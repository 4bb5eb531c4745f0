// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netintel

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Kind is the classification of a submitted target.
type Kind int

const (
	// KindInvalid is anything that is neither an IP address nor a domain name.
	KindInvalid Kind = iota
	// KindIPv4 is a dotted-quad IPv4 literal.
	KindIPv4
	// KindIPv6 is a colon-separated IPv6 literal.
	KindIPv6
	// KindDomain is a syntactically valid domain name.
	KindDomain
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindIPv4:
		return "ipv4"
	case KindIPv6:
		return "ipv6"
	case KindDomain:
		return "domain"
	default:
		return "invalid"
	}
}

// IsIP reports whether the kind is either IP family.
func (k Kind) IsIP() bool {
	return k == KindIPv4 || k == KindIPv6
}

// Target is the classified form of a single submission.
// It is produced once per submission and never modified.
type Target struct {
	// Raw is the trimmed input. Domain targets are lowercased.
	Raw string

	// Kind is the classification of Raw.
	Kind Kind

	// Registrable is the eTLD+1 of a domain target (e.g. "example.co.uk"
	// for "www.example.co.uk"). Empty for IP targets or when the public
	// suffix list has no answer.
	Registrable string
}

// NewTarget trims and classifies raw.
func NewTarget(raw string) Target {
	value := strings.TrimSpace(raw)
	kind := Classify(value)

	t := Target{Raw: value, Kind: kind}
	if kind == KindDomain {
		t.Raw = strings.ToLower(value)
		if etld1, err := publicsuffix.EffectiveTLDPlusOne(t.Raw); err == nil {
			t.Registrable = etld1
		}
	}
	return t
}

// Classify reports the kind of raw. It is total and deterministic:
// every string maps to exactly one [Kind].
//
// IP literals are checked before domains, so "1.2.3.4" is always IPv4.
func Classify(raw string) Kind {
	value := strings.TrimSpace(raw)
	switch {
	case value == "":
		return KindInvalid
	case IsIPv4(value):
		return KindIPv4
	case IsIPv6(value):
		return KindIPv6
	case IsValidDomain(strings.ToLower(value)):
		return KindDomain
	default:
		return KindInvalid
	}
}

// IsIPv4 reports whether s is four dot-separated decimal octets, each 0-255.
// Leading zeros are accepted as long as the octet has at most three digits.
func IsIPv4(s string) bool {
	octets := strings.Split(s, ".")
	if len(octets) != 4 {
		return false
	}
	for _, octet := range octets {
		if len(octet) == 0 || len(octet) > 3 {
			return false
		}
		n := 0
		for _, c := range octet {
			if c < '0' || c > '9' {
				return false
			}
			n = n*10 + int(c-'0')
		}
		if n > 255 {
			return false
		}
	}
	return true
}

// IsIPv6 reports whether s is 2 to 8 colon-separated groups of 1 to 4 hex
// digits, where a single "::" may stand in for one or more zero groups.
//
// The check is permissive: it does not verify that the
// compressed form accounts for exactly eight groups, and embedded IPv4
// tails ("::ffff:1.2.3.4") are not accepted.
func IsIPv6(s string) bool {
	if !strings.Contains(s, ":") {
		return false
	}

	compressed := strings.Count(s, "::")
	if compressed > 1 || strings.Contains(s, ":::") {
		return false
	}

	body := s
	if compressed == 1 {
		body = strings.Replace(s, "::", ":", 1)
		body = strings.TrimPrefix(body, ":")
		body = strings.TrimSuffix(body, ":")
		if body == "" {
			// "::" alone is the unspecified address.
			return true
		}
	}

	groups := strings.Split(body, ":")
	if compressed == 0 && len(groups) < 2 {
		return false
	}
	if len(groups) > 8 {
		return false
	}
	for _, g := range groups {
		if !isHexGroup(g) {
			return false
		}
	}
	return true
}

func isHexGroup(g string) bool {
	if len(g) == 0 || len(g) > 4 {
		return false
	}
	for _, c := range g {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// IsValidDomain reports whether domain is a syntactically valid, already
// lowercased domain name.
//
// A valid domain has at least two dot-separated labels. Every label is 1-63
// characters of ASCII lowercase letters, digits or hyphens and must not start
// with a hyphen. The TLD (last label) must be at least 2 characters and
// contain only letters.
func IsValidDomain(domain string) bool {
	if domain == "" {
		return false
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return false
	}

	for i, label := range labels {
		if len(label) < 1 || len(label) > 63 {
			return false
		}

		if label[0] == '-' {
			return false
		}

		isTLD := i == len(labels)-1
		if isTLD && len(label) < 2 {
			return false
		}

		for _, c := range label {
			switch {
			case c >= 'a' && c <= 'z':
				// ok
			case c >= '0' && c <= '9', c == '-':
				if isTLD {
					return false // TLD must be letters only.
				}
			default:
				return false
			}
		}
	}

	return true
}
