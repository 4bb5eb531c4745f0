// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netintel

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// maxExtractNodes bounds the number of values visited by [ExtractIP].
// Decoded JSON is acyclic, but a huge payload should not stall a lookup.
const maxExtractNodes = 100_000

var (
	ipv4Pattern = regexp.MustCompile(`\b(?:25[0-5]|2[0-4]\d|1?\d?\d)(?:\.(?:25[0-5]|2[0-4]\d|1?\d?\d)){3}\b`)
	ipv6Pattern = regexp.MustCompile(`\b(?:[0-9A-Fa-f]{1,4}:){2,7}[0-9A-Fa-f]{1,4}\b`)
)

// priorityKeys are visited before any other key of an object. They only
// change discovery order; every key is eventually visited.
var priorityKeys = []string{"A", "AAAA", "ip", "IP", "address", "addresses", "resolved_ip", "data", "answer", "value"}

// ExtractIP scans an arbitrary decoded JSON value for an embedded IP
// literal. It returns the first IPv4 address discovered, otherwise the
// first IPv6 address, otherwise "".
//
// The IPv6 match is permissive, see [IsIPv6].
func ExtractIP(v any) string {
	w := ipWalker{seen: make(map[string]struct{})}
	w.walk(v)

	for _, ip := range w.found {
		if IsIPv4(ip) {
			return ip
		}
	}
	for _, ip := range w.found {
		if IsIPv6(ip) {
			return ip
		}
	}
	return ""
}

type ipWalker struct {
	found []string
	seen  map[string]struct{}
	nodes int
}

func (w *ipWalker) walk(v any) {
	if w.nodes >= maxExtractNodes {
		return
	}
	w.nodes++

	switch val := v.(type) {
	case nil:
	case string:
		w.scan(val)
	case json.Number:
		w.scan(val.String())
	case float64:
		w.scan(strconv.FormatFloat(val, 'f', -1, 64))
	case []any:
		for _, item := range val {
			w.walk(item)
		}
	case map[string]any:
		for _, k := range priorityKeys {
			if item, ok := val[k]; ok {
				w.walk(item)
			}
		}
		rest := make([]string, 0, len(val))
		for k := range val {
			if !isPriorityKey(k) {
				rest = append(rest, k)
			}
		}
		sort.Strings(rest)
		for _, k := range rest {
			w.walk(val[k])
		}
	}
}

func (w *ipWalker) scan(s string) {
	if s == "" {
		return
	}
	for _, m := range ipv4Pattern.FindAllString(s, -1) {
		w.add(m)
	}
	for _, m := range ipv6Pattern.FindAllString(s, -1) {
		w.add(m)
	}
	if trimmed := strings.TrimSpace(s); Classify(trimmed).IsIP() {
		w.add(trimmed)
	}
}

func (w *ipWalker) add(ip string) {
	if _, ok := w.seen[ip]; ok {
		return
	}
	w.seen[ip] = struct{}{}
	w.found = append(w.found, ip)
}

func isPriorityKey(k string) bool {
	for _, p := range priorityKeys {
		if p == k {
			return true
		}
	}
	return false
}
