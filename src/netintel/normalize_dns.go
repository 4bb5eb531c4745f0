// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netintel

import (
	"sort"
	"strings"
)

// RecordTypes is the fixed display order of DNS record types. It does not
// depend on the key order of the upstream payload.
var RecordTypes = []string{"SOA", "NS", "A", "AAAA", "CNAME", "MX", "TXT", "CAA", "SRV", "PTR"}

// NoRecords is rendered for a record type (or a whole provider) that has
// no data in the payload.
const NoRecords = "(no records found)"

// Provider is a DNS resolver expected in the DNS payload. Aliases are the
// keys under "servers" that may carry its records, tried in order.
type Provider struct {
	Name    string
	Aliases []string
}

// DefaultProviders are always rendered, even when absent from the payload.
var DefaultProviders = []Provider{
	{Name: "Cloudflare", Aliases: []string{"Cloudflare", "cloudflare", "1.1.1.1"}},
	{Name: "Google", Aliases: []string{"Google", "google", "8.8.8.8", "dns.google"}},
}

// NormalizeDNS renders a DNS payload of the shape
//
//	{"servers": {"<provider>": {"<TYPE>": record | [record, ...]}}}
//
// as one section per provider. Every expected provider gets a section; any
// other provider in the payload follows in sorted order. Each section lists
// every type in [RecordTypes] order, one line per value, with [NoRecords]
// for types that have none.
func NormalizeDNS(payload any, providers []Provider) []Section {
	servers, _ := PathCI(payload, P("servers"))
	serverMap, _ := servers.(map[string]any)

	sections := make([]Section, 0, len(providers)+len(serverMap))

	for _, p := range providers {
		var entry any
		for _, alias := range p.Aliases {
			if v, ok := serverMap[alias]; ok && v != nil {
				entry = v
				break
			}
		}
		sections = append(sections, providerSection(p.Name, entry))
	}

	extra := make([]string, 0, len(serverMap))
	for name := range serverMap {
		if !isProviderAlias(providers, name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		sections = append(sections, providerSection(name, serverMap[name]))
	}

	return sections
}

func isProviderAlias(providers []Provider, key string) bool {
	for _, p := range providers {
		for _, alias := range p.Aliases {
			if alias == key {
				return true
			}
		}
	}
	return false
}

func providerSection(title string, entry any) Section {
	records, _ := entry.(map[string]any)
	fields := make([]Field, 0, len(RecordTypes))

	for _, rtype := range RecordTypes {
		var raw any
		if records != nil {
			raw, _ = lookupKeyCI(records, rtype)
		}

		switch val := raw.(type) {
		case nil:
			fields = append(fields, Field{Label: rtype, Value: NoRecords})
		case []any:
			if len(val) == 0 {
				fields = append(fields, Field{Label: rtype, Value: NoRecords})
				continue
			}
			for _, item := range val {
				fields = append(fields, Field{Label: rtype, Value: FormatRecord(rtype, item)})
			}
		default:
			fields = append(fields, Field{Label: rtype, Value: FormatRecord(rtype, val)})
		}
	}

	return Section{Title: title, Fields: fields}
}

// recordFormatter renders an object-shaped record. ok is false when none of
// the expected attributes is present and the generic chain should be tried.
type recordFormatter func(rec map[string]any) (string, bool)

var recordFormatters = map[string]recordFormatter{
	"MX":  formatMX,
	"SRV": formatSRV,
	"SOA": formatSOA,
	"CAA": formatCAA,
	"TXT": formatTXT,
}

// Attribute alias lists, first present (non-null) alias wins.
var (
	mxPreference = []string{"preference", "priority", "pref"}
	mxExchange   = []string{"exchange", "target", "host", "value", "data"}

	srvPriority = []string{"priority", "pr"}
	srvWeight   = []string{"weight", "w"}
	srvPort     = []string{"port", "service_port"}
	srvTarget   = []string{"target", "name", "host"}

	soaMName   = []string{"mname", "primary", "nsname"}
	soaRName   = []string{"rname", "mail", "hostmaster"}
	soaSerial  = []string{"serial", "sn"}
	soaRefresh = []string{"refresh", "ref"}
	soaRetry   = []string{"retry"}
	soaExpire  = []string{"expire", "ex"}
	soaMinimum = []string{"minimum", "min"}

	caaFlags = []string{"flags", "flag"}
	caaTag   = []string{"tag"}
	caaValue = []string{"value", "val", "data"}

	txtValue = []string{"txt", "value", "data"}

	genericValue = []string{"value", "data", "target", "exchange", "addr", "ip", "host", "name"}
)

// FormatRecord renders one DNS record value of the given type.
// Strings and numbers are used verbatim; objects are resolved through
// type-specific attribute aliases and fall back to compact JSON.
func FormatRecord(rtype string, v any) string {
	switch val := v.(type) {
	case nil:
		return Placeholder
	case map[string]any:
		if f, ok := recordFormatters[strings.ToUpper(rtype)]; ok {
			if s, ok := f(val); ok {
				return s
			}
		}
		if g, ok := pick(val, genericValue); ok {
			if list, isList := g.([]any); isList {
				return joinScalars(list, ", ")
			}
			return scalarString(g)
		}
		return compactJSON(val)
	default:
		return scalarString(val)
	}
}

func pick(rec map[string]any, aliases []string) (any, bool) {
	for _, key := range aliases {
		if v, ok := rec[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func formatMX(rec map[string]any) (string, bool) {
	pref, hasPref := pick(rec, mxPreference)
	exch, hasExch := pick(rec, mxExchange)
	if !hasExch || !truthy(exch) {
		return "", false
	}
	if hasPref {
		return scalarString(pref) + " " + scalarString(exch), true
	}
	return scalarString(exch), true
}

func formatSRV(rec map[string]any) (string, bool) {
	return joinPicked(rec, false, srvPriority, srvWeight, srvPort, srvTarget)
}

func formatSOA(rec map[string]any) (string, bool) {
	// Zero or empty SOA attributes are dropped, not rendered as "0".
	return joinPicked(rec, true, soaMName, soaRName, soaSerial, soaRefresh, soaRetry, soaExpire, soaMinimum)
}

func formatCAA(rec map[string]any) (string, bool) {
	return joinPicked(rec, false, caaFlags, caaTag, caaValue)
}

func formatTXT(rec map[string]any) (string, bool) {
	txt, ok := pick(rec, txtValue)
	if !ok {
		return "", false
	}
	if list, isList := txt.([]any); isList {
		return joinScalars(list, " "), true
	}
	return scalarString(txt), true
}

// joinPicked resolves each attribute alias list and joins the found values
// with spaces. With dropFalsy, zero numbers and empty strings are skipped.
func joinPicked(rec map[string]any, dropFalsy bool, attrs ...[]string) (string, bool) {
	parts := make([]string, 0, len(attrs))
	for _, aliases := range attrs {
		v, ok := pick(rec, aliases)
		if !ok || (dropFalsy && !truthy(v)) {
			continue
		}
		parts = append(parts, scalarString(v))
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}

func joinScalars(list []any, sep string) string {
	parts := make([]string, 0, len(list))
	for _, item := range list {
		parts = append(parts, scalarString(item))
	}
	return strings.Join(parts, sep)
}

// truthy mirrors loose truthiness for decoded JSON scalars.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	default:
		if n, ok := v.(interface{ Float64() (float64, error) }); ok {
			f, err := n.Float64()
			return err != nil || f != 0
		}
		return true
	}
}
