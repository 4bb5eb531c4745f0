// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netintel

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// expiryWarningDays is the threshold below which a certificate is degraded.
const expiryWarningDays = 10

// Certificate is the normalized form of a certificate payload.
type Certificate struct {
	// DaysRemaining is the number of days until expiry. Only meaningful
	// when HasDaysRemaining is true.
	DaysRemaining int

	// HasDaysRemaining is false when neither an explicit count nor a
	// parseable expiry timestamp was present.
	HasDaysRemaining bool

	// Degraded is set when DaysRemaining is known and below 10.
	Degraded bool

	// Fields holds the display lines in fixed order.
	Fields []Field
}

// fieldSpec is one display line and its candidate key-paths, tried in order.
type fieldSpec struct {
	label string
	paths []KeyPath
}

var (
	certDaysPaths   = []KeyPath{P("local_certificate", "days_remaining"), P("days_remaining")}
	certExpiryPaths = []KeyPath{P("local_certificate", "not_valid_after"), P("not_valid_after")}
	certGradePaths  = []KeyPath{
		P("ssl_labs_summary", "grades"),
		P("ssl_labs_summary", "overall_grade"),
		P("grades"),
		P("overall_grade"),
	}
)

var certFields = []fieldSpec{
	{"subject.commonName", []KeyPath{P("local_certificate", "subject", "commonName"), P("subject", "commonName")}},
	{"issuer.countryName", []KeyPath{P("local_certificate", "issuer", "countryName"), P("issuer", "countryName")}},
	{"not_valid_after", certExpiryPaths},
	{"not_valid_before", []KeyPath{P("local_certificate", "not_valid_before"), P("not_valid_before")}},
	{"signature_algorithm", []KeyPath{P("local_certificate", "signature_algorithm"), P("signature_algorithm")}},
	{"issuer.commonName", []KeyPath{P("local_certificate", "issuer", "commonName"), P("issuer", "commonName")}},
	{"issuer.organizationName", []KeyPath{P("local_certificate", "issuer", "organizationName"), P("issuer", "organizationName")}},
	{"version", []KeyPath{P("local_certificate", "version"), P("version")}},
	{"grades", certGradePaths},
	{"protocols", []KeyPath{P("ssl_labs_summary", "protocols"), P("protocols")}},
	{"vulnerabilities", []KeyPath{P("ssl_labs_summary", "vulnerabilities"), P("vulnerabilities")}},
}

// NormalizeCertificate renders a certificate payload, flat or nested under
// "local_certificate" / "ssl_labs_summary", relative to now.
//
// Days remaining prefers an explicit "days_remaining" count. Otherwise it is
// the ceiling of the whole-day difference between "not_valid_after" and now.
func NormalizeCertificate(payload any, now time.Time) Certificate {
	var c Certificate

	if v, ok := FirstPath(payload, certDaysPaths...); ok {
		if n, ok := toInt(v); ok {
			c.DaysRemaining, c.HasDaysRemaining = n, true
		}
	}
	if !c.HasDaysRemaining {
		if v, ok := FirstPath(payload, certExpiryPaths...); ok {
			if expiry, ok := parseTimestamp(v); ok {
				c.DaysRemaining, c.HasDaysRemaining = daysUntil(expiry, now), true
			}
		}
	}
	c.Degraded = c.HasDaysRemaining && c.DaysRemaining < expiryWarningDays

	days := Placeholder
	if c.HasDaysRemaining {
		days = strconv.Itoa(c.DaysRemaining)
	}
	c.Fields = make([]Field, 0, len(certFields)+1)
	c.Fields = append(c.Fields, Field{Label: "days_remaining", Value: days})
	for _, f := range certFields {
		v, _ := FirstPath(payload, f.paths...)
		c.Fields = append(c.Fields, Field{Label: f.label, Value: displayValue(v)})
	}
	return c
}

// daysUntil is ceil((expiry - now) / 24h).
func daysUntil(expiry, now time.Time) int {
	d := expiry.Sub(now)
	return int(math.Ceil(d.Hours() / 24))
}

func toInt(v any) (int, bool) {
	var f float64
	switch val := v.(type) {
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = val
	case int:
		return val, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// timestampLayouts are the expiry formats seen from certificate backends.
var timestampLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"Jan _2 15:04:05 2006 MST",
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02",
}

func parseTimestamp(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
