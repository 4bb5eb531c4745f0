// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netintel

import (
	"bytes"
	"encoding/json"
	"time"
)

// Dump renders a payload with no fixed schema as a single field under
// label. Strings are kept verbatim; anything else is indented JSON so no
// information is lost.
func Dump(label string, payload any) []Field {
	switch val := payload.(type) {
	case nil:
		return []Field{{Label: label, Value: "null"}}
	case string:
		return []Field{{Label: label, Value: val}}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return []Field{{Label: label, Value: scalarString(payload)}}
	}
	return []Field{{Label: label, Value: string(bytes.TrimRight(buf.Bytes(), "\n"))}}
}

// normalizer holds the inputs that are not part of the payload.
type normalizer struct {
	providers []Provider
	now       func() time.Time
}

// normalize dispatches a payload to the normalizer of its lookup.
func (n normalizer) normalize(lookup Lookup, payload any) (sections []Section, degraded bool) {
	switch lookup {
	case LookupDNS:
		return NormalizeDNS(payload, n.providers), false
	case LookupCertificate:
		c := NormalizeCertificate(payload, n.now())
		return []Section{{Fields: c.Fields}}, c.Degraded
	case LookupGeolocation:
		return []Section{{Fields: NormalizeGeolocation(payload)}}, false
	case LookupRegistration:
		return []Section{{Fields: NormalizeRegistration(payload)}}, false
	default:
		return []Section{{Fields: Dump(string(lookup), payload)}}, false
	}
}
