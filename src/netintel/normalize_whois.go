// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netintel

import (
	"bytes"
	"encoding/json"
)

// registrationField is one display line of a registration record.
type registrationField struct {
	key   string
	multi bool
}

var registrationFields = []registrationField{
	{key: "creation_date"},
	{key: "expiration_date"},
	{key: "updated_date"},
	{key: "status"},
	{key: "name_servers", multi: true},
	{key: "registrar"},
	{key: "dnssec"},
	{key: "name"},
	{key: "org"},
	{key: "address"},
	{key: "city"},
	{key: "state"},
	{key: "country"},
	{key: "emails"},
	{key: "whois_server"},
}

// NormalizeRegistration renders a WHOIS-like payload. The payload carries a
// pre-parsed structured object and, under "raw", the same record as JSON
// text. Each field is taken from the structured object when present and
// otherwise from the parsed raw text.
//
// Multi-valued name servers render one line per value.
func NormalizeRegistration(payload any) []Field {
	structured, _ := payload.(map[string]any)
	raw := parseRawRecord(structured)

	fields := make([]Field, 0, len(registrationFields)+4)
	for _, f := range registrationFields {
		v := resolveRegistrationField(f.key, structured, raw)
		if f.multi {
			fields = append(fields, multiFields(f.key, v)...)
			continue
		}
		fields = append(fields, Field{Label: f.key, Value: displayValue(v)})
	}
	return fields
}

// resolveRegistrationField takes the structured value and falls back to the
// raw record. Precedence is per field: a field missing from the structured
// object is looked up in the raw record independently of every other field.
func resolveRegistrationField(key string, structured, raw map[string]any) any {
	for _, obj := range []map[string]any{structured, raw} {
		if v, ok := obj[key]; ok && isPresent(v) {
			return v
		}
	}
	return nil
}

func multiFields(label string, v any) []Field {
	switch val := v.(type) {
	case nil:
		return []Field{{Label: label, Value: Placeholder}}
	case []any:
		out := make([]Field, 0, len(val))
		for _, item := range val {
			out = append(out, Field{Label: label, Value: displayValue(item)})
		}
		return out
	default:
		return []Field{{Label: label, Value: displayValue(val)}}
	}
}

// parseRawRecord decodes the "raw" member, which is normally a JSON
// document serialized as a string. An embedded object is used as-is.
// Anything unparseable yields nil, and every field falls back to the
// structured object only.
func parseRawRecord(structured map[string]any) map[string]any {
	if structured == nil {
		return nil
	}
	switch raw := structured["raw"].(type) {
	case map[string]any:
		return raw
	case string:
		dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
		dec.UseNumber()
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			return nil
		}
		return obj
	default:
		return nil
	}
}
