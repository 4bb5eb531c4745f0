// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netintel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{
			name: "nested three levels without a known key",
			payload: map[string]any{
				"results": []any{
					map[string]any{"meta": map[string]any{"origin": "served by 93.184.216.34 today"}},
				},
			},
			want: "93.184.216.34",
		},
		{
			name: "ipv4 preferred over earlier ipv6",
			payload: map[string]any{
				"AAAA": []any{"2606:2800:220:1:248:1893:25c8:1946"},
				"zzz":  "10.0.0.1",
			},
			want: "10.0.0.1",
		},
		{
			name: "ipv6 when no ipv4",
			payload: map[string]any{
				"servers": map[string]any{"Cloudflare": map[string]any{"AAAA": []any{"2001:db8::1"}}},
			},
			want: "2001:db8::1",
		},
		{
			name: "priority key discovered first",
			payload: map[string]any{
				"aaa": "192.0.2.99",
				"ip":  "198.51.100.7",
			},
			want: "198.51.100.7",
		},
		{
			name: "remaining keys in sorted order",
			payload: map[string]any{
				"zeta":  "192.0.2.2",
				"alpha": "192.0.2.1",
			},
			want: "192.0.2.1",
		},
		{
			name:    "strict ipv4 skips out of range octets",
			payload: []any{"999.1.1.1", "203.0.113.5"},
			want:    "203.0.113.5",
		},
		{
			name:    "number values are scanned",
			payload: map[string]any{"count": json.Number("42")},
			want:    "",
		},
		{
			name:    "nothing found",
			payload: map[string]any{"status": "NXDOMAIN", "servers": map[string]any{}},
			want:    "",
		},
		{
			name:    "nil",
			payload: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractIP(tt.payload))
		})
	}
}

func TestExtractIPNodeBudget(t *testing.T) {
	big := make([]any, maxExtractNodes+10)
	for i := range big {
		big[i] = "x"
	}
	// The address sits past the node budget and is never visited.
	big[len(big)-1] = "192.0.2.1"
	assert.Equal(t, "", ExtractIP(big))
}
