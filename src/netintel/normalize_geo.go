// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netintel

var geoFields = []fieldSpec{
	{"as", []KeyPath{P("as"), P("raw", "as")}},
	{"continent", []KeyPath{P("raw", "continent"), P("continent")}},
	{"city", []KeyPath{P("city"), P("raw", "city")}},
	{"country", []KeyPath{P("country"), P("raw", "country")}},
	{"lat", []KeyPath{P("lat"), P("raw", "lat")}},
	{"lon", []KeyPath{P("lon"), P("raw", "lon")}},
	{"regionName", []KeyPath{P("raw", "regionName"), P("region"), P("regionName")}},
	{"timezone", []KeyPath{P("timezone"), P("raw", "timezone")}},
	{"zip", []KeyPath{P("zip"), P("raw", "zip")}},
	{"hosting", []KeyPath{P("raw", "hosting"), P("hosting")}},
	{"reverse", []KeyPath{P("raw", "reverse"), P("reverse_dns"), P("reverse")}},
}

// NormalizeGeolocation renders a geolocation payload, flat or nested under
// "raw", as a fixed list of fields. Missing fields render [Placeholder].
func NormalizeGeolocation(payload any) []Field {
	fields := make([]Field, 0, len(geoFields))
	for _, f := range geoFields {
		v, _ := FirstPath(payload, f.paths...)
		fields = append(fields, Field{Label: f.label, Value: displayValue(v)})
	}
	return fields
}
