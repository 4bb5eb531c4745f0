// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netintel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 10 << 20

// apiClient performs GET requests against the lookup API.
type apiClient struct {
	base    string
	http    *http.Client
	timeout time.Duration
}

// buildURL joins the API base, an endpoint path and the query parameters.
// An endpoint that already carries a query string gets the parameters
// appended with "&".
func (c *apiClient) buildURL(endpoint string, params url.Values) string {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	return strings.TrimRight(c.base, "/") + endpoint + sep + params.Encode()
}

// getJSON fetches endpoint and decodes the body.
//
// A non-2xx answer returns a [*TransportError] carrying the status and body.
// A 2xx body that is not valid JSON is returned as map[string]any{"raw": text}.
func (c *apiClient) getJSON(ctx context.Context, endpoint string, params url.Values) (any, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.buildURL(endpoint, params)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/plain;q=0.9, */*;q=0.1")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("GET %s: reading body: %w", target, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return decodeBody(body), nil
}

// decodeBody parses body as a single JSON document, keeping numbers as
// [json.Number]. Anything else is wrapped as {"raw": text}.
func decodeBody(body []byte) any {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return map[string]any{"raw": string(body)}
	}
	// Trailing garbage after the first document means this was not JSON.
	if _, err := dec.Token(); err != io.EOF {
		return map[string]any{"raw": string(body)}
	}
	return v
}
