// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package dnsapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/miekg/dns"
)

// Resolver is an upstream recursive DNS server.
type Resolver struct {
	// Name is the key the resolver's answers are reported under.
	Name string `yaml:"name" json:"name"`

	// Address is the server IP, optionally with a port. Port 53 is assumed
	// when omitted.
	Address string `yaml:"address" json:"address"`
}

// defaultResolvers answer the "/" route, reported by provider name.
var defaultResolvers = []Resolver{
	{Name: "Cloudflare", Address: "1.1.1.1"},
	{Name: "Google", Address: "8.8.8.8"},
	{Name: "Quad9", Address: "9.9.9.9"},
}

// defaultPropagationResolvers answer the "/propagation" route, reported by
// address.
var defaultPropagationResolvers = []Resolver{
	{Name: "1.1.1.1", Address: "1.1.1.1"},               // Cloudflare
	{Name: "8.8.8.8", Address: "8.8.8.8"},               // Google
	{Name: "9.9.9.9", Address: "9.9.9.9"},               // Quad9
	{Name: "208.67.222.222", Address: "208.67.222.222"}, // OpenDNS
	{Name: "8.26.56.26", Address: "8.26.56.26"},         // Comodo
}

// DefaultRecordTypes are queried when a request does not name any.
var DefaultRecordTypes = []string{"A", "AAAA", "CNAME", "MX", "NS", "TXT", "SOA"}

// Answer lines that stand for a failed query rather than a record.
const (
	answerNXDOMAIN = "NXDOMAIN"
	answerTimeout  = "Timeout"
)

// parseRecordType converts a record type name (e.g. "TXT", "caa") to the
// corresponding dns library constant.
func parseRecordType(rtype string) (uint16, bool) {
	t, ok := dns.StringToType[strings.ToUpper(strings.TrimSpace(rtype))]
	if !ok || t == dns.TypeNone {
		return 0, false
	}
	return t, true
}

// serverAddr appends the default port to a bare address.
func serverAddr(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(strings.Trim(addr, "[]"), "53")
}

// queryDNS sends a DNS query for the given domain to the specified server.
// It respects context cancellation and the configured timeout.
func queryDNS(ctx context.Context, client *dns.Client, domain, server string, qtype, edns0Size uint16) (*dns.Msg, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), qtype)
	msg.RecursionDesired = true
	if edns0Size > 0 {
		msg.SetEdns0(edns0Size, false)
	}

	// Create a channel to receive the result so we can
	// respect context cancellation.
	type dnsResult struct {
		msg *dns.Msg
		err error
	}
	ch := make(chan dnsResult, 1)

	go func() {
		resp, _, err := client.ExchangeContext(ctx, msg, serverAddr(server))
		ch <- dnsResult{msg: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrDNSTimeout, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			var netErr net.Error
			if errors.As(result.err, &netErr) && netErr.Timeout() {
				return nil, fmt.Errorf("%w: %v", ErrDNSTimeout, result.err)
			}
			return nil, result.err
		}
		return result.msg, nil
	}
}

// formatAnswers renders the records of type qtype in the answer section.
//
// TXT strings are concatenated, MX is "<preference> <exchange>", anything
// else is the record data in presentation format. CNAME records followed
// while resolving another type are not included.
func formatAnswers(msg *dns.Msg, qtype uint16) []string {
	out := make([]string, 0, len(msg.Answer))
	for _, rr := range msg.Answer {
		if rr.Header().Rrtype != qtype {
			continue
		}
		switch rec := rr.(type) {
		case *dns.TXT:
			out = append(out, strings.Join(rec.Txt, ""))
		case *dns.MX:
			out = append(out, fmt.Sprintf("%d %s", rec.Preference, rec.Mx))
		default:
			out = append(out, rdata(rr))
		}
	}
	return out
}

// rdata is the presentation form of rr without its header.
func rdata(rr dns.RR) string {
	return strings.TrimSpace(strings.TrimPrefix(rr.String(), rr.Header().String()))
}

// outcome maps a query result to the answer lines reported for it.
// cacheable is false for transient failures.
func outcome(msg *dns.Msg, err error, qtype uint16) (answers []string, cacheable bool) {
	switch {
	case errors.Is(err, ErrDNSTimeout):
		return []string{answerTimeout}, false
	case err != nil:
		return []string{"Error: " + failureText(err)}, false
	case msg == nil:
		return []string{"Error: empty response"}, false
	case msg.Rcode == dns.RcodeNameError:
		return []string{answerNXDOMAIN}, true
	case msg.Rcode != dns.RcodeSuccess:
		return []string{"NoNameservers: " + dns.RcodeToString[msg.Rcode]}, false
	default:
		return formatAnswers(msg, qtype), true
	}
}

// failureText renders a transport failure without the socket addresses
// carried by [net.OpError]. Answer lines are scanned for IP literals
// downstream, so the local address must never appear in them.
func failureText(err error) string {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return "connection refused"
	case errors.Is(err, syscall.ENETUNREACH):
		return "network unreachable"
	case errors.Is(err, syscall.EHOSTUNREACH):
		return "host unreachable"
	case errors.Is(err, syscall.ECONNRESET):
		return "connection reset"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Err != nil {
		return failureText(opErr.Err)
	}
	return err.Error()
}

// checkResolverHealth performs a health check on a single resolver by
// resolving probe and measuring the latency.
func checkResolverHealth(ctx context.Context, client *dns.Client, r Resolver, probe string, edns0Size uint16) ResolverStatus {
	start := time.Now()

	resp, err := queryDNS(ctx, client, probe, r.Address, dns.TypeA, edns0Size)
	latency := time.Since(start).Milliseconds()

	status := ResolverStatus{Name: r.Name, Address: r.Address}
	switch {
	case err != nil:
		status.Error = err.Error()
	case resp == nil || resp.Rcode != dns.RcodeSuccess:
		rcode := -1
		if resp != nil {
			rcode = resp.Rcode
		}
		status.Error = fmt.Sprintf("unexpected response code: %d", rcode)
	default:
		status.Online = true
		status.LatencyMs = latency
	}
	return status
}
