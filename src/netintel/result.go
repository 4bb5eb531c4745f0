// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netintel

import (
	"fmt"
	"time"
)

// Lookup names one kind of network-intelligence lookup.
type Lookup string

// Supported lookups. The string value is stable and used in logs and exports.
const (
	LookupDNS          Lookup = "dns"
	LookupCertificate  Lookup = "ssl"
	LookupGeolocation  Lookup = "ip"
	LookupRegistration Lookup = "domain"
	LookupAnalyze      Lookup = "analyze"
	LookupPropagation  Lookup = "propagation"
)

// displayOrder is the order in which tasks are reported by [Inspector.Snapshot].
var displayOrder = []Lookup{
	LookupDNS,
	LookupCertificate,
	LookupGeolocation,
	LookupRegistration,
	LookupAnalyze,
	LookupPropagation,
}

// Title returns a human readable name for the lookup.
func (l Lookup) Title() string {
	switch l {
	case LookupDNS:
		return "DNS"
	case LookupCertificate:
		return "Certificate"
	case LookupGeolocation:
		return "IP Geolocation"
	case LookupRegistration:
		return "Registration"
	case LookupAnalyze:
		return "Analyze"
	case LookupPropagation:
		return "Propagation"
	default:
		return string(l)
	}
}

// Status is the lifecycle state of a single [Task].
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusOK
	StatusWarning
	StatusError
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusOK:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal reports whether s is final.
func (s Status) Terminal() bool {
	return s == StatusOK || s == StatusWarning || s == StatusError
}

// Field is one display line. Value is never empty for a missing datum;
// absence is rendered as [Placeholder].
type Field struct {
	Label string
	Value string
}

// Section is a titled group of fields. Most lookups produce one untitled
// section; DNS produces one section per provider.
type Section struct {
	Title  string
	Fields []Field
}

// Task represents one lookup belonging to one submission.
type Task struct {
	// Lookup is the kind of lookup this task performs.
	Lookup Lookup

	// Endpoint is the API path that produced the payload. For the analyze
	// lookup it is the variant that answered.
	Endpoint string

	// Param is the query parameter sent to the endpoint (domain or IP).
	Param string

	// Status is the current lifecycle state.
	Status Status

	// Payload is the decoded upstream body. Non-JSON bodies are wrapped
	// as map[string]any{"raw": text}.
	Payload any

	// Sections is the normalized, display-ready form of Payload.
	Sections []Section

	// Degraded is set by normalizers that detect an unhealthy value,
	// e.g. a certificate expiring in less than 10 days.
	Degraded bool

	// Err is non-nil for warning and error states.
	Err error

	// Generation is the submission this task belongs to.
	Generation uint64

	// Supplementary is true for a geolocation task launched because an
	// IP address was found in another lookup's payload.
	Supplementary bool

	// Started and Finished bound the network call. Zero while pending.
	Started  time.Time
	Finished time.Time
}

// Summary is emitted once per submission when every launched task is terminal.
type Summary struct {
	// Generation is the submission the summary describes.
	Generation uint64

	// ID is the random identifier used to correlate log lines.
	ID string

	// Target is the classified input.
	Target Target

	// Total is the number of tasks that reached a terminal state.
	Total int

	// Failures is the number of tasks that ended in [StatusError].
	Failures int

	// Warnings is the number of tasks that ended in [StatusWarning].
	Warnings int
}

// AllSucceeded reports whether no task ended in [StatusError].
// Warnings do not count as failures.
func (s Summary) AllSucceeded() bool {
	return s.Failures == 0
}

// Message renders the one-line status shown after a submission settles.
func (s Summary) Message() string {
	if s.AllSucceeded() {
		return "all lookups succeeded"
	}
	if s.Failures == 1 {
		return "1 lookup failed"
	}
	return fmt.Sprintf("%d lookups failed", s.Failures)
}
