// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netintel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Default configuration values.
const (
	defaultAPIBase     = "http://localhost/api"
	defaultConcurrency = 8
)

// lookupEndpoints maps each lookup to its path and query parameter.
// The analyze lookup has no fixed path; it goes through [EndpointFallback].
var lookupEndpoints = map[Lookup]struct{ path, param string }{
	LookupDNS:          {"/dns/", "domain"},
	LookupCertificate:  {"/ssl/ssl", "domain"},
	LookupGeolocation:  {"/ip/", "target"},
	LookupRegistration: {"/domain/", "domain"},
	LookupAnalyze:      {"", "target"},
	LookupPropagation:  {"/dns/propagation", "domain"},
}

// SubmitOptions selects the optional lookups of a submission.
type SubmitOptions struct {
	// AutoAnalyze adds the analyze lookup.
	AutoAnalyze bool

	// PropagationCheck adds the propagation lookup. Domains only.
	PropagationCheck bool
}

// Inspector runs every lookup relevant to a target concurrently against
// a lookup API and aggregates the results.
//
// Only one submission is live at a time. Submitting again, or calling
// [Inspector.Reset], cancels the in-flight requests of the previous
// submission and discards anything they return afterwards.
//
// An Inspector is safe for concurrent use.
type Inspector struct {
	client           apiClient
	analyze          []string
	norm             normalizer
	concurrency      int
	logger           zerolog.Logger
	onSummary        func(Summary)
	onTask           func(Task)
	registrableWHOIS bool

	mu    sync.Mutex
	token uint64
	live  *generation
}

// generation is the state of one submission.
type generation struct {
	token  uint64
	id     string
	target Target
	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
	agg    *aggregator

	// chain is set when geolocation is derived from the DNS or analyze
	// payload instead of being part of the initial task set.
	chain           bool
	triggersPending int
	triggerOK       bool

	summary Summary
	closed  bool
	done    chan struct{}
}

// taskSpec describes one lookup to launch.
type taskSpec struct {
	lookup        Lookup
	param         string
	supplementary bool
}

// New creates a new [Inspector]. Use functional options to customize
// behavior.
//
//	in := netintel.New(
//	    netintel.WithAPIBase("https://tools.example.net/api"),
//	    netintel.WithTimeout(15 * time.Second),
//	)
func New(opts ...Option) *Inspector {
	i := &Inspector{
		client: apiClient{
			base: defaultAPIBase,
			http: http.DefaultClient,
		},
		analyze:     append([]string(nil), DefaultAnalyzeEndpoints...),
		norm:        normalizer{providers: DefaultProviders, now: time.Now},
		concurrency: defaultConcurrency,
		logger:      zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Submit classifies raw and launches its lookups.
//
// The previous submission, if any, is cancelled first, even when raw turns
// out to be invalid. Invalid input returns an error wrapping
// [ErrInvalidInput] and launches nothing.
//
// Submit does not wait for the lookups; use [Submission.Wait] or
// [Submission.Done]. ctx bounds every request of the submission.
func (i *Inspector) Submit(ctx context.Context, raw string, opts SubmitOptions) (*Submission, error) {
	target := NewTarget(raw)

	i.mu.Lock()
	i.token++
	i.retire()

	if target.Kind == KindInvalid {
		i.mu.Unlock()
		i.logger.Warn().Str("input", raw).Msg("rejected invalid target")
		return nil, fmt.Errorf("%w: %q", ErrInvalidInput, raw)
	}

	gctx, cancel := context.WithCancel(ctx)
	gen := &generation{
		token:  i.token,
		id:     uuid.NewString(),
		target: target,
		ctx:    gctx,
		cancel: cancel,
		group:  new(errgroup.Group),
		agg:    newAggregator(),
		done:   make(chan struct{}),
	}
	gen.group.SetLimit(i.concurrency)
	gen.summary = Summary{Generation: gen.token, ID: gen.id, Target: target}

	specs := i.plan(target, opts)
	now := i.norm.now()
	for _, spec := range specs {
		gen.agg.launch(Task{
			Lookup:     spec.lookup,
			Param:      spec.param,
			Generation: gen.token,
			Started:    now,
		})
		if spec.lookup == LookupDNS || spec.lookup == LookupAnalyze {
			gen.triggersPending++
		}
	}
	gen.chain = !gen.agg.has(LookupGeolocation)
	i.live = gen
	i.mu.Unlock()

	i.logger.Info().
		Uint64("generation", gen.token).
		Str("id", gen.id).
		Str("target", target.Raw).
		Stringer("kind", target.Kind).
		Int("tasks", len(specs)).
		Msg("submission started")

	for _, spec := range specs {
		i.dispatch(gen, spec)
	}

	return &Submission{inspector: i, gen: gen}, nil
}

// Reset cancels the live submission and clears the visible state.
func (i *Inspector) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.token++
	i.retire()
}

// Snapshot returns a copy of the live submission's tasks in display order
// (DNS, certificate, geolocation, registration, analyze, propagation).
// It returns nil when nothing is live.
func (i *Inspector) Snapshot() []Task {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.live == nil {
		return nil
	}
	return i.live.agg.snapshot()
}

// Generation returns the token of the most recent submission or reset.
func (i *Inspector) Generation() uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.token
}

// retire cancels the live generation. Callers must hold i.mu.
func (i *Inspector) retire() {
	gen := i.live
	if gen == nil {
		return
	}
	i.live = nil
	gen.cancel()
	if !gen.closed {
		gen.closed = true
		close(gen.done)
	}
	i.logger.Debug().Uint64("generation", gen.token).Msg("submission superseded")
}

// plan returns the task set for target.
func (i *Inspector) plan(target Target, opts SubmitOptions) []taskSpec {
	if target.Kind.IsIP() {
		specs := []taskSpec{{lookup: LookupGeolocation, param: target.Raw}}
		if opts.AutoAnalyze {
			specs = append(specs, taskSpec{lookup: LookupAnalyze, param: target.Raw})
		}
		return specs
	}

	whois := target.Raw
	if i.registrableWHOIS && target.Registrable != "" {
		whois = target.Registrable
	}

	specs := []taskSpec{
		{lookup: LookupDNS, param: target.Raw},
		{lookup: LookupCertificate, param: target.Raw},
		{lookup: LookupRegistration, param: whois},
	}
	if opts.AutoAnalyze {
		specs = append(specs, taskSpec{lookup: LookupAnalyze, param: target.Raw})
	}
	if opts.PropagationCheck {
		specs = append(specs, taskSpec{lookup: LookupPropagation, param: target.Raw})
	}
	return specs
}

// dispatch hands spec to the generation's bounded group. Group.Go blocks
// while the limit is reached, so it is called from a fresh goroutine: a
// trigger task launching its follow-up must not wait on its own slot.
func (i *Inspector) dispatch(gen *generation, spec taskSpec) {
	go gen.group.Go(func() error {
		i.run(gen, spec)
		return nil
	})
}

// run performs one lookup and records its outcome.
func (i *Inspector) run(gen *generation, spec taskSpec) {
	defer func() {
		if r := recover(); r != nil {
			i.complete(gen, spec, outcome{err: fmt.Errorf("%w: %v", ErrInternalPanic, r)})
		}
	}()

	i.markRunning(gen, spec.lookup)

	payload, endpoint, err := i.fetch(gen.ctx, spec)
	out := outcome{payload: payload, endpoint: endpoint, err: err}
	if err == nil {
		out.sections, out.degraded = i.norm.normalize(spec.lookup, payload)
	}
	i.complete(gen, spec, out)
}

// fetch issues the request for spec.
func (i *Inspector) fetch(ctx context.Context, spec taskSpec) (any, string, error) {
	ep := lookupEndpoints[spec.lookup]
	params := url.Values{ep.param: {spec.param}}

	if spec.lookup == LookupAnalyze {
		fallback := EndpointFallback{Candidates: i.AnalyzeEndpoints()}
		return fallback.Resolve(ctx, func(ctx context.Context, endpoint string) (any, error) {
			return i.client.getJSON(ctx, endpoint, params)
		})
	}

	payload, err := i.client.getJSON(ctx, ep.path, params)
	return payload, ep.path, err
}

func (i *Inspector) markRunning(gen *generation, l Lookup) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.live == gen {
		gen.agg.start(l, i.norm.now())
	}
}

// outcome is the result of one network call.
type outcome struct {
	payload  any
	endpoint string
	sections []Section
	degraded bool
	err      error
}

// complete records the outcome of spec, then notifies the handlers and
// launches the supplementary geolocation lookup if one was registered.
func (i *Inspector) complete(gen *generation, spec taskSpec, out outcome) {
	rec, ok := i.record(gen, spec, out)
	if !ok {
		i.logger.Debug().
			Uint64("generation", gen.token).
			Str("lookup", string(spec.lookup)).
			Msg("discarded stale result")
		return
	}
	if rec.settled {
		defer i.release(gen)
	}

	if rec.follow != nil {
		i.logger.Info().
			Uint64("generation", gen.token).
			Str("ip", rec.follow.param).
			Str("from", string(spec.lookup)).
			Msg("chaining geolocation lookup")
		i.dispatch(gen, *rec.follow)
	}

	for _, t := range rec.tasks {
		ev := i.logger.Info()
		if t.Status == StatusError {
			ev = i.logger.Warn().Err(t.Err)
		}
		ev.Uint64("generation", t.Generation).
			Str("lookup", string(t.Lookup)).
			Stringer("status", t.Status).
			Dur("duration", t.Finished.Sub(t.Started)).
			Msg("lookup finished")
		if i.onTask != nil {
			i.onTask(t)
		}
	}

	if rec.settled {
		i.logger.Info().
			Uint64("generation", rec.summary.Generation).
			Str("id", rec.summary.ID).
			Int("total", rec.summary.Total).
			Int("failures", rec.summary.Failures).
			Int("warnings", rec.summary.Warnings).
			Msg(rec.summary.Message())
		if i.onSummary != nil {
			i.onSummary(rec.summary)
		}
	}
}

// release closes gen.done once. Waiters are woken after the summary
// handler returned.
func (i *Inspector) release(gen *generation) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !gen.closed {
		gen.closed = true
		close(gen.done)
	}
}

// recorded is what [Inspector.record] changed.
type recorded struct {
	tasks   []Task
	follow  *taskSpec
	summary Summary
	settled bool
}

// record applies out to the task table under the lock. Nothing is written
// unless gen is still live and the task is not yet terminal.
func (i *Inspector) record(gen *generation, spec taskSpec, out outcome) (recorded, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	var rec recorded
	if i.live != gen || !gen.agg.open(spec.lookup) {
		return rec, false
	}
	now := i.norm.now()

	if gen.chain && (spec.lookup == LookupDNS || spec.lookup == LookupAnalyze) {
		rec.follow = i.chain(gen, out, now)
	}

	t, ok := gen.agg.finish(spec.lookup, now, func(t *Task) {
		t.Payload = out.payload
		t.Endpoint = out.endpoint
		t.Sections = out.sections
		t.Degraded = out.degraded
		t.Err = out.err
		if out.err != nil {
			t.Status = StatusError
		} else {
			t.Status = StatusOK
		}
	})
	if !ok {
		return rec, false
	}
	rec.tasks = append(rec.tasks, t)

	// Written after the trigger so the warning is reported after it.
	if w, ok := i.notFound(gen, now); ok {
		rec.tasks = append(rec.tasks, w)
	}

	if s, ok := gen.agg.summarize(gen.summary); ok {
		gen.summary = s
		rec.summary, rec.settled = s, true
	}
	return rec, true
}

// chain handles a finished trigger lookup. A geolocation task for an
// address found in its payload is registered before the trigger goes
// terminal so the generation cannot settle in between.
func (i *Inspector) chain(gen *generation, out outcome, now time.Time) *taskSpec {
	gen.triggersPending--
	if out.err != nil {
		return nil
	}
	gen.triggerOK = true
	if gen.agg.has(LookupGeolocation) {
		return nil
	}

	ip := ExtractIP(out.payload)
	if ip == "" {
		return nil
	}
	spec := taskSpec{lookup: LookupGeolocation, param: ip, supplementary: true}
	gen.agg.launch(Task{
		Lookup:        LookupGeolocation,
		Param:         ip,
		Generation:    gen.token,
		Supplementary: true,
		Started:       now,
	})
	return &spec
}

// notFound records the geolocation warning once every trigger finished
// without yielding an address and at least one of them succeeded.
func (i *Inspector) notFound(gen *generation, now time.Time) (Task, bool) {
	if !gen.chain || gen.triggersPending > 0 || !gen.triggerOK || gen.agg.has(LookupGeolocation) {
		return Task{}, false
	}
	gen.agg.launch(Task{
		Lookup:        LookupGeolocation,
		Generation:    gen.token,
		Supplementary: true,
		Started:       now,
	})
	return gen.agg.finish(LookupGeolocation, now, func(t *Task) {
		t.Status = StatusWarning
		t.Err = ErrNoIPFound
		t.Sections = []Section{{Fields: []Field{{Label: "ip", Value: Placeholder}}}}
	})
}

// Submission is a handle on one call to [Inspector.Submit].
type Submission struct {
	inspector *Inspector
	gen       *generation
}

// Target returns the classified input.
func (s *Submission) Target() Target { return s.gen.target }

// Generation returns the submission's generation token.
func (s *Submission) Generation() uint64 { return s.gen.token }

// ID returns the random identifier attached to the submission's log lines.
func (s *Submission) ID() string { return s.gen.id }

// Done is closed when the submission settles or is superseded.
func (s *Submission) Done() <-chan struct{} { return s.gen.done }

// Wait blocks until the submission settles and returns its [Summary].
// It returns [ErrStaleGeneration] if the submission was superseded first,
// or ctx.Err() if ctx is done first.
func (s *Submission) Wait(ctx context.Context) (Summary, error) {
	select {
	case <-s.gen.done:
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	}

	s.inspector.mu.Lock()
	defer s.inspector.mu.Unlock()
	if !s.gen.agg.summarized {
		return Summary{}, fmt.Errorf("%w: generation %d", ErrStaleGeneration, s.gen.token)
	}
	return s.gen.summary, nil
}

// Tasks returns a copy of this submission's tasks in display order. The
// tasks of a superseded submission stop changing once it is cancelled.
func (s *Submission) Tasks() []Task {
	s.inspector.mu.Lock()
	defer s.inspector.mu.Unlock()
	return s.gen.agg.snapshot()
}

// Stale reports whether a later submission or reset replaced this one.
func (s *Submission) Stale() bool {
	s.inspector.mu.Lock()
	defer s.inspector.mu.Unlock()
	return s.inspector.live != s.gen
}

// IsStale reports whether err signals a superseded submission.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleGeneration)
}
