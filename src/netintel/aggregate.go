// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netintel

import "time"

// aggregator tracks the tasks of one generation. It is not safe for
// concurrent use; the owning [Inspector] serializes access.
type aggregator struct {
	tasks      map[Lookup]*Task
	summarized bool
}

func newAggregator() *aggregator {
	return &aggregator{tasks: make(map[Lookup]*Task)}
}

// launch registers t as pending. It returns false if a task for the same
// lookup already exists in this generation.
func (a *aggregator) launch(t Task) bool {
	if _, exists := a.tasks[t.Lookup]; exists {
		return false
	}
	t.Status = StatusPending
	a.tasks[t.Lookup] = &t
	return true
}

func (a *aggregator) has(l Lookup) bool {
	_, ok := a.tasks[l]
	return ok
}

// open reports whether l is launched and not yet terminal.
func (a *aggregator) open(l Lookup) bool {
	t, ok := a.tasks[l]
	return ok && !t.Status.Terminal()
}

// start moves a pending task to running.
func (a *aggregator) start(l Lookup, now time.Time) {
	if t, ok := a.tasks[l]; ok && t.Status == StatusPending {
		t.Status = StatusRunning
		t.Started = now
	}
}

// finish applies update to a task that has not reached a terminal state.
// update must set a terminal status. It returns the updated copy, or false
// when the task is unknown or already terminal; a terminal slot is
// written at most once.
func (a *aggregator) finish(l Lookup, now time.Time, update func(*Task)) (Task, bool) {
	t, ok := a.tasks[l]
	if !ok || t.Status.Terminal() {
		return Task{}, false
	}
	update(t)
	if !t.Status.Terminal() {
		t.Status = StatusError
	}
	t.Finished = now
	return *t, true
}

// Settled reports whether at least one task was launched and every
// launched task is terminal.
func (a *aggregator) Settled() bool {
	if len(a.tasks) == 0 {
		return false
	}
	for _, t := range a.tasks {
		if !t.Status.Terminal() {
			return false
		}
	}
	return true
}

// FailureCount is the number of tasks in [StatusError].
func (a *aggregator) FailureCount() int {
	return a.count(StatusError)
}

// WarningCount is the number of tasks in [StatusWarning].
func (a *aggregator) WarningCount() int {
	return a.count(StatusWarning)
}

func (a *aggregator) count(s Status) int {
	n := 0
	for _, t := range a.tasks {
		if t.Status == s {
			n++
		}
	}
	return n
}

// summarize returns the summary exactly once, the first time it is called
// on a settled generation.
func (a *aggregator) summarize(base Summary) (Summary, bool) {
	if a.summarized || !a.Settled() {
		return Summary{}, false
	}
	a.summarized = true
	base.Total = len(a.tasks)
	base.Failures = a.FailureCount()
	base.Warnings = a.WarningCount()
	return base, true
}

// snapshot copies the tasks in display order.
func (a *aggregator) snapshot() []Task {
	out := make([]Task, 0, len(a.tasks))
	for _, l := range displayOrder {
		if t, ok := a.tasks[l]; ok {
			out = append(out, *t)
		}
	}
	return out
}
