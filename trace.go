// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"bufio"
	"fmt"
	"io"
)

// An Event is a committed signal change.
//
type Event struct {
	Time   Time
	Delta  int // delta cycle within Time
	Signal string
	Value  Value
}

func (e Event) String() string {
	return fmt.Sprintf("%v+%d %s=%v", e.Time, e.Delta, e.Signal, e.Value)
}

// Trace is the ordered list of committed signal changes of a session.
//
type Trace struct {
	events []Event
}

func (t *Trace) add(now Time, delta int, cs []Change) {
	if t == nil {
		return
	}
	for _, c := range cs {
		t.events = append(t.events, Event{Time: now, Delta: delta, Signal: c.Signal, Value: c.New})
	}
}

// Len returns the number of events in the trace.
//
func (t *Trace) Len() int {
	if t == nil {
		return 0
	}
	return len(t.events)
}

// Events returns the events in the trace.
//
func (t *Trace) Events() []Event {
	if t == nil {
		return nil
	}
	return t.events
}

// Filter returns the events for the named signal.
//
func (t *Trace) Filter(name string) []Event {
	var out []Event
	for _, e := range t.Events() {
		if e.Signal == name {
			out = append(out, e)
		}
	}
	return out
}

// Diff compares two traces and returns a description of the first difference,
// or an empty string if they are identical.
//
func (t *Trace) Diff(o *Trace) string {
	a, b := t.Events(), o.Events()
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i].Time != b[i].Time || a[i].Delta != b[i].Delta || a[i].Signal != b[i].Signal || !a[i].Value.Equal(b[i].Value) {
			return fmt.Sprintf("event %d: %v != %v", i, a[i], b[i])
		}
	}
	switch {
	case len(a) > len(b):
		return fmt.Sprintf("event %d: %v != <end>", len(b), a[len(b)])
	case len(b) > len(a):
		return fmt.Sprintf("event %d: <end> != %v", len(a), b[len(a)])
	}
	return ""
}

// WriteTo writes the trace to w, one event per line.
//
func (t *Trace) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, e := range t.Events() {
		c, err := fmt.Fprintln(bw, e)
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}
