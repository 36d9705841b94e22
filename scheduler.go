// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

// A Routine is a cooperatively scheduled simulation routine: a test sequence,
// a clock generator, a bus functional model...
//
// Routines run one at a time. Control only passes to other routines when the
// running routine suspends itself with one of the Proc wait methods, so
// routines never need to synchronize access to signals.
//
// A routine that returns a non-nil error other than an *AssertionError, or
// that panics, makes the whole session fault.
//
type Routine func(p *Proc) error

// Edge is a signal transition a routine can wait for. Only bit 0 of a signal
// is considered. Transitions from or to an unknown state never match Rising
// or Falling.
//
type Edge uint8

// Edges.
//
const (
	Rising  Edge = iota // 0 -> 1
	Falling             // 1 -> 0
	Any                 // any change of the committed value
)

func (e Edge) String() string {
	switch e {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	}
	return "any"
}

func (e Edge) match(old, new Value) bool {
	switch e {
	case Rising:
		return old.At(0) == L0 && new.At(0) == L1
	case Falling:
		return old.At(0) == L1 && new.At(0) == L0
	}
	return !old.Equal(new)
}

// routine is the scheduler side of a Routine. Each routine runs in its own
// goroutine, parked on resume until the scheduler hands it control.
//
type routine struct {
	name   string
	fn     Routine
	resume chan bool // true: run, false: stop
	done   bool
}

type parkMsg struct {
	r    *routine
	done bool
	err  error
}

type timer struct {
	at  Time
	seq uint64
	r   *routine
}

// timerHeap orders timers by time then registration order.
//
type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x interface{}) { *h = append(*h, x.(*timer)) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

type edgeWait struct {
	signal string
	edge   Edge
	r      *routine
}

func (s *Session) spawn(name string, fn Routine) *routine {
	r := &routine{name: name, fn: fn, resume: make(chan bool)}
	s.routines = append(s.routines, r)
	s.ready = append(s.ready, r)
	go s.run(r)
	return r
}

func (s *Session) run(r *routine) {
	var err error
	defer func() {
		s.park <- parkMsg{r: r, done: true, err: err}
	}()
	if !<-r.resume {
		return
	}
	err = s.call(r)
}

func (s *Session) call(r *routine) (err error) {
	defer func() {
		if v := recover(); v != nil {
			if v == errStopped {
				err = errStopped
				return
			}
			err = recovered(v)
		}
	}()
	return r.fn(&Proc{s: s, r: r})
}

// dispatch gives control to r and waits until it suspends or ends.
//
func (s *Session) dispatch(r *routine) error {
	r.resume <- true
	m := <-s.park
	if !m.done {
		return nil
	}
	r.done = true
	if m.err == nil || m.err == errStopped || IsAssertion(m.err) {
		return nil
	}
	return s.fault(r.name, m.err)
}
