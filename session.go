// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultDeltaLimit is the default maximum number of delta cycles run at the
// same simulated time before the device is considered to oscillate.
//
const DefaultDeltaLimit = 1000

// An Option configures a Session.
//
type Option func(*Session)

// WithLogger sets the logger used to report findings. The default is
// slog.Default().
//
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithTimeLimit makes the session fault if simulated time would go past t.
// A zero limit means no limit.
//
func WithTimeLimit(t Time) Option {
	return func(s *Session) { s.timeLimit = t }
}

// WithDeltaLimit sets the maximum number of delta cycles per time step.
//
func WithDeltaLimit(n int) Option {
	return func(s *Session) { s.deltaLimit = n }
}

// WithSessionID forces the session id. By default, sessions get a random
// UUIDv7.
//
func WithSessionID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithoutTrace disables trace recording.
//
func WithoutTrace() Option {
	return func(s *Session) { s.trace = nil }
}

// A Session runs one test against one device instance. All simulation state
// (signal values, simulated time, routines) is scoped to the session, so any
// number of sessions can run in the same process.
//
// A Session can only be run once.
//
type Session struct {
	id         string
	log        *slog.Logger
	dev        Device
	bus        *Bus
	trace      *Trace
	timeLimit  Time
	deltaLimit int

	now    Time
	delta  int
	seq    uint64
	timers timerHeap
	ready  []*routine
	edges  []*edgeWait

	park     chan parkMsg
	routines []*routine
	main     *routine
	started  bool

	failures []Finding
	warnings []Finding
}

// NewSession creates a new session for the given device.
//
func NewSession(dev Device, opts ...Option) (*Session, error) {
	bus, err := NewBus(dev.Signals())
	if err != nil {
		return nil, errors.Wrapf(err, "device %s", dev.Name())
	}
	s := &Session{
		log:        slog.Default(),
		dev:        dev,
		bus:        bus,
		trace:      &Trace{},
		deltaLimit: DefaultDeltaLimit,
		park:       make(chan parkMsg),
	}
	for _, o := range opts {
		o(s)
	}
	if s.id == "" {
		s.id = uuid.Must(uuid.NewV7()).String()
	}
	if s.deltaLimit <= 0 {
		s.deltaLimit = DefaultDeltaLimit
	}
	s.log = s.log.With("session", s.id, "device", dev.Name())
	return s, nil
}

// ID returns the session id.
//
func (s *Session) ID() string { return s.id }

// Bus returns the signal bus of the session. It must not be modified while the
// session is running.
//
func (s *Session) Bus() *Bus { return s.bus }

// Now returns the current simulated time.
//
func (s *Session) Now() Time { return s.now }

// Run runs the main routine until it returns, then stops all other routines.
//
// The returned report is never nil, even when the session faulted. err is
// non-nil only for faults (a *Fault) or if the session was already run.
// Failed assertions are reported in the Report, not as an error.
//
func (s *Session) Run(ctx context.Context, main Routine) (*Report, error) {
	if s.started {
		return nil, ErrSessionDone
	}
	s.started = true
	s.log.Debug("session start")

	s.main = s.spawn("main", main)
	err := s.loop(ctx)
	s.teardown()

	r := &Report{
		SessionID: s.id,
		Device:    s.dev.Name(),
		EndTime:   s.now,
		Trace:     s.trace,
	}
	if err != nil {
		var f *Fault
		if errors.As(err, &f) {
			s.record(Finding{Kind: SchedulerFault, Time: f.Time, Routine: f.Routine, Message: f.Err.Error()})
		}
	}
	r.Failures, r.Warnings = s.failures, s.warnings
	switch {
	case err != nil:
		r.Verdict = Faulted
	case len(r.Failures) > 0:
		r.Verdict = Fail
	}
	s.log.Info("session end", "verdict", r.Verdict.String(), "sim_time", r.EndTime.String(),
		"failures", len(r.Failures), "warnings", len(r.Warnings))
	return r, err
}

func (s *Session) fault(name string, err error) error {
	return &Fault{Routine: name, Time: s.now, Err: err}
}

// record adds a finding to the report and logs it.
//
func (s *Session) record(f Finding) {
	attrs := []any{"sim_time", f.Time.String(), "kind", f.Kind.String()}
	if f.Routine != "" {
		attrs = append(attrs, "routine", f.Routine)
	}
	if len(f.Signals) > 0 {
		attrs = append(attrs, "signals", f.Signals)
	}
	if f.Label != "" {
		attrs = append(attrs, "label", f.Label)
	}
	switch f.Kind {
	case AssertionMismatch, SchedulerFault:
		s.failures = append(s.failures, f)
		s.log.Error(f.Message, attrs...)
	default:
		s.warnings = append(s.warnings, f)
		s.log.Warn(f.Message, attrs...)
	}
}

func (s *Session) conflict(c Conflict) {
	s.record(Finding{
		Kind:    DriveConflict,
		Time:    s.now,
		Signals: []string{c.Signal},
		Message: fmt.Sprintf("driven by %s (%v) and %s (%v); unknown bits %#x",
			External, c.Values[External], DUT, c.Values[DUT], c.Mask),
	})
}

// loop is the scheduler main loop.
//
func (s *Session) loop(ctx context.Context) error {
	for {
		for len(s.ready) > 0 {
			r := s.ready[0]
			s.ready[0] = nil
			s.ready = s.ready[1:]
			if err := s.dispatch(r); err != nil {
				return err
			}
			if s.main.done {
				// commit the last drives of main so that the bus reflects them.
				return s.settle()
			}
		}
		if err := s.settle(); err != nil {
			return err
		}
		if len(s.ready) > 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return s.fault("scheduler", errors.Wrap(err, "session aborted"))
		}
		if s.timers.Len() == 0 {
			return s.fault(s.main.name, errors.New("deadlock: waiting on events that can never happen"))
		}
		next := s.timers[0].at
		if s.timeLimit > 0 && next > s.timeLimit {
			return s.fault("scheduler", errors.Errorf("time limit %v exceeded", s.timeLimit))
		}
		if next != s.now {
			s.now, s.delta = next, 0
		}
		for s.timers.Len() > 0 && s.timers[0].at == next {
			t := heap.Pop(&s.timers).(*timer)
			s.ready = append(s.ready, t.r)
		}
	}
}

// settle commits pending drives and lets the device settle until nothing
// changes anymore. Routines waiting on edges seen along the way are made
// ready; they run once the bus is stable.
//
func (s *Session) settle() error {
	for n := 0; ; n++ {
		changes := s.bus.commit()
		if len(changes) == 0 {
			for _, c := range s.bus.conflicts() {
				s.conflict(c)
			}
			return nil
		}
		if n >= s.deltaLimit {
			return s.fault(s.dev.Name(), errors.Errorf("signals did not settle after %d delta cycles", n))
		}
		s.trace.add(s.now, s.delta, changes)
		s.delta++
		s.wakeEdges(changes)
		if err := s.settleDevice(changes); err != nil {
			return err
		}
	}
}

func (s *Session) settleDevice(changes []Change) (err error) {
	p := &Port{s: s, changed: make(map[string]Change, len(changes))}
	for _, c := range changes {
		p.changed[c.Signal] = c
	}
	defer func() {
		if v := recover(); v != nil {
			err = s.fault(s.dev.Name(), recovered(v))
		}
	}()
	if err := s.dev.Settle(p); err != nil {
		return s.fault(s.dev.Name(), err)
	}
	return nil
}

func (s *Session) wakeEdges(changes []Change) {
	if len(s.edges) == 0 {
		return
	}
	kept := s.edges[:0]
	for _, w := range s.edges {
		woke := false
		for _, c := range changes {
			if c.Signal == w.signal && w.edge.match(c.Old, c.New) {
				woke = true
				break
			}
		}
		if woke {
			s.ready = append(s.ready, w.r)
		} else {
			kept = append(kept, w)
		}
	}
	for i := len(kept); i < len(s.edges); i++ {
		s.edges[i] = nil
	}
	s.edges = kept
}

// teardown stops all routines still alive.
//
func (s *Session) teardown() {
	for _, r := range s.routines {
		if r.done {
			continue
		}
		r.resume <- false
		<-s.park
		r.done = true
	}
	s.ready, s.edges, s.timers = nil, nil, nil
}

func recovered(v interface{}) error {
	switch e := v.(type) {
	case routineError:
		return e.err
	case error:
		return errors.Wrap(e, "panic")
	}
	return errors.Errorf("panic: %v", v)
}
