/*
Package evsim provides a cycle-accurate, event driven simulation kernel to
drive a digital device under test from Go test code and check its outputs.

A session binds one Device to a Bus of named signals and runs cooperative
routines (test sequences, clock generators) against it. Routines never run
concurrently: a routine runs until it waits on simulated time or on a signal
edge through its Proc, at which point the scheduler hands control to the next
ready routine. Routines that become ready at the same instant run in the order
they were scheduled, so two runs of the same session always produce the same
trace.

Signal values are three-valued: each bit is 0, 1 or unknown (x). A signal that
nobody drives, or that two parties drive to different states, reads as x.
Comparing an unresolved value against an expected integer never panics: the
check is skipped and reported as a warning.

	dev, err := mac.New(mac.Discrete())
	if err != nil {
		// handle error
	}
	s, err := evsim.NewSession(dev)
	if err != nil {
		// handle error
	}
	clk, _ := evsim.NewClock("clk", 10*evsim.NS)
	report, err := s.Run(ctx, func(p *evsim.Proc) error {
		if err := clk.Start(p); err != nil {
			return err
		}
		p.Drive("rst_n", 0)
		p.ClockCycles("clk", 5)
		p.Drive("rst_n", 1)
		// ...
		return p.Require("Accumulated Low Byte", "out_low", 222)
	})

Writes to signals are buffered: the driven value is only visible to readers
after the next commit, which the scheduler runs every time all ready routines
have suspended. Each commit starts a new delta cycle, and the device is asked to
settle after every commit that changed something.

Bidirectional signals carry an owner token. Handing the token over releases the
previous owner's drive; if both parties drive anyway, the contention is
reported in the session report.
*/
package evsim
