// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package simtest

import (
	"context"
	"testing"

	"github.com/db47h/evsim"
)

// CheckDeterminism runs main twice against fresh devices built by newDevice
// and checks that both runs produce the same trace and verdict.
//
func CheckDeterminism(t testing.TB, newDevice func() evsim.Device, main func() evsim.Routine) {
	t.Helper()
	var reps [2]*evsim.Report
	for i := range reps {
		s, err := evsim.NewSession(newDevice(), evsim.WithLogger(quiet))
		if err != nil {
			t.Fatal(err)
		}
		reps[i], err = s.Run(context.Background(), main())
		if err != nil && !evsim.IsFault(err) {
			t.Fatal(err)
		}
	}
	if reps[0].Trace.Len() == 0 {
		t.Fatal("empty trace")
	}
	if d := reps[0].Trace.Diff(reps[1].Trace); d != "" {
		t.Fatalf("traces differ: %s", d)
	}
	if reps[0].Verdict != reps[1].Verdict {
		t.Fatalf("verdict %v != %v", reps[0].Verdict, reps[1].Verdict)
	}
	if reps[0].EndTime != reps[1].EndTime {
		t.Fatalf("end time %v != %v", reps[0].EndTime, reps[1].EndTime)
	}
}
