// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Time is a simulated time or duration in picoseconds.
//
type Time uint64

// Time units.
//
const (
	PS Time = 1
	NS      = 1000 * PS
	US      = 1000 * NS
	MS      = 1000 * US
)

var units = []struct {
	name string
	t    Time
}{
	{"ms", MS},
	{"us", US},
	{"ns", NS},
	{"ps", PS},
}

// String formats t using the largest unit that divides it evenly.
//
func (t Time) String() string {
	if t == 0 {
		return "0ns"
	}
	for _, u := range units {
		if t%u.t == 0 {
			return strconv.FormatUint(uint64(t/u.t), 10) + u.name
		}
	}
	panic("unreachable")
}

// MarshalText implements encoding.TextMarshaler.
//
func (t Time) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
//
func (t *Time) UnmarshalText(text []byte) error {
	v, err := ParseTime(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTime parses a duration like "10ns" or "2us". The unit is mandatory and
// must be one of ps, ns, us or ms.
//
func ParseTime(s string) (Time, error) {
	in := strings.TrimSpace(s)
	for _, u := range units {
		if !strings.HasSuffix(in, u.name) {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSpace(in[:len(in)-len(u.name)]), 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid time %q", s)
		}
		return Time(n) * u.t, nil
	}
	return 0, errors.Errorf("invalid time %q: missing unit", s)
}
