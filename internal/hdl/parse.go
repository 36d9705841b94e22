// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hdl implements the parser for signal declarations and signal
// references.
//
package hdl

import (
	"github.com/pkg/errors"
)

// Decl is a signal declaration: a name and a bit width.
//
type Decl struct {
	Name  string
	Width int
	Pos   int
}

// ParseDecls parses a signal declaration string and returns the individual
// signals. Signals are separated by commas, buses have their width given in
// brackets. For example:
//
//	ParseDecls("clk, rst_n, in_a[8]")
//
// returns clk and rst_n as 1 bit signals and in_a as an 8 bits bus.
//
func ParseDecls(spec string) ([]Decl, error) {
	var out []Decl

	l := newLexer(spec)
	i := l.Lex()
	if i.Type == EOF {
		return nil, nil
	}
	for {
		if i.Type != Ident {
			return nil, l.errorf(i, "expected signal name, got "+i.String())
		}
		d := Decl{Name: i.Value.(string), Width: 1, Pos: i.Pos}
		// after ident, expect comma, [ or EOF
		i = l.Lex()
		if i.Type == BracketOpen {
			i = l.Lex()
			if i.Type != Int {
				return nil, l.errorf(i, "missing bus width")
			}
			d.Width = i.Value.(int)
			if d.Width < 1 {
				return nil, l.errorf(i, "bus width must be at least 1")
			}
			i = l.Lex()
			if i.Type != BracketClose {
				return nil, l.errorf(i, "missing close bracket")
			}
			i = l.Lex()
		}
		out = append(out, d)
		switch i.Type {
		case EOF:
			return out, nil
		case Comma:
			i = l.Lex()
		default:
			return nil, l.errorf(i, "expected comma or end of input, got "+i.String())
		}
	}
}

// Ref is a reference to a signal or to a range of its bits: name, name[i] or
// name[lo..hi].
//
type Ref struct {
	Name   string
	Lo, Hi int
	Sliced bool
}

// ParseRef parses a signal reference.
//
func ParseRef(s string) (Ref, error) {
	l := newLexer(s)
	i := l.Lex()
	if i.Type != Ident {
		return Ref{}, l.errorf(i, "expected signal name")
	}
	r := Ref{Name: i.Value.(string)}
	i = l.Lex()
	if i.Type == EOF {
		return r, nil
	}
	if i.Type != BracketOpen {
		return Ref{}, l.errorf(i, "unexpected "+i.String())
	}
	i = l.Lex()
	if i.Type != Int {
		return Ref{}, l.errorf(i, "integer value expected after '['")
	}
	r.Lo, r.Hi, r.Sliced = i.Value.(int), i.Value.(int), true
	i = l.Lex()
	if i.Type == Range {
		i = l.Lex()
		if i.Type != Int {
			return Ref{}, l.errorf(i, "integer value expected after '..'")
		}
		r.Hi = i.Value.(int)
		i = l.Lex()
	}
	if i.Type != BracketClose {
		return Ref{}, l.errorf(i, "closing ']' expected after index or range")
	}
	if i = l.Lex(); i.Type != EOF {
		return Ref{}, l.errorf(i, "unexpected "+i.String())
	}
	if r.Lo > r.Hi {
		r.Lo, r.Hi = r.Hi, r.Lo
	}
	return r, nil
}

func parseError(in string, pos int, msg string) error {
	return errors.Errorf("in %q at pos %d: %s", in, pos+1, msg)
}
