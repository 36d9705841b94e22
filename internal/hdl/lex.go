// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Type is a token type.
//
type Type int

// Tokens
const (
	EOF Type = iota
	Raw
	Ident
	BracketOpen
	BracketClose
	Comma
	Int
	Range
	Error
)

var typeNames = [...]string{
	EOF:          "end of input",
	Raw:          "character",
	Ident:        "identifier",
	BracketOpen:  "'['",
	BracketClose: "']'",
	Comma:        "','",
	Int:          "integer",
	Range:        "'..'",
	Error:        "error",
}

func (t Type) String() string { return typeNames[t] }

// Item is a lexed token.
//
type Item struct {
	Type  Type
	Pos   int
	Value interface{}
}

func (i Item) String() string {
	switch i.Type {
	case Ident:
		return "identifier " + strconv.Quote(i.Value.(string))
	case Int:
		return "integer " + strconv.Itoa(i.Value.(int))
	case Raw:
		return "character " + strconv.QuoteRune(i.Value.(rune))
	case Error:
		return i.Value.(string)
	}
	return i.Type.String()
}

// stateFn is a lexer state. A nil stateFn resumes lexing from lexInit.
//
type stateFn func(l *lexer) stateFn

type lexer struct {
	input string
	pos   int // read position
	start int // start of current token
	cur   rune
	items []Item
	state stateFn
}

const eof = -1

// newLexer returns a new lexer for i/o specs and signal references.
//
func newLexer(input string) *lexer {
	return &lexer{input: input}
}

// Lex returns the next token.
//
func (l *lexer) Lex() Item {
	for len(l.items) == 0 {
		st := l.state
		if st == nil {
			l.start = l.pos
			st = lexInit
		}
		l.state = st(l)
	}
	i := l.items[0]
	l.items = l.items[1:]
	return i
}

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.cur = eof
		l.pos = len(l.input) + 1
		return eof
	}
	r, sz := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += sz
	l.cur = r
	return r
}

func (l *lexer) backup() {
	if l.cur == eof {
		l.pos = len(l.input)
		return
	}
	l.pos -= utf8.RuneLen(l.cur)
}

// errorf returns a parse error at item i. A lexing error takes precedence over
// msg.
//
func (l *lexer) errorf(i Item, msg string) error {
	if i.Type == Error {
		msg = i.String()
	}
	return parseError(l.input, i.Pos, msg)
}

func (l *lexer) emit(t Type, v interface{}) {
	l.items = append(l.items, Item{Type: t, Pos: l.start, Value: v})
}

func lexInit(l *lexer) stateFn {
	r := l.next()
	switch {
	case r == eof:
		return lexEOF
	case unicode.IsSpace(r):
		for unicode.IsSpace(l.next()) {
		}
		l.backup()
	case unicode.IsLetter(r) || r == '_':
		return lexIdent
	case r == '[':
		l.emit(BracketOpen, "[")
	case r == ']':
		l.emit(BracketClose, "]")
	case r == ',':
		l.emit(Comma, ",")
	case '0' <= r && r <= '9':
		return lexNumber
	case r == '.':
		if l.next() == '.' {
			l.emit(Range, "..")
			break
		}
		l.backup()
		fallthrough
	default:
		l.emit(Raw, r)
		return lexEOF
	}
	return nil
}

func lexNumber(l *lexer) stateFn {
	i := int(l.cur - '0')
	r := l.next()
	for '0' <= r && r <= '9' {
		d := int(r - '0')
		if i > (math.MaxInt-d)/10 {
			l.emit(Error, "integer overflow")
			return lexEOF
		}
		i = i*10 + d
		r = l.next()
	}
	l.backup()
	l.emit(Int, i)
	return nil
}

func lexIdent(l *lexer) stateFn {
	var buf strings.Builder
	buf.Grow(8)
	buf.WriteRune(l.cur)
	r := l.next()
	for unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
		buf.WriteRune(r)
		r = l.next()
	}
	l.backup()
	l.emit(Ident, buf.String())
	return nil
}

// lexEOF places the lexer in End-Of-File state.
// Once in this state, the lexer will only emit EOF.
//
func lexEOF(l *lexer) stateFn {
	l.start = len(l.input)
	l.emit(EOF, nil)
	return lexEOF
}
