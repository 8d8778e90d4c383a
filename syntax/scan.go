// Copyright 2023 The Kaleidoscope Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package syntax

// A scanner tokenizes Kaleidoscope source.
// The scanner keeps no lookahead beyond the rune it is about to read,
// so it can run over an interactive input stream: when fed by a
// readline function it requests another line only once every buffered
// byte has been consumed.

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// A Token represents a Kaleidoscope lexical token.
type Token int8

const (
	ILLEGAL Token = iota
	EOF

	IDENT  // fib
	NUMBER // 1.25
	CHAR   // any other single character; operators and punctuation

	// Keywords
	DEF
	EXTERN
	IF
	THEN
	ELSE
	FOR
	IN
	VAR
	UNARY
	BINARY

	maxToken
)

func (tok Token) String() string { return tokenNames[tok] }

// tokenNames is indexed by Token.
var tokenNames = [...]string{
	ILLEGAL: "illegal token",
	EOF:     "end of file",
	IDENT:   "identifier",
	NUMBER:  "number",
	CHAR:    "char",
	DEF:     "def",
	EXTERN:  "extern",
	IF:      "if",
	THEN:    "then",
	ELSE:    "else",
	FOR:     "for",
	IN:      "in",
	VAR:     "var",
	UNARY:   "unary",
	BINARY:  "binary",
}

// keywordToken records the special tokens for
// strings that should not be treated as ordinary identifiers.
var keywordToken = map[string]Token{
	"def":    DEF,
	"extern": EXTERN,
	"if":     IF,
	"then":   THEN,
	"else":   ELSE,
	"for":    FOR,
	"in":     IN,
	"var":    VAR,
	"unary":  UNARY,
	"binary": BINARY,
}

// A Position describes the location of a rune of input.
type Position struct {
	file *string // filename (indirect for compactness)
	Line int32   // 1-based line number; 0 if unknown
	Col  int32   // 1-based column (rune) number; 0 if unknown
}

// MakePosition returns position with the specified components.
func MakePosition(file *string, line, col int32) Position {
	return Position{file, line, col}
}

// IsValid reports whether the position is valid.
func (p Position) IsValid() bool { return p.file != nil }

// Filename returns the name of the file containing this position.
func (p Position) Filename() string {
	if p.file != nil {
		return *p.file
	}
	return "<invalid>"
}

func (p Position) String() string {
	file := p.Filename()
	if p.Line > 0 {
		if p.Col > 0 {
			return fmt.Sprintf("%s:%d:%d", file, p.Line, p.Col)
		}
		return fmt.Sprintf("%s:%d", file, p.Line)
	}
	return file
}

// add returns the position at the end of s, assuming it starts at p.
func (p Position) add(s string) Position {
	if n := strings.Count(s, "\n"); n > 0 {
		p.Line += int32(n)
		s = s[strings.LastIndexByte(s, '\n')+1:]
		p.Col = 1
	}
	p.Col += int32(utf8.RuneCountInString(s))
	return p
}

// An Error describes the nature and position of a scanner or parser error.
type Error struct {
	Pos Position
	Msg string
}

func (e Error) Error() string { return e.Pos.String() + ": " + e.Msg }

// A scanner represents a single input stream of Kaleidoscope tokens.
type scanner struct {
	rest     []byte                 // buffered input, not yet tokenized
	pos      Position               // current input position
	readline func() ([]byte, error) // read next line of input (REPL only)
	eof      bool                   // input has been exhausted
}

func newScanner(filename string, src interface{}) (*scanner, error) {
	sc := &scanner{pos: MakePosition(&filename, 1, 1)}
	if readline, ok := src.(func() ([]byte, error)); ok {
		sc.readline = readline
	} else {
		data, err := readSource(filename, src)
		if err != nil {
			return nil, err
		}
		sc.rest = data
	}
	return sc, nil
}

func readSource(filename string, src interface{}) ([]byte, error) {
	switch src := src.(type) {
	case string:
		return []byte(src), nil
	case []byte:
		return src, nil
	case io.Reader:
		return io.ReadAll(src)
	case nil:
		return os.ReadFile(filename)
	default:
		return nil, fmt.Errorf("invalid source: %T", src)
	}
}

// errorf is called to report an error at position pos.
// errorf does not return: it panics.
func (sc *scanner) errorf(pos Position, format string, args ...interface{}) {
	panic(Error{pos, fmt.Sprintf(format, args...)})
}

// recover silently sets *err to a scanner or parser panic value, if any.
func (sc *scanner) recover(err *error) {
	switch e := recover().(type) {
	case nil:
		// no panic
	case Error:
		*err = e
	default:
		// unexpected panic: resume state of panic
		panic(e)
	}
}

// fill ensures that at least one byte of input is buffered, fetching
// another line from the readline function when necessary.
// It reports whether any input remains.
func (sc *scanner) fill() bool {
	for len(sc.rest) == 0 {
		if sc.readline == nil || sc.eof {
			return false
		}
		line, err := sc.readline()
		if err != nil {
			if err == io.EOF {
				sc.eof = true
				return false
			}
			// Interrupts and I/O failures surface as scan errors;
			// the stream stays usable afterwards.
			sc.errorf(sc.pos, "%v", err)
		}
		sc.rest = line
	}
	return true
}

// peekRune returns the next rune in the input without consuming it.
// It returns 0 at end of input.
func (sc *scanner) peekRune() rune {
	if !sc.fill() {
		return 0
	}
	r, _ := utf8.DecodeRune(sc.rest)
	return r
}

// readRune consumes and returns the next rune in the input.
func (sc *scanner) readRune() rune {
	if !sc.fill() {
		sc.errorf(sc.pos, "internal scanner error: readRune at EOF")
	}
	r, size := utf8.DecodeRune(sc.rest)
	sc.rest = sc.rest[size:]
	if r == '\n' {
		sc.pos.Line++
		sc.pos.Col = 1
	} else {
		sc.pos.Col++
	}
	return r
}

// tokenValue records the position and value associated with each token.
type tokenValue struct {
	raw  string   // raw text of token
	num  float64  // decoded NUMBER
	char rune     // code point of CHAR
	pos  Position // start position of token
}

// nextToken is called by the parser to obtain the next input token.
// It returns the token value and sets val to the data associated with
// the token.
func (sc *scanner) nextToken(val *tokenValue) Token {
	for {
		// Skip whitespace.
		for sc.fill() {
			if c := sc.peekRune(); c == ' ' || c == '\t' || c == '\r' || c == '\n' {
				sc.readRune()
			} else {
				break
			}
		}

		val.pos = sc.pos

		if !sc.fill() {
			val.raw = ""
			return EOF
		}

		c := sc.peekRune()

		// Comment runs to end of line; lexing resumes after it.
		if c == '#' {
			for sc.fill() && sc.peekRune() != '\n' {
				sc.readRune()
			}
			continue
		}

		// identifier or keyword
		if isIdentStart(c) {
			return sc.scanIdent(val)
		}

		// numeric literal
		if isdigit(c) || c == '.' {
			return sc.scanNumber(val)
		}

		// Any other character is handed to the parser as itself.
		// This is how every operator and punctuation character,
		// including ones the program has not declared yet, reaches
		// the grammar.
		sc.readRune()
		val.raw = string(c)
		val.char = c
		return CHAR
	}
}

// scanIdent scans an identifier [A-Za-z][A-Za-z0-9]* and classifies
// reserved words.
func (sc *scanner) scanIdent(val *tokenValue) Token {
	var raw []rune
	for sc.fill() && isIdent(sc.peekRune()) {
		raw = append(raw, sc.readRune())
	}
	val.raw = string(raw)
	if tok, ok := keywordToken[val.raw]; ok {
		return tok
	}
	return IDENT
}

// scanNumber scans a maximal run of digits and dots. Like the C
// library's strtod, it converts the longest prefix of the run that is
// a valid decimal number and ignores the remainder, so "1.2.3" scans
// as the single NUMBER 1.2.
func (sc *scanner) scanNumber(val *tokenValue) Token {
	var raw []rune
	for sc.fill() {
		if c := sc.peekRune(); isdigit(c) || c == '.' {
			raw = append(raw, sc.readRune())
		} else {
			break
		}
	}
	val.raw = string(raw)
	val.num = parseFloatPrefix(val.raw)
	return NUMBER
}

// parseFloatPrefix converts the longest prefix of s that is a valid
// decimal number, or 0 if there is none.
func parseFloatPrefix(s string) float64 {
	for i := len(s); i > 0; i-- {
		if x, err := strconv.ParseFloat(s[:i], 64); err == nil {
			return x
		}
	}
	return 0
}

func isIdentStart(c rune) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isIdent(c rune) bool { return isIdentStart(c) || isdigit(c) }

func isdigit(c rune) bool { return '0' <= c && c <= '9' }
