// Package navjs reads and writes the JavaScript data files a documentation
// build ships next to its HTML pages: navtreedata.js and the per-fragment
// <key>.js files holding lazily loaded children.
//
// Only the subset the generator emits is understood: an optional leading
// comment followed by `var NAME = literal;` statements whose literals are
// JSON-shaped, except that strings may be single-quoted.
package navjs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Statement is one `var NAME = literal;` binding. Value is normalized to JSON.
type Statement struct {
	Name  string
	Value json.RawMessage
}

// Script is a parsed data file.
type Script struct {
	Header     string // leading comment, verbatim including delimiters
	Statements []Statement
}

// Lookup returns the literal bound to name.
func (s *Script) Lookup(name string) (json.RawMessage, bool) {
	for _, st := range s.Statements {
		if st.Name == name {
			return st.Value, true
		}
	}
	return nil, false
}

// String decodes the literal bound to name as a string.
func (s *Script) String(name string) (string, bool) {
	raw, ok := s.Lookup(name)
	if !ok {
		return "", false
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return v, true
}

// SyntaxError reports where the scanner gave up.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("navjs: offset %d: %s", e.Offset, e.Msg)
}

// Parse scans src into its statements.
func Parse(src []byte) (*Script, error) {
	sc := &scanner{src: src}
	script := &Script{}

	sc.skipSpace()
	if sc.hasPrefix("/*") || sc.hasPrefix("//") {
		start := sc.pos
		if err := sc.skipComment(); err != nil {
			return nil, err
		}
		script.Header = string(src[start:sc.pos])
	}

	for {
		if err := sc.skipTrivia(); err != nil {
			return nil, err
		}
		if sc.eof() {
			return script, nil
		}
		st, err := sc.statement()
		if err != nil {
			return nil, err
		}
		script.Statements = append(script.Statements, st)
	}
}

type scanner struct {
	src []byte
	pos int
}

func (sc *scanner) eof() bool { return sc.pos >= len(sc.src) }

func (sc *scanner) peek() byte {
	if sc.eof() {
		return 0
	}
	return sc.src[sc.pos]
}

func (sc *scanner) hasPrefix(p string) bool {
	return bytes.HasPrefix(sc.src[sc.pos:], []byte(p))
}

func (sc *scanner) fail(format string, args ...any) error {
	return &SyntaxError{Offset: sc.pos, Msg: fmt.Sprintf(format, args...)}
}

func (sc *scanner) skipSpace() {
	for !sc.eof() && unicode.IsSpace(rune(sc.peek())) {
		sc.pos++
	}
}

func (sc *scanner) skipComment() error {
	switch {
	case sc.hasPrefix("//"):
		end := bytes.IndexByte(sc.src[sc.pos:], '\n')
		if end < 0 {
			sc.pos = len(sc.src)
		} else {
			sc.pos += end + 1
		}
	case sc.hasPrefix("/*"):
		end := bytes.Index(sc.src[sc.pos+2:], []byte("*/"))
		if end < 0 {
			return sc.fail("unterminated comment")
		}
		sc.pos += end + 4
	}
	return nil
}

func (sc *scanner) skipTrivia() error {
	for {
		sc.skipSpace()
		if !sc.hasPrefix("/*") && !sc.hasPrefix("//") {
			return nil
		}
		if err := sc.skipComment(); err != nil {
			return err
		}
	}
}

func (sc *scanner) ident() string {
	start := sc.pos
	for !sc.eof() {
		c := sc.peek()
		if c == '_' || c == '$' || unicode.IsLetter(rune(c)) || (sc.pos > start && unicode.IsDigit(rune(c))) {
			sc.pos++
			continue
		}
		break
	}
	return string(sc.src[start:sc.pos])
}

func (sc *scanner) statement() (Statement, error) {
	switch kw := sc.ident(); kw {
	case "var", "let", "const":
	case "":
		return Statement{}, sc.fail("expected declaration, found %q", sc.peek())
	default:
		return Statement{}, sc.fail("unsupported statement %q", kw)
	}
	sc.skipSpace()
	name := sc.ident()
	if name == "" {
		return Statement{}, sc.fail("expected variable name")
	}
	if err := sc.skipTrivia(); err != nil {
		return Statement{}, err
	}
	if sc.peek() != '=' {
		return Statement{}, sc.fail("expected '=' after %s", name)
	}
	sc.pos++
	if err := sc.skipTrivia(); err != nil {
		return Statement{}, err
	}

	var out bytes.Buffer
	if err := sc.value(&out); err != nil {
		return Statement{}, err
	}
	if !json.Valid(out.Bytes()) {
		return Statement{}, sc.fail("value of %s is not a data literal", name)
	}

	if err := sc.skipTrivia(); err != nil {
		return Statement{}, err
	}
	if sc.peek() == ';' {
		sc.pos++
	}
	return Statement{Name: name, Value: json.RawMessage(out.Bytes())}, nil
}

// value copies one literal into out, rewriting single-quoted strings.
func (sc *scanner) value(out *bytes.Buffer) error {
	switch c := sc.peek(); {
	case c == '"' || c == '\'':
		return sc.str(out)
	case c == '[' || c == '{':
		return sc.composite(out)
	default:
		start := sc.pos
		for !sc.eof() {
			c := sc.peek()
			if c == ';' || c == ',' || c == ']' || c == '}' || c == ':' || unicode.IsSpace(rune(c)) {
				break
			}
			sc.pos++
		}
		if sc.pos == start {
			return sc.fail("expected value")
		}
		out.Write(sc.src[start:sc.pos])
		return nil
	}
}

func (sc *scanner) composite(out *bytes.Buffer) error {
	open := sc.peek()
	closer := byte(']')
	if open == '{' {
		closer = '}'
	}
	out.WriteByte(open)
	sc.pos++
	for {
		if err := sc.skipTrivia(); err != nil {
			return err
		}
		if sc.eof() {
			return sc.fail("unterminated %q", open)
		}
		switch c := sc.peek(); c {
		case closer:
			out.WriteByte(c)
			sc.pos++
			return nil
		case ',', ':':
			out.WriteByte(c)
			sc.pos++
		default:
			if err := sc.value(out); err != nil {
				return err
			}
		}
	}
}

func (sc *scanner) str(out *bytes.Buffer) error {
	quote := sc.peek()
	sc.pos++
	var sb []rune
	for {
		if sc.eof() {
			return sc.fail("unterminated string")
		}
		c := sc.peek()
		sc.pos++
		switch {
		case c == quote:
			b, err := json.Marshal(string(sb))
			if err != nil {
				return err
			}
			out.Write(b)
			return nil
		case c == '\\':
			r, err := sc.escape()
			if err != nil {
				return err
			}
			sb = append(sb, r)
		case c < 0x80:
			sb = append(sb, rune(c))
		default:
			// Copy the full UTF-8 sequence.
			sc.pos--
			r, size := utf8.DecodeRune(sc.src[sc.pos:])
			sb = append(sb, r)
			sc.pos += size
		}
	}
}

func (sc *scanner) escape() (rune, error) {
	if sc.eof() {
		return 0, sc.fail("unterminated escape")
	}
	c := sc.peek()
	sc.pos++
	switch c {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case 'u':
		if sc.pos+4 > len(sc.src) {
			return 0, sc.fail("short unicode escape")
		}
		var r rune
		for _, h := range sc.src[sc.pos : sc.pos+4] {
			v, ok := hexValue(h)
			if !ok {
				return 0, sc.fail("bad unicode escape")
			}
			r = r<<4 | rune(v)
		}
		sc.pos += 4
		return r, nil
	default:
		return rune(c), nil
	}
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
