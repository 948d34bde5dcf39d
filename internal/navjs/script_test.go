package navjs

import (
	"errors"
	"testing"
)

func TestParse_SingleQuotedStrings(t *testing.T) {
	src := `var A = 'it\'s "quoted"';
var B = [ 'x', "y" ];`
	script, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a, ok := script.String("A")
	if !ok || a != `it's "quoted"` {
		t.Errorf("unexpected A %q", a)
	}
	b, _ := script.Lookup("B")
	if string(b) != `["x","y"]` {
		t.Errorf("unexpected B %s", b)
	}
}

func TestParse_CommentsAndDeclarations(t *testing.T) {
	src := `// generated
/* block */
const N = 3; // trailing
let O = { "a.html": [1, 0] }
var P = null;`
	script, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if script.Header != "// generated\n" {
		t.Errorf("unexpected header %q", script.Header)
	}
	if len(script.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(script.Statements))
	}
	if o, _ := script.Lookup("O"); string(o) != `{"a.html":[1,0]}` {
		t.Errorf("unexpected O %s", o)
	}
	if p, _ := script.Lookup("P"); string(p) != "null" {
		t.Errorf("unexpected P %s", p)
	}
}

func TestParse_CommentBeforeSemicolon(t *testing.T) {
	script, err := Parse([]byte("var A = 1 /* note */;\nvar B = [ 2 ] // tail\n;\nvar C = 3;"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(script.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(script.Statements))
	}
	if a, _ := script.Lookup("A"); string(a) != "1" {
		t.Errorf("unexpected A %s", a)
	}
	if b, _ := script.Lookup("B"); string(b) != "[2]" {
		t.Errorf("unexpected B %s", b)
	}
}

func TestParse_Unicode(t *testing.T) {
	script, err := Parse([]byte(`var T = 'Übersicht é';`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s, _ := script.String("T"); s != "Übersicht é" {
		t.Errorf("unexpected T %q", s)
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []string{
		`var X = [ "a", `,
		`var X = 'open`,
		`function f() {}`,
		`var = 1;`,
		`var X 1;`,
		`/* never closed`,
		`var X = undefinedThing;`,
	}
	for _, src := range tests {
		_, err := Parse([]byte(src))
		var synErr *SyntaxError
		if !errors.As(err, &synErr) {
			t.Errorf("Parse(%q): expected *SyntaxError, got %v", src, err)
		}
	}
}
