package pegvm

import (
	"fmt"
	"strings"
	"testing"
)

const jsonGrammar = `
	JSON    <- Sp Value Sp !.
	Value   <- Object / Array / String / Number / 'true' / 'false' / 'null'
	Object  <- '{' Sp (Member (Sp ',' Sp Member)*)? Sp '}'
	Member  <- {:key: String :} Sp ':' Sp Value
	Array   <- '[' Sp (Value (Sp ',' Sp Value)*)? Sp ']'
	String  <- '"' { (!'"' ('\\' . / .))* } '"'
	Number  <- '-'? [0-9]+ ('.' [0-9]+)?
	Sp      <- [ \t\r\n]*
`

func jsonInput(items int) string {
	var s strings.Builder
	s.WriteString("[")
	for i := 0; i < items; i++ {
		if i > 0 {
			s.WriteString(", ")
		}
		fmt.Fprintf(&s, `{"id": %d, "name": "item %d", "tags": ["a", "b"], "ok": true}`, i, i)
	}
	s.WriteString("]")
	return s.String()
}

func TestJSONGrammar(t *testing.T) {
	p := MustCompile(jsonGrammar)
	input := jsonInput(3)

	r, err := p.Match(input)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Matched || r.End != len(input) {
		t.Fatalf("expected a full match, got %+v", r)
	}
	if n := len(r.Named("key")); n != 12 {
		t.Fatalf("expected 12 keys, got %d", n)
	}
}

// BenchmarkMatch reuses the same program across iterations, which is
// how it's meant to be used.  Virtual machines come from the pool of
// the program.
func BenchmarkMatch(b *testing.B) {
	for _, level := range []int{0, 1} {
		cfg := NewConfig()
		cfg.SetInt("compiler.optimize", level)
		p, err := CompileString(jsonGrammar, cfg)
		if err != nil {
			b.Fatal(err)
		}
		for _, items := range []int{10, 1000} {
			input := jsonInput(items)
			b.Run(fmt.Sprintf("O%d/%d", level, items), func(b *testing.B) {
				b.SetBytes(int64(len(input)))
				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := p.Match(input); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkCompile(b *testing.B) {
	node, err := ParseGrammar(jsonGrammar)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Compile(node, nil); err != nil {
			b.Fatal(err)
		}
	}
}
