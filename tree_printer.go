package pegvm

import "strings"

// FormatFunc decorates a piece of `input` according to its `token`
type FormatFunc[T any] func(input string, token T) string

// treePrinter writes trees with one node per line, drawing the
// branches that connect children to their parents
type treePrinter[T any] struct {
	padStr []string
	output strings.Builder
	format FormatFunc[T]
}

func newTreePrinter[T any](format FormatFunc[T]) *treePrinter[T] {
	return &treePrinter[T]{format: format}
}

func (tp *treePrinter[T]) indent(s string) {
	tp.padStr = append(tp.padStr, s)
}

func (tp *treePrinter[T]) unindent() {
	tp.padStr = tp.padStr[:len(tp.padStr)-1]
}

func (tp *treePrinter[T]) padding() {
	for _, item := range tp.padStr {
		tp.write(item)
	}
}

func (tp *treePrinter[T]) write(s string) {
	tp.output.WriteString(s)
}

func (tp *treePrinter[T]) pwrite(s string) {
	tp.padding()
	tp.write(s)
}

func (tp *treePrinter[T]) writeToken(s string, token T) {
	tp.write(tp.format(s, token))
}

// branches calls `fn` once per child, after drawing the branch that
// leads to it.  Every child but the last ends with a line break.
func (tp *treePrinter[T]) branches(n int, fn func(i int)) {
	for i := 0; i < n; i++ {
		if i == n-1 {
			tp.pwrite("└── ")
			tp.indent("    ")
			fn(i)
			tp.unindent()
			continue
		}
		tp.pwrite("├── ")
		tp.indent("│   ")
		fn(i)
		tp.unindent()
		tp.write("\n")
	}
}
