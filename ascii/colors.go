// Package ascii gives semantic names to terminal ANSI color codes so
// they can be grouped in themes.
package ascii

import "fmt"

const (
	Reset  = "\033[0m"
	Red    = "\033[1;31m"
	Yellow = "\033[1;33m"
	Green  = "\033[1;32m"
	Cyan   = "\033[1;36m"
	Gray   = "\033[90m" // Bright black, actually

	// 256-color palette
	Orange  = "\033[38;5;208m"
	Gray245 = "\033[1;38;5;245m"
	Purple  = "\033[1;38;5;99m"
	Pink    = "\033[1;38;5;127m"
)

// Theme maps the pieces of a program listing and of command output
// to colors
type Theme struct {
	Error   string
	Warning string
	Success string
	Muted   string

	// Listing
	Operator string
	Operand  string
	Literal  string
	Comment  string
	Label    string

	// Match output
	Capture string
	Span    string
}

var DefaultTheme = Theme{
	Error:   Red,
	Warning: Yellow,
	Success: Green,
	Muted:   Gray,

	Operator: Purple,
	Operand:  Pink,
	Literal:  Green,
	Comment:  Gray245,
	Label:    Red,

	Capture: Cyan,
	Span:    Orange,
}

// Color formats `format` with `args` and wraps the result within
// `color` and `Reset`
func Color(color, format string, args ...any) string {
	return fmt.Sprintf(color+format+Reset, args...)
}

// Painter colors text only when enabled, so callers don't need to
// branch on whether the output is a terminal
type Painter struct {
	Enabled bool
	Theme   Theme
}

func (p Painter) Paint(color, format string, args ...any) string {
	if !p.Enabled {
		return fmt.Sprintf(format, args...)
	}
	return Color(color, format, args...)
}
