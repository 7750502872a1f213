// Package console measures and erases single lines on a text terminal.
package console

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal (including Cygwin/MSYS ptys).
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Width returns the column count of the terminal behind f, or 0 when unknown.
func Width(f *os.File) int {
	if f == nil {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w < 0 {
		return 0
	}
	return w
}

// VisibleWidth returns the number of cells s occupies on screen.
func VisibleWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Fit truncates s so it occupies at most cells columns. Zero leaves s unchanged.
// Text that wraps onto a second row can't be reached by a carriage return.
func Fit(s string, cells int) string {
	if cells <= 0 {
		return s
	}
	return runewidth.Truncate(s, cells, "")
}

// EraseLine returns the sequence that blanks width cells from column zero and
// leaves the cursor back at column zero.
func EraseLine(width int) string {
	if width < 0 {
		width = 0
	}
	return "\r" + strings.Repeat(" ", width) + "\r"
}
