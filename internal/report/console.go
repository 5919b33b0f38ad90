// Package report prints human readable scan output.
package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Console writes titled sections to a terminal
type Console struct {
	Out io.Writer
	Err io.Writer
}

// NewConsole creates a console reporter. Errors go to errOut.
func NewConsole(out, errOut io.Writer) *Console {
	return &Console{Out: out, Err: errOut}
}

// Title prints the run title
func (c *Console) Title(title string) {
	fmt.Fprintln(c.Out, title)
	fmt.Fprintln(c.Out, strings.Repeat("=", utf8.RuneCountInString(title)))
	fmt.Fprintln(c.Out)
}

// Section prints a project header
func (c *Console) Section(title string) {
	fmt.Fprintln(c.Out, title)
	fmt.Fprintln(c.Out, strings.Repeat("-", utf8.RuneCountInString(title)))
	fmt.Fprintln(c.Out)
}

// Text prints a single line
func (c *Console) Text(line string) {
	fmt.Fprintf(c.Out, " %s\n", line)
}

// Error prints an error line
func (c *Console) Error(message string) {
	fmt.Fprintf(c.Err, " [ERROR] %s\n", message)
}
