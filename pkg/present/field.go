// Package present renders API resources as the indented text reports the
// sample commands print. Every report is a list of fields; a field is written
// only when its presence check passes.
package present

import (
	"fmt"
	"io"
	"strconv"
)

// Field is one report line: "<indent>- Label: value".
// A Field without a Label writes "<indent>- value".
type Field struct {
	Label   string
	Present func() bool
	Format  func() string
}

// Render writes every present field of fields to w.
func Render(w io.Writer, indent string, fields []Field) {
	for _, f := range fields {
		if f.Present != nil && !f.Present() {
			continue
		}
		value := ""
		if f.Format != nil {
			value = f.Format()
		}
		if f.Label == "" {
			fmt.Fprintf(w, "%s- %s\n", indent, value)
			continue
		}
		fmt.Fprintf(w, "%s- %s: %s\n", indent, f.Label, value)
	}
}

func text(s string) func() string { return func() string { return s } }

func number(n int) func() string { return func() string { return strconv.Itoa(n) } }

func nonEmpty(s string) func() bool { return func() bool { return s != "" } }

func nonZero(n int) func() bool { return func() bool { return n != 0 } }

func when(b bool) func() bool { return func() bool { return b } }

func yesNo(b bool) func() string {
	return func() string {
		if b {
			return "yes"
		}
		return "no"
	}
}
