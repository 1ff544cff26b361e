// Package report renders the human-readable check report: a banner per
// site, an indented block per environment, and two-column label/value lines.
package report

import (
	"fmt"
	"io"
)

// labelWidth is the column the value starts in, measured from the
// two-space line indent.
const labelWidth = 17

type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Banner starts a new site section.
func (r *Writer) Banner(site string) {
	fmt.Fprintln(r.w, "################################")
	fmt.Fprintf(r.w, "App: %s\n", site)
}

// Env starts an environment block within the current site section.
func (r *Writer) Env(tag string) {
	fmt.Fprintf(r.w, " %s:\n", tag)
}

// Line prints one label/value row of an environment block.
func (r *Writer) Line(label, value string) {
	fmt.Fprintf(r.w, "  %-*s%s\n", labelWidth, label+":", value)
}
