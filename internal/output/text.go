package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/searcrawl/anticrawl/pkg/anticrawl"
)

var (
	labelColor  = color.New(color.FgHiBlue)
	idColor     = color.New(color.FgHiCyan)
	directColor = color.New(color.FgHiYellow)
)

// TextWriter renders identity bundles in a human-readable form. Values it
// does not recognize fall back to YAML.
type TextWriter struct {
	w       *bufio.Writer
	colored bool
}

// NewTextWriter creates a text writer. Colors are off unless requested so
// redirected output stays clean.
func NewTextWriter(w io.Writer, colored bool) *TextWriter {
	return &TextWriter{
		w:       bufio.NewWriter(w),
		colored: colored,
	}
}

// Write renders a single item.
func (w *TextWriter) Write(data any) error {
	switch v := data.(type) {
	case anticrawl.Bundle:
		return w.writeBundle(v)
	case *anticrawl.Bundle:
		return w.writeBundle(*v)
	default:
		out, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.w.Write(out)
		return err
	}
}

// WriteAll renders multiple items.
func (w *TextWriter) WriteAll(data []any) error {
	for _, item := range data {
		if err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

func (w *TextWriter) writeBundle(b anticrawl.Bundle) error {
	proxy := w.paint(directColor, "direct")
	if b.Proxy != nil {
		proxy = b.Proxy.Redacted()
	}

	fmt.Fprintf(w.w, "%s %s\n", w.paint(labelColor, "identity"), w.paint(idColor, b.ID))
	fmt.Fprintf(w.w, "  %s %s\n", w.paint(labelColor, "proxy:     "), proxy)
	fmt.Fprintf(w.w, "  %s %s\n", w.paint(labelColor, "agent:     "), b.Signature.Value)
	fmt.Fprintf(w.w, "  %s %s/%s\n", w.paint(labelColor, "platform:  "), b.Signature.Platform, b.Signature.Origin)
	fmt.Fprintf(w.w, "  %s %d\n", w.paint(labelColor, "headers:   "), len(b.Headers))
	fmt.Fprintf(w.w, "  %s %s\n", w.paint(labelColor, "delay:     "), b.Delay)
	return nil
}

func (w *TextWriter) paint(c *color.Color, s string) string {
	if !w.colored {
		return s
	}
	return c.Sprint(s)
}

// Flush flushes the buffer.
func (w *TextWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *TextWriter) Close() error {
	return w.Flush()
}
