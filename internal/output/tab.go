// Package output provides diversity bar and genome annotation formatters.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-entropy/internal/diversity"
)

// BarsWriter writes computed diversity bars.
type BarsWriter interface {
	WriteHeader() error
	Write(b *diversity.Bars) error
	Flush() error
}

// TabWriter writes diversity bars in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Region",
			"Mode",
			"Position",
			"Value",
			"Gene",
			"Fill",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes one row per bar.
func (tw *TabWriter) Write(b *diversity.Bars) error {
	mode := b.Mode()
	for _, bar := range b.Bars {
		pos := bar.X
		if pos == 0 {
			pos = bar.Codon
		}

		values := []string{
			b.Region,
			mode,
			strconv.Itoa(pos),
			formatValue(bar.Y, b.CountsOnly),
			orDash(bar.Prot),
			orDash(bar.Fill),
		}
		if _, err := tw.w.WriteString(strings.Join(values, "\t") + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

func formatValue(y float64, countsOnly bool) string {
	if countsOnly {
		return strconv.FormatFloat(y, 'f', 0, 64)
	}
	return strconv.FormatFloat(y, 'f', 3, 64)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
