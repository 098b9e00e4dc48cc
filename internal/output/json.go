package output

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/inodb/vibe-entropy/internal/diversity"
)

// JSONWriter writes each Bars value as one JSON document per line.
type JSONWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONWriter creates a new JSON lines writer.
func NewJSONWriter(w io.Writer) *JSONWriter {
	bw := bufio.NewWriter(w)
	return &JSONWriter{w: bw, enc: json.NewEncoder(bw)}
}

// WriteHeader is a no-op; JSON output has no header.
func (jw *JSONWriter) WriteHeader() error {
	return nil
}

// Write encodes b followed by a newline.
func (jw *JSONWriter) Write(b *diversity.Bars) error {
	return jw.enc.Encode(b)
}

// Flush flushes any buffered data to the underlying writer.
func (jw *JSONWriter) Flush() error {
	return jw.w.Flush()
}
