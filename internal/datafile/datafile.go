// Package datafile opens dataset inputs and creates output files,
// transparently handling gzip, zstd and lz4 compression.
package datafile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies a stream compression format.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	LZ4
)

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// String returns the conventional file extension without the dot.
func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gz"
	case Zstd:
		return "zst"
	case LZ4:
		return "lz4"
	default:
		return "none"
	}
}

// Sniff detects the compression of a stream from its first bytes.
func Sniff(head []byte) Compression {
	switch {
	case bytes.HasPrefix(head, magicGzip):
		return Gzip
	case bytes.HasPrefix(head, magicZstd):
		return Zstd
	case bytes.HasPrefix(head, magicLZ4):
		return LZ4
	default:
		return None
	}
}

// FromExtension picks the compression for an output path.
func FromExtension(path string) Compression {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		return Gzip
	case strings.HasSuffix(lower, ".zst"):
		return Zstd
	case strings.HasSuffix(lower, ".lz4"):
		return LZ4
	default:
		return None
	}
}

type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens path for reading, decompressing it if its magic bytes say so.
// Use "-" for stdin.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return NewReader(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	rc, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	rc.(*readCloser).closers = append(rc.(*readCloser).closers, f.Close)
	return rc, nil
}

// NewReader wraps r with a decompressor chosen by sniffing. Closing the
// result does not close r.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("read header: %w", err)
	}

	switch Sniff(head) {
	case Gzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &readCloser{Reader: gz, closers: []func() error{gz.Close}}, nil
	case Zstd:
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create zstd reader: %w", err)
		}
		return &readCloser{Reader: dec, closers: []func() error{
			func() error { dec.Close(); return nil },
		}}, nil
	case LZ4:
		return &readCloser{Reader: lz4.NewReader(br)}, nil
	default:
		return &readCloser{Reader: br}, nil
	}
}

// ReadAll reads and decompresses a whole file.
func ReadAll(path string) ([]byte, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

type writeCloser struct {
	io.Writer
	closers []func() error
}

func (w *writeCloser) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Create creates path for writing, compressing by extension. An empty path
// or "-" writes to stdout. The returned writer must be closed to flush the
// compressed stream.
func Create(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	wc, err := NewWriter(f, FromExtension(path))
	if err != nil {
		f.Close()
		return nil, err
	}
	wc.(*writeCloser).closers = append(wc.(*writeCloser).closers, f.Close)
	return wc, nil
}

// NewWriter wraps w with a compressor. Closing the result does not close w.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case Gzip:
		gz := gzip.NewWriter(w)
		return &writeCloser{Writer: gz, closers: []func() error{gz.Close}}, nil
	case Zstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("create zstd writer: %w", err)
		}
		return &writeCloser{Writer: enc, closers: []func() error{enc.Close}}, nil
	case LZ4:
		lw := lz4.NewWriter(w)
		return &writeCloser{Writer: lw, closers: []func() error{lw.Close}}, nil
	default:
		return &writeCloser{Writer: w}, nil
	}
}
