package datafile

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `{"meta": {"genome_annotations": {"nuc": {"start": 1, "end": 100}}}}`

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		file string
		want Compression
	}{
		{"plain", "dataset.json", None},
		{"gzip", "dataset.json.gz", Gzip},
		{"zstd", "dataset.json.zst", Zstd},
		{"lz4", "dataset.json.lz4", LZ4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			assert.Equal(t, tt.want, FromExtension(path))

			w, err := Create(path)
			require.NoError(t, err)
			_, err = io.WriteString(w, payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Sniff(raw))
			if tt.want != None {
				assert.NotEqual(t, payload, string(raw))
			}

			got, err := ReadAll(path)
			require.NoError(t, err)
			assert.Equal(t, payload, string(got))
		})
	}
}

func TestNewReader_ShortInput(t *testing.T) {
	rc, err := NewReader(bytes.NewReader([]byte("{}")))
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))

	rc, err = NewReader(bytes.NewReader(nil))
	require.NoError(t, err)
	got, err = io.ReadAll(rc)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewReader_CorruptGzip(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte{0x1f, 0x8b, 0x00}))
	assert.Error(t, err)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCompressionString(t *testing.T) {
	assert.Equal(t, "gz", Gzip.String())
	assert.Equal(t, "zst", Zstd.String())
	assert.Equal(t, "lz4", LZ4.String())
	assert.Equal(t, "none", None.String())
}
