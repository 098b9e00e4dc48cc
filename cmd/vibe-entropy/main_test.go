package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-entropy/internal/datafile"
	"github.com/inodb/vibe-entropy/internal/duckdb"
)

const testDataset = `{
	"meta": {
		"genome_annotations": {
			"nuc": {"start": 1, "end": 100, "strand": "+"},
			"GENE1": {"start": 1, "end": 12, "strand": "+"},
			"GENE2": {"start": 40, "end": 60, "strand": "+"}
		}
	},
	"tree": {
		"name": "ROOT",
		"children": [
			{"name": "tipX", "branch_attrs": {"mutations": {"nuc": ["A5T", "A10T"], "GENE2": ["L4M"]}}},
			{"name": "tipY", "branch_attrs": {"mutations": {"nuc": ["A5G"], "GENE2": ["L4P"]}}},
			{"name": "internalNodeZ", "branch_attrs": {"mutations": {"nuc": ["A5C", "A15T"], "GENE1": ["A1B"]}},
			 "children": [
				{"name": "tipZ", "branch_attrs": {"mutations": {"nuc": ["A5G"], "GENE2": ["L4S"]}}}
			 ]}
		]
	}
}`

func writeDataset(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the CLI with HOME pointed at home, returning stdout.
func execute(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Setenv("HOME", home)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestGenomeCmd(t *testing.T) {
	ds := writeDataset(t, "test.json", testDataset)

	out, err := execute(t, t.TempDir(), "genome", ds)
	require.NoError(t, err)
	assert.Contains(t, out, "GENE1")
	assert.Contains(t, out, "40-60")
	assert.Len(t, lines(out), 4)
}

func TestGenomeCmd_BareAnnotations(t *testing.T) {
	ds := writeDataset(t, "annotations.json", `{
		"nuc": {"start": 1, "end": 100},
		"ORF": {"start": 93, "end": 110, "strand": "+"}
	}`)

	out, err := execute(t, t.TempDir(), "genome", ds)
	require.NoError(t, err)
	assert.Contains(t, out, "ORF (wraps)")
}

func TestGenomeCmd_MissingChromosome(t *testing.T) {
	ds := writeDataset(t, "bad.json", `{"meta": {"genome_annotations": {"ORF": {"start": 1, "end": 9}}}}`)

	_, err := execute(t, t.TempDir(), "genome", ds)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nuc")
}

func TestCodonCmd(t *testing.T) {
	ds := writeDataset(t, "test.json", testDataset)

	out, err := execute(t, t.TempDir(), "codon", ds, "GENE2", "1", "7")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"GENE2\tcodon 1\t40,41,42\tframe 0",
		"GENE2\tcodon 7\t58,59,60\tframe 0",
	}, lines(out))

	_, err = execute(t, t.TempDir(), "codon", ds, "GENE2", "8")
	assert.Error(t, err)

	_, err = execute(t, t.TempDir(), "codon", ds, "NOPE", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GENE1, GENE2")
}

func TestLocateCmd(t *testing.T) {
	ds := writeDataset(t, "test.json", testDataset)

	out, err := execute(t, t.TempDir(), "locate", ds, "5", "15", "41")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"5\tGENE1\tnt 5\tcodon 2",
		"15\tintergenic",
		"41\tGENE2\tnt 2\tcodon 1",
	}, lines(out))
}

func TestZoomCmd(t *testing.T) {
	ds := writeDataset(t, "test.json", testDataset)
	home := t.TempDir()

	out, err := execute(t, home, "zoom", ds, "GENE2", "40", "60")
	require.NoError(t, err)
	assert.Equal(t, "GENE2\t40-60\tnt 1-21\tcodons 1-7\n", out)

	out, err = execute(t, home, "zoom", ds, "GENE2", "45", "50")
	require.NoError(t, err)
	assert.Equal(t, "GENE2\t45-50\tnt 4-12\tcodons 2-4\n", out)

	out, err = execute(t, home, "zoom", ds, "all", "30", "50")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"GENE1\t30-50\tnot in view",
		"GENE2\t30-50\tnot in view",
	}, lines(out))
}

func TestDiversityCmd_Counts(t *testing.T) {
	ds := writeDataset(t, "test.json", testDataset)

	out, err := execute(t, t.TempDir(), "diversity", "--counts", ds)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"#Region\tMode\tPosition\tValue\tGene\tFill",
		"nuc\tcounts\t5\t4\tGENE1\t#60AA9E",
		"nuc\tcounts\t10\t1\tGENE1\t#60AA9E",
		"nuc\tcounts\t15\t1\t-\t-",
	}, lines(out))

	out, err = execute(t, t.TempDir(), "diversity", "--counts", "--hide", "tipZ", ds)
	require.NoError(t, err)
	assert.Contains(t, out, "nuc\tcounts\t5\t3\t")
}

func TestDiversityCmd_EntropyJSON(t *testing.T) {
	ds := writeDataset(t, "test.json", testDataset)

	out, err := execute(t, t.TempDir(), "diversity", "--cds", "GENE2", "-f", "json", ds)
	require.NoError(t, err)

	var got struct {
		Bars []struct {
			Codon int     `json:"codon"`
			Y     float64 `json:"y"`
			Prot  string  `json:"prot"`
		} `json:"bars"`
		MaxY   float64 `json:"maxY"`
		Region string  `json:"region"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "GENE2", got.Region)
	require.Len(t, got.Bars, 1)
	assert.Equal(t, 4, got.Bars[0].Codon)
	assert.Equal(t, 1.099, got.Bars[0].Y)
	assert.InDelta(t, 1.0986, got.MaxY, 1e-4)
}

func TestDiversityCmd_AllCDSCompressedOutput(t *testing.T) {
	ds := writeDataset(t, "test.json", testDataset)
	outPath := filepath.Join(t.TempDir(), "bars.tsv.gz")

	out, err := execute(t, t.TempDir(), "diversity", "--all-cds", "--counts", "--workers", "2", "-o", outPath, ds)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := datafile.ReadAll(outPath)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"#Region\tMode\tPosition\tValue\tGene\tFill",
		"GENE1\tcounts\t1\t1\tGENE1\t#60AA9E",
		"GENE2\tcounts\t4\t3\tGENE2\t#D9AD3D",
	}, lines(string(data)))
}

func TestDiversityCmd_DuckDBExport(t *testing.T) {
	ds := writeDataset(t, "zika.json", testDataset)
	dbPath := filepath.Join(t.TempDir(), "bars.duckdb")

	_, err := execute(t, t.TempDir(), "diversity", "--counts", "--duckdb", dbPath, ds)
	require.NoError(t, err)

	store, err := duckdb.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	bars, err := store.LookupBars(context.Background(), "zika", "nuc", "counts")
	require.NoError(t, err)
	assert.Len(t, bars.Bars, 3)
	assert.Equal(t, 4.0, bars.MaxY)

	fp, err := duckdb.StatFile(ds)
	require.NoError(t, err)
	changed, err := store.DatasetChanged("zika", fp)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestDiversityCmd_Errors(t *testing.T) {
	ds := writeDataset(t, "test.json", testDataset)
	noTree := writeDataset(t, "notree.json", `{"meta": {"genome_annotations": {"nuc": {"start": 1, "end": 9}}}}`)
	home := t.TempDir()

	_, err := execute(t, home, "diversity", noTree)
	assert.ErrorIs(t, err, errNoTree)

	_, err = execute(t, home, "diversity", "-f", "xml", ds)
	var ue usageError
	assert.ErrorAs(t, err, &ue)

	_, err = execute(t, home, "diversity", "--cds", "GENE1", "--all-cds", ds)
	assert.Error(t, err)

	_, err = execute(t, home, "diversity", "--cds", "NOPE", ds)
	assert.Error(t, err)
}

func TestConfigSetGet(t *testing.T) {
	home := t.TempDir()

	out, err := execute(t, home, "config", "set", "diversity.counts", "true")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(home, ".vibe-entropy.yaml"))

	out, err = execute(t, home, "config", "get", "diversity.counts")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	// The stored default now switches diversity to counts.
	ds := writeDataset(t, "test.json", testDataset)
	out, err = execute(t, home, "diversity", ds)
	require.NoError(t, err)
	assert.Contains(t, out, "nuc\tcounts\t5\t4\t")

	out, err = execute(t, home, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "counts: true")
}

func TestConfigEnvOverride(t *testing.T) {
	ds := writeDataset(t, "test.json", testDataset)
	t.Setenv("VIBE_ENTROPY_OUTPUT_FORMAT", "json")

	out, err := execute(t, t.TempDir(), "diversity", ds)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{"))
}

func TestRunExitCodes(t *testing.T) {
	viper.Reset()
	t.Setenv("HOME", t.TempDir())
	ds := writeDataset(t, "test.json", testDataset)

	assert.Equal(t, ExitUsage, run([]string{"codon", ds, "GENE2", "x"}))
	assert.Equal(t, ExitUsage, run([]string{"locate"}))
	assert.Equal(t, ExitUsage, run([]string{"diversity", "--no-such-flag", ds}))

	viper.Reset()
	assert.Equal(t, ExitError, run([]string{"genome", filepath.Join(t.TempDir(), "missing.json")}))
}

func TestDatasetName(t *testing.T) {
	assert.Equal(t, "zika", datasetName("/data/zika.json"))
	assert.Equal(t, "zika", datasetName("zika.json.gz"))
	assert.Equal(t, "ncov_global", datasetName("ncov_global.json.zst"))
	assert.Equal(t, "flu", datasetName("flu"))
}
