package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-entropy/internal/datafile"
	"github.com/inodb/vibe-entropy/internal/genome"
	"github.com/inodb/vibe-entropy/internal/tree"
)

var errNoTree = errors.New("dataset has no tree")

// dataset is a loaded Auspice-style dataset.
type dataset struct {
	Name   string
	Path   string
	Genome *genome.Genome
	Nodes  []*tree.Node
}

// datasetJSON is the subset of an Auspice v2 dataset we read.
type datasetJSON struct {
	Meta struct {
		GenomeAnnotations json.RawMessage `json:"genome_annotations"`
	} `json:"meta"`
	Tree json.RawMessage `json:"tree"`
}

// loadDataset reads a dataset (optionally compressed). The file may be a
// full dataset with meta.genome_annotations and tree, or a bare annotation
// object keyed by region name. The tree is required only when needTree is set.
func loadDataset(path string, logger *zap.Logger, needTree bool) (*dataset, error) {
	data, err := datafile.ReadAll(path)
	if err != nil {
		return nil, err
	}

	var doc datasetJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %w", path, err)
	}

	annotations := []byte(doc.Meta.GenomeAnnotations)
	if isEmptyJSON(annotations) {
		// Bare annotation object.
		annotations = data
	}

	parser := genome.NewParser()
	parser.SetLogger(logger.With(zap.String("dataset", datasetName(path))))
	g, err := parser.Parse(annotations)
	if err != nil {
		return nil, fmt.Errorf("parse genome annotations of %s: %w", path, err)
	}

	ds := &dataset{Name: datasetName(path), Path: path, Genome: g}
	if !needTree {
		return ds, nil
	}

	if isEmptyJSON(doc.Tree) {
		return nil, fmt.Errorf("%s: %w", path, errNoTree)
	}
	ds.Nodes, err = tree.ParseJSON(doc.Tree)
	if err != nil {
		return nil, fmt.Errorf("parse tree of %s: %w", path, err)
	}

	logger.Debug("loaded dataset",
		zap.String("dataset", ds.Name),
		zap.Int("nodes", len(ds.Nodes)),
		zap.Int("cds", len(g.AllCDS())))
	return ds, nil
}

func isEmptyJSON(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// datasetName derives a dataset name from its path: "zika.json.gz" -> "zika".
func datasetName(path string) string {
	name := filepath.Base(path)
	for _, ext := range []string{".gz", ".zst", ".lz4", ".json"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// lookupCDS returns the named CDS or an error naming the available ones.
func lookupCDS(g *genome.Genome, name string) (*genome.CDS, error) {
	if cds := g.CDSByName(name); cds != nil {
		return cds, nil
	}
	var names []string
	for _, c := range g.AllCDS() {
		names = append(names, c.Name)
	}
	return nil, fmt.Errorf("unknown CDS %q (available: %s)", name, strings.Join(names, ", "))
}
