package genome

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// ChromosomeKey is the annotation entry describing the whole chromosome.
const ChromosomeKey = "nuc"

// DefaultChromosomeName is the name given to the single parsed chromosome.
const DefaultChromosomeName = "source"

var (
	// ErrMissingChromosome is returned when the annotations have no "nuc" entry.
	ErrMissingChromosome = errors.New("genome annotation missing 'nuc' definition")
	// ErrInvalidChromosome is returned when the "nuc" entry has no usable start/end.
	ErrInvalidChromosome = errors.New("genome annotation 'nuc' has invalid start/end")
	// ErrNegativeChromosome is returned when the "nuc" entry is on the reverse strand.
	ErrNegativeChromosome = errors.New("genome annotation 'nuc' must be on the positive strand")
)

// AnnotationEntry is one named region of the annotation JSON block.
//
// A CDS is either a single Start/End range or an explicit list of Segments
// in translation order. A CDS wrapping the origin is encoded with an End
// beyond the chromosome end; it is split into two segments at parse time.
type AnnotationEntry struct {
	Start       *int           `json:"start"`
	End         *int           `json:"end"`
	Strand      *string        `json:"strand"`
	Gene        *string        `json:"gene"`
	Color       string         `json:"color"`
	DisplayName string         `json:"display_name"`
	Description string         `json:"description"`
	Segments    []SegmentEntry `json:"segments"`
}

// SegmentEntry is a single explicit segment of a CDS annotation.
type SegmentEntry struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Parser builds a Genome from annotation JSON.
type Parser struct {
	palette    []string
	colorStart int
	logger     *zap.Logger
}

// NewParser creates a parser using DefaultPalette.
func NewParser() *Parser {
	return &Parser{
		palette: DefaultPalette,
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for data-quality warnings.
func (p *Parser) SetLogger(l *zap.Logger) {
	p.logger = l
}

// SetPalette sets the default colors and the index of the first one used.
func (p *Parser) SetPalette(palette []string, start int) {
	p.palette = palette
	p.colorStart = start
}

// Parse decodes an annotation JSON object keyed by region name.
// Entries that cannot be decoded are skipped with a warning, except "nuc".
func (p *Parser) Parse(data []byte) (*Genome, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode genome annotations: %w", err)
	}

	entries := make(map[string]AnnotationEntry, len(raw))
	for name, msg := range raw {
		var e AnnotationEntry
		if err := json.Unmarshal(msg, &e); err != nil {
			if name == ChromosomeKey {
				return nil, fmt.Errorf("%w: %v", ErrInvalidChromosome, err)
			}
			p.logger.Warn("skipping malformed genome annotation",
				zap.String("cds", name), zap.Error(err))
			continue
		}
		entries[name] = e
	}

	return p.Build(entries)
}

// Build constructs the genome model from decoded annotation entries.
func (p *Parser) Build(entries map[string]AnnotationEntry) (*Genome, error) {
	nuc, ok := entries[ChromosomeKey]
	if !ok {
		return nil, ErrMissingChromosome
	}
	if nuc.Start == nil || nuc.End == nil || *nuc.Start > *nuc.End {
		return nil, ErrInvalidChromosome
	}
	if nuc.Strand != nil && *nuc.Strand == "-" {
		return nil, ErrNegativeChromosome
	}
	chromRange := Range{Start: *nuc.Start, End: *nuc.End}

	// Group CDS annotations by gene; absent a gene field each CDS is its own gene.
	perGene := make(map[string]map[string]AnnotationEntry)
	for name, e := range entries {
		if name == ChromosomeKey {
			continue
		}
		geneName := name
		if e.Gene != nil && *e.Gene != "" {
			geneName = *e.Gene
		}
		if perGene[geneName] == nil {
			perGene[geneName] = make(map[string]AnnotationEntry)
		}
		perGene[geneName][name] = e
	}

	var genes []*Gene
	explicitColor := make(map[*CDS]bool)
	for geneName, cdsEntries := range perGene {
		gene := &Gene{Name: geneName}
		for cdsName, e := range cdsEntries {
			cds := p.cdsFromAnnotation(cdsName, e, chromRange)
			if cds == nil {
				continue
			}
			if e.Color != "" {
				cds.Color = e.Color
				explicitColor[cds] = true
			}
			gene.CDS = append(gene.CDS, cds)
		}
		if len(gene.CDS) == 0 {
			p.logger.Debug("gene has no valid CDS", zap.String("gene", geneName))
			continue
		}
		sortCDS(gene.CDS)
		genes = append(genes, gene)
	}

	sort.Slice(genes, func(i, j int) bool {
		si, sj := geneStart(genes[i]), geneStart(genes[j])
		if si != sj {
			return si < sj
		}
		return genes[i].Name < genes[j].Name
	})

	// Default colors are per gene, not per CDS.
	colors := newColorCycle(p.palette, p.colorStart)
	for _, gene := range genes {
		color := colors.Next()
		for _, cds := range gene.CDS {
			if !explicitColor[cds] {
				cds.Color = color
			}
		}
	}

	strands := make(map[int8]bool)
	for _, gene := range genes {
		for _, cds := range gene.CDS {
			strands[cds.Strand] = true
		}
	}

	chrom := &Chromosome{
		Name:  DefaultChromosomeName,
		Range: chromRange,
		Genes: genes,
		Metadata: Metadata{
			StrandsObserved:      strands,
			PosStrandStackHeight: assignStackPositions(genes, StrandForward),
			NegStrandStackHeight: assignStackPositions(genes, StrandReverse),
		},
	}

	g := &Genome{Chromosomes: []*Chromosome{chrom}}
	idx, err := BuildIndex(g)
	if err != nil {
		return nil, fmt.Errorf("build position index: %w", err)
	}
	g.index = idx
	return g, nil
}

// cdsFromAnnotation returns the CDS described by e, or nil (with a warning)
// if it cannot be used.
func (p *Parser) cdsFromAnnotation(name string, e AnnotationEntry, chrom Range) *CDS {
	var strand int8
	switch {
	case e.Strand != nil && *e.Strand == "+":
		strand = StrandForward
	case e.Strand != nil && *e.Strand == "-":
		strand = StrandReverse
	default:
		// '?' and '.' (null) strands are not assumed to be coding.
		s := "(missing)"
		if e.Strand != nil {
			s = *e.Strand
		}
		p.logger.Warn("ignoring CDS with unusable strand",
			zap.String("cds", name), zap.String("strand", s))
		return nil
	}
	positive := strand == StrandForward

	hasRange := e.Start != nil && e.End != nil
	if hasRange && len(e.Segments) > 0 {
		p.logger.Warn("ignoring CDS defining both start/end and segments", zap.String("cds", name))
		return nil
	}

	var ranges []Range
	switch {
	case hasRange:
		start, end := *e.Start, *e.End
		switch {
		case start < chrom.Start || start > end:
			p.logger.Warn("ignoring CDS with invalid range",
				zap.String("cds", name), zap.Int("start", start), zap.Int("end", end))
			return nil
		case end <= chrom.End:
			ranges = []Range{{Start: start, End: end}}
		case start > chrom.End:
			p.logger.Warn("ignoring CDS starting beyond the chromosome end",
				zap.String("cds", name), zap.Int("start", start))
			return nil
		default:
			// Wraps the origin: split at the chromosome boundary.
			ranges = []Range{
				{Start: start, End: chrom.End},
				{Start: chrom.Start, End: chrom.Start + end - chrom.End - 1},
			}
			// -ve strand segments run 3' to 5', so the origin segment comes first.
			if !positive {
				ranges[0], ranges[1] = ranges[1], ranges[0]
			}
		}
	case len(e.Segments) > 0:
		for _, s := range e.Segments {
			if s.Start < chrom.Start || s.Start > s.End || s.End > chrom.End {
				p.logger.Warn("ignoring CDS with invalid segment",
					zap.String("cds", name), zap.Int("start", s.Start), zap.Int("end", s.End))
				return nil
			}
			ranges = append(ranges, Range{Start: s.Start, End: s.End})
		}
	default:
		p.logger.Warn("ignoring CDS without start/end or segments", zap.String("cds", name))
		return nil
	}

	segments, length := buildSegments(ranges, chrom.End, positive)
	if length%3 != 0 {
		p.logger.Warn("CDS length is not a multiple of 3",
			zap.String("cds", name), zap.Int("length", length))
	}

	return &CDS{
		Name:        name,
		DisplayName: e.DisplayName,
		Description: e.Description,
		Length:      length,
		Strand:      strand,
		Segments:    segments,
		IsWrapping:  isWrapping(positive, segments),
	}
}

// buildSegments lays out genome ranges (in translation order) as contiguous
// local ranges, propagating phase and frame cumulatively.
func buildSegments(ranges []Range, genomeLength int, positive bool) ([]Segment, int) {
	segments := make([]Segment, 0, len(ranges))
	length := 0
	for i, r := range ranges {
		phase := (3 - length%3) % 3
		segments = append(segments, Segment{
			RangeGenome:   r,
			RangeLocal:    Range{Start: length + 1, End: length + r.Len()},
			SegmentNumber: i + 1,
			Phase:         phase,
			Frame:         frame(r, phase, genomeLength, positive),
		})
		length += r.Len()
	}
	return segments, length
}

// frame computes the reading frame of a segment once it is back in phase.
// +ve strand frames are relative to the genome start, -ve to the genome end.
func frame(r Range, phase, genomeLength int, positive bool) int {
	if positive {
		return (r.Start + phase - 1) % 3
	}
	f := (r.End - phase - genomeLength) % 3
	if f < 0 {
		f = -f
	}
	return f
}

// isWrapping reports whether consecutive segments jump back across the origin.
func isWrapping(positive bool, segments []Segment) bool {
	for i := 1; i < len(segments); i++ {
		prev, cur := segments[i-1].RangeGenome.Start, segments[i].RangeGenome.Start
		if positive && prev > cur {
			return true
		}
		if !positive && prev < cur {
			return true
		}
	}
	return false
}

func sortCDS(cds []*CDS) {
	sort.Slice(cds, func(i, j int) bool {
		si, sj := cds[i].GenomeExtent().Start, cds[j].GenomeExtent().Start
		if si != sj {
			return si < sj
		}
		return cds[i].Name < cds[j].Name
	})
}

func geneStart(g *Gene) int {
	start := 0
	for i, c := range g.CDS {
		if s := c.GenomeExtent().Start; i == 0 || s < start {
			start = s
		}
	}
	return start
}
