package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/inodb/vibe-entropy/internal/genome"
)

// WriteGenomeTable writes one aligned row per CDS segment.
func WriteGenomeTable(w io.Writer, g *genome.Genome) error {
	chrom := g.Chromosome()
	if chrom == nil {
		return fmt.Errorf("genome has no chromosome")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "# %s\t%d-%d\n", chrom.Name, chrom.Range.Start, chrom.Range.End)
	fmt.Fprintln(tw, strings.Join([]string{
		"GENE", "CDS", "STRAND", "LENGTH", "SEGMENT", "GENOME", "LOCAL", "PHASE", "FRAME", "ROW", "COLOR",
	}, "\t"))

	for _, gene := range chrom.Genes {
		for _, cds := range gene.CDS {
			name := cds.Name
			if cds.IsWrapping {
				name += " (wraps)"
			}
			for _, seg := range cds.Segments {
				fmt.Fprintln(tw, strings.Join([]string{
					gene.Name,
					name,
					genome.StrandSymbol(cds.Strand),
					strconv.Itoa(cds.Length),
					strconv.Itoa(seg.SegmentNumber),
					formatRange(seg.RangeGenome),
					formatRange(seg.RangeLocal),
					strconv.Itoa(seg.Phase),
					strconv.Itoa(seg.Frame),
					strconv.Itoa(cds.StackPosition),
					cds.Color,
				}, "\t"))
			}
		}
	}
	return tw.Flush()
}

// WriteCodon writes the genome coordinates of one codon.
func WriteCodon(w io.Writer, cds *genome.CDS, c genome.Codon) error {
	positions := make([]string, len(c.Nucleotides))
	for i, p := range c.Nucleotides {
		positions[i] = strconv.Itoa(p)
	}
	_, err := fmt.Fprintf(w, "%s\tcodon %d\t%s\t%s\n", cds.Name, c.Number, strings.Join(positions, ","), c.FrameLabel())
	return err
}

// WriteAaPositions writes every CDS-local interpretation of a genome position.
func WriteAaPositions(w io.Writer, pos int, hits []genome.AaPosition) error {
	if len(hits) == 0 {
		_, err := fmt.Fprintf(w, "%d\tintergenic\n", pos)
		return err
	}
	for _, h := range hits {
		if _, err := fmt.Fprintf(w, "%d\t%s\tnt %d\tcodon %d\n", pos, h.CDS.Name, h.NucLocal, h.AaLocal); err != nil {
			return err
		}
	}
	return nil
}

// WriteLocalRange writes the CDS-local range visible in a genome view, or
// that the CDS is not entirely within it.
func WriteLocalRange(w io.Writer, cds *genome.CDS, view genome.Range, local genome.Range, ok bool) error {
	if !ok {
		_, err := fmt.Fprintf(w, "%s\t%s\tnot in view\n", cds.Name, formatRange(view))
		return err
	}
	_, err := fmt.Fprintf(w, "%s\t%s\tnt %s\tcodons %d-%d\n",
		cds.Name, formatRange(view), formatRange(local), (local.Start-1)/3+1, (local.End+2)/3)
	return err
}

func formatRange(r genome.Range) string {
	return strconv.Itoa(r.Start) + "-" + strconv.Itoa(r.End)
}
