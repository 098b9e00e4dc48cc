package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-entropy/internal/genome"
	"github.com/inodb/vibe-entropy/internal/output"
)

func newGenomeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "genome <dataset>",
		Short: "Show the genes, CDSs and segments of a dataset's annotation",
		Example: `  vibe-entropy genome zika.json
  vibe-entropy genome annotations.json.gz`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadDataset(args[0], a.logger, false)
			if err != nil {
				return err
			}
			return output.WriteGenomeTable(cmd.OutOrStdout(), ds.Genome)
		},
	}
}

func newCodonCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "codon <dataset> <cds> <codon>...",
		Short: "Map codon numbers of a CDS to genome nucleotide positions",
		Example: `  vibe-entropy codon zika.json ENV 1 2 3`,
		Args:    minArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadDataset(args[0], a.logger, false)
			if err != nil {
				return err
			}
			cds, err := lookupCDS(ds.Genome, args[1])
			if err != nil {
				return err
			}
			for _, s := range args[2:] {
				aaPos, err := parsePosition(s)
				if err != nil {
					return err
				}
				codon, err := genome.AaPositionToNucCoordinates(cds, aaPos)
				if err != nil {
					return err
				}
				if err := output.WriteCodon(cmd.OutOrStdout(), cds, codon); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newLocateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "locate <dataset> <position>...",
		Short:   "Show every CDS position a genome nucleotide maps to",
		Example: `  vibe-entropy locate zika.json 1000 1001`,
		Args:    minArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadDataset(args[0], a.logger, false)
			if err != nil {
				return err
			}
			for _, s := range args[1:] {
				pos, err := parsePosition(s)
				if err != nil {
					return err
				}
				if err := output.WriteAaPositions(cmd.OutOrStdout(), pos, ds.Genome.NucleotideToAaPosition(pos)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newZoomCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "zoom <dataset> <cds|all> <start> <end>",
		Short: "Map a genome view to the CDS-local range it shows",
		Long: `Map a genome view to the CDS-local nucleotide range it shows, widened to
whole codons. A CDS extending beyond either end of the view is reported as not
in view. Views crossing the origin must be split by the caller.`,
		Example: `  vibe-entropy zoom zika.json ENV 900 1200
  vibe-entropy zoom zika.json all 1 3000`,
		Args: exactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadDataset(args[0], a.logger, false)
			if err != nil {
				return err
			}
			start, err := parsePosition(args[2])
			if err != nil {
				return err
			}
			end, err := parsePosition(args[3])
			if err != nil {
				return err
			}
			view := genome.Range{Start: start, End: end}

			targets := ds.Genome.AllCDS()
			if args[1] != "all" {
				cds, err := lookupCDS(ds.Genome, args[1])
				if err != nil {
					return err
				}
				targets = []*genome.CDS{cds}
			}
			for _, cds := range targets {
				local, ok := genome.GenomeRangeToCdsLocalRange(cds, view)
				if err := output.WriteLocalRange(cmd.OutOrStdout(), cds, view, local, ok); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func parsePosition(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, usageError{fmt.Errorf("invalid position %q: must be a positive integer", s)}
	}
	return n, nil
}
