package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-entropy/internal/datafile"
	"github.com/inodb/vibe-entropy/internal/diversity"
	"github.com/inodb/vibe-entropy/internal/duckdb"
	"github.com/inodb/vibe-entropy/internal/output"
	"github.com/inodb/vibe-entropy/internal/tree"
)

type diversityOptions struct {
	cds        string
	allCDS     bool
	hide       []string
	outputFile string
}

func newDiversityCmd(a *app) *cobra.Command {
	var opts diversityOptions

	cmd := &cobra.Command{
		Use:   "diversity <dataset>",
		Short: "Compute per-position mutation counts or entropy",
		Long: `Compute diversity over the visible tips of a dataset's tree.

By default nucleotide Shannon entropy is computed along the whole genome.
--cds selects amino acid diversity of one CDS, --all-cds of every CDS.
--counts reports the number of visible branches mutated at each position
instead of entropy. --hide removes named nodes (and their descendants) from
the visible set.`,
		Example: `  vibe-entropy diversity zika.json
  vibe-entropy diversity --cds ENV --counts zika.json
  vibe-entropy diversity --all-cds -f json -o bars.json.gz zika.json
  vibe-entropy diversity --hide BRA/2016/FC_6706 --duckdb bars.duckdb zika.json`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiversity(cmd, a, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.cds, "cds", "", "Compute amino acid diversity of this CDS")
	f.BoolVar(&opts.allCDS, "all-cds", false, "Compute amino acid diversity of every CDS")
	f.StringSliceVar(&opts.hide, "hide", nil, "Hide these nodes and their descendants")
	f.StringVarP(&opts.outputFile, "output", "o", "", "Output file, compressed by extension (default: stdout)")
	f.Bool("counts", false, "Report raw mutation counts instead of entropy")
	f.StringP("output-format", "f", "tab", "Output format: tab, json")
	f.String("duckdb", "", "Also export bars to this DuckDB database")
	f.Int("workers", 0, "Workers for --all-cds (default: number of CPUs)")
	cmd.MarkFlagsMutuallyExclusive("cds", "all-cds")

	_ = viper.BindPFlag(keyDiversityCounts, f.Lookup("counts"))
	_ = viper.BindPFlag(keyOutputFormat, f.Lookup("output-format"))
	_ = viper.BindPFlag(keyDuckDBPath, f.Lookup("duckdb"))
	_ = viper.BindPFlag(keyWorkers, f.Lookup("workers"))

	return cmd
}

func runDiversity(cmd *cobra.Command, a *app, path string, opts diversityOptions) error {
	ds, err := loadDataset(path, a.logger, true)
	if err != nil {
		return err
	}

	countsOnly := viper.GetBool(keyDiversityCounts)
	mask := tree.Hide(ds.Nodes, tree.AllVisible(len(ds.Nodes)), opts.hide...)
	for _, name := range opts.hide {
		if tree.Find(ds.Nodes, name) == nil {
			a.logger.Warn("node to hide not found", zap.String("node", name))
		}
	}

	calc := diversity.NewCalculator(ds.Genome, ds.Nodes)
	calc.SetLogger(a.logger)

	var results []*diversity.Bars
	switch {
	case opts.allCDS:
		results, err = calc.AllCDS(cmd.Context(), mask, countsOnly, viper.GetInt(keyWorkers))
		if err != nil {
			return fmt.Errorf("compute diversity: %w", err)
		}
	case opts.cds != "":
		cds, err := lookupCDS(ds.Genome, opts.cds)
		if err != nil {
			return err
		}
		results = []*diversity.Bars{calc.Compute(mask, diversity.SingleCDS(cds), countsOnly)}
	default:
		results = []*diversity.Bars{calc.Compute(mask, diversity.WholeGenome(), countsOnly)}
	}

	if err := writeBars(cmd, opts.outputFile, results); err != nil {
		return err
	}

	if dbPath := viper.GetString(keyDuckDBPath); dbPath != "" {
		if err := exportBars(cmd.Context(), a.logger, dbPath, ds, results); err != nil {
			return fmt.Errorf("export to duckdb: %w", err)
		}
	}
	return nil
}

func writeBars(cmd *cobra.Command, outputFile string, results []*diversity.Bars) (err error) {
	dst := cmd.OutOrStdout()
	if outputFile != "" {
		wc, createErr := datafile.Create(outputFile)
		if createErr != nil {
			return createErr
		}
		defer func() {
			if cerr := wc.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing %s: %w", outputFile, cerr)
			}
		}()
		dst = wc
	}

	var writer output.BarsWriter
	switch format := viper.GetString(keyOutputFormat); format {
	case "tab":
		writer = output.NewTabWriter(dst)
	case "json":
		writer = output.NewJSONWriter(dst)
	default:
		return usageError{fmt.Errorf("unknown output format %q", format)}
	}

	if err := writer.WriteHeader(); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, b := range results {
		if err := writer.Write(b); err != nil {
			return fmt.Errorf("writing bars: %w", err)
		}
	}
	return writer.Flush()
}

func exportBars(ctx context.Context, logger *zap.Logger, dbPath string, ds *dataset, results []*diversity.Bars) error {
	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	fp, err := duckdb.StatFile(ds.Path)
	if err != nil {
		return err
	}
	changed, err := store.DatasetChanged(ds.Name, fp)
	if err != nil {
		return err
	}
	if changed {
		logger.Info("dataset changed, clearing previous export", zap.String("dataset", ds.Name))
		if err := store.ClearBars(ds.Name); err != nil {
			return err
		}
	}

	for _, b := range results {
		if err := store.WriteBars(ctx, ds.Name, b); err != nil {
			return err
		}
	}
	if err := store.RecordDataset(ds.Name, fp); err != nil {
		return err
	}

	logger.Info("exported diversity bars",
		zap.String("dataset", ds.Name),
		zap.String("database", dbPath),
		zap.Int("regions", len(results)))
	return nil
}
