package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-entropy/internal/diversity"
	"github.com/inodb/vibe-entropy/internal/tree"
)

// ErrNoBars is returned by LookupBars when nothing was exported for the key.
var ErrNoBars = errors.New("no exported bars")

// barKey is the composite key for deduplicating bars before writing.
type barKey struct {
	prot string
	pos  int
}

// WriteBars replaces the exported bars of one (dataset, region, mode) with b,
// batch-inserting through the Appender API.
func (s *Store) WriteBars(ctx context.Context, dataset string, b *diversity.Bars) error {
	region, mode := b.Region, b.Mode()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM diversity_bars WHERE dataset=? AND region=? AND mode=?",
		dataset, region, mode); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete previous bars: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO diversity_runs VALUES (?, ?, ?, ?, ?)",
		dataset, region, mode, b.MaxY, int64(len(b.Bars))); err != nil {
		tx.Rollback()
		return fmt.Errorf("record run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if len(b.Bars) == 0 {
		return nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "diversity_bars")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	seen := make(map[barKey]bool, len(b.Bars))
	for _, bar := range b.Bars {
		pos := barPosition(bar)
		k := barKey{bar.Prot, pos}
		if seen[k] {
			continue
		}
		seen[k] = true
		if err := appender.AppendRow(
			dataset, region, mode, bar.Prot, int64(pos), bar.Y, bar.Fill,
		); err != nil {
			return fmt.Errorf("append bar: %w", err)
		}
	}

	return appender.Flush()
}

// LookupBars reads back the bars exported for (dataset, region, mode),
// ordered by protein then position.
func (s *Store) LookupBars(ctx context.Context, dataset, region, mode string) (*diversity.Bars, error) {
	out := &diversity.Bars{Region: region, CountsOnly: mode == "counts", Bars: []diversity.Bar{}}

	var nBars int64
	err := s.db.QueryRowContext(ctx,
		"SELECT max_y, n_bars FROM diversity_runs WHERE dataset=? AND region=? AND mode=?",
		dataset, region, mode).Scan(&out.MaxY, &nBars)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w for %s/%s/%s", ErrNoBars, dataset, region, mode)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT prot, position, y, fill
		FROM diversity_bars
		WHERE dataset=? AND region=? AND mode=?
		ORDER BY prot, position`,
		dataset, region, mode)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	nucleotide := region == tree.NucleotideKey
	for rows.Next() {
		var bar diversity.Bar
		var pos int64
		if err := rows.Scan(&bar.Prot, &pos, &bar.Y, &bar.Fill); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		if nucleotide {
			bar.X = int(pos)
		} else {
			bar.Codon = int(pos)
		}
		out.Bars = append(out.Bars, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bars: %w", err)
	}
	return out, nil
}

// Regions lists the regions exported for a dataset.
func (s *Store) Regions(ctx context.Context, dataset string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT region FROM diversity_runs WHERE dataset=? ORDER BY region", dataset)
	if err != nil {
		return nil, fmt.Errorf("query regions: %w", err)
	}
	defer rows.Close()

	var regions []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		regions = append(regions, r)
	}
	return regions, rows.Err()
}

// ClearBars removes every exported bar of a dataset.
func (s *Store) ClearBars(dataset string) error {
	if _, err := s.db.Exec("DELETE FROM diversity_bars WHERE dataset=?", dataset); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM diversity_runs WHERE dataset=?", dataset)
	return err
}

func barPosition(b diversity.Bar) int {
	if b.X != 0 {
		return b.X
	}
	return b.Codon
}
