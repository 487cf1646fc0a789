package journal

import (
	"context"
	"fmt"
	"os"
)

// Stats summarizes the journal.
type Stats struct {
	Path         string         `json:"db_path"`
	SizeBytes    int64          `json:"db_size_bytes"`
	Total        int            `json:"total_calls"`
	OK           int            `json:"ok_calls"`
	DryRun       int            `json:"dry_run_calls"`
	AvgLatencyMs float64        `json:"avg_latency_ms"`
	ByOutcome    []OutcomeCount `json:"by_outcome"`
	BySource     []SourceCount  `json:"by_location_source"`
}

// OutcomeCount is the number of calls ending in one outcome.
type OutcomeCount struct {
	Outcome string `json:"outcome"`
	Count   int    `json:"count"`
}

// SourceCount is the number of calls per location source.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// Stats returns aggregate counts over all recorded calls.
func (j *Journal) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{Path: j.path}

	if info, err := os.Stat(j.path); err == nil {
		st.SizeBytes = info.Size()
	}

	err := j.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(ok), 0), COALESCE(SUM(dry_run), 0), COALESCE(AVG(latency_ms), 0)
		FROM calls`).Scan(&st.Total, &st.OK, &st.DryRun, &st.AvgLatencyMs)
	if err != nil {
		return nil, fmt.Errorf("count calls: %w", err)
	}

	outcomes, err := j.countBy(ctx, "outcome")
	if err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}
	for _, g := range outcomes {
		st.ByOutcome = append(st.ByOutcome, OutcomeCount{Outcome: g.key, Count: g.count})
	}

	sources, err := j.countBy(ctx, "location_source")
	if err != nil {
		return nil, fmt.Errorf("count sources: %w", err)
	}
	for _, g := range sources {
		st.BySource = append(st.BySource, SourceCount{Source: g.key, Count: g.count})
	}
	return st, nil
}

type groupCount struct {
	key   string
	count int
}

// countBy counts calls per distinct value of column, largest group first.
// column is always a constant from this package.
func (j *Journal) countBy(ctx context.Context, column string) ([]groupCount, error) {
	rows, err := j.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %[1]s, COUNT(*) AS cnt FROM calls
		GROUP BY %[1]s ORDER BY cnt DESC, %[1]s`, column))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []groupCount
	for rows.Next() {
		var g groupCount
		if err := rows.Scan(&g.key, &g.count); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groups, nil
}
