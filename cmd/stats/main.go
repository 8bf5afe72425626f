// Command stats summarises recorded decision parquet batches: volume,
// search scores, time spent, and how often the engine's move matched the
// move that was actually played.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	_ "github.com/duckdb/duckdb-go/v2"
)

func main() {
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	dataDirs := flags.String("data-dirs", "data/arena", "Comma-separated directories containing decision parquet batches")

	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	roots := parseDataRoots(*dataDirs)
	files, err := findParquetFiles(roots)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan data dirs: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "no parquet files under %s\n", strings.Join(roots, ","))
		os.Exit(1)
	}

	db, err := openDuckDB(files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open duckdb: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := printSummary(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "summary: %v\n", err)
		os.Exit(1)
	}
	if err := printMoveDistribution(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "move distribution: %v\n", err)
		os.Exit(1)
	}
	if err := printPerSource(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "per-source: %v\n", err)
		os.Exit(1)
	}
}

func parseDataRoots(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func findParquetFiles(roots []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, root := range roots {
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == "tmp" {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(strings.ToLower(d.Name()), ".parquet") && !seen[path] {
				seen[path] = true
				out = append(out, path)
			}
			return nil
		})
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				continue
			}
			return nil, walkErr
		}
	}
	return out, nil
}

func openDuckDB(parquetFiles []string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, err
	}
	_, _ = db.Exec("PRAGMA threads=4")

	arr := make([]string, 0, len(parquetFiles))
	for _, p := range parquetFiles {
		arr = append(arr, "'"+strings.ReplaceAll(p, "'", "''")+"'")
	}
	view := "CREATE OR REPLACE VIEW decisions AS SELECT * FROM read_parquet([" + strings.Join(arr, ",") + "])"
	if _, err := db.Exec(view); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func printSummary(ctx context.Context, db *sql.DB) error {
	row := db.QueryRowContext(ctx, `
		SELECT
			COUNT(*)::BIGINT,
			COUNT(DISTINCT game_id)::BIGINT,
			AVG(score)::DOUBLE,
			AVG(territory_ego)::DOUBLE,
			AVG(elapsed_us)::DOUBLE,
			MAX(elapsed_us)::BIGINT,
			SUM(CASE WHEN played_move >= 0 THEN 1 ELSE 0 END)::BIGINT,
			SUM(CASE WHEN played_move >= 0 AND played_move = move THEN 1 ELSE 0 END)::BIGINT
		FROM decisions`)

	var (
		rows, games, maxUs, withPlayed, agreed int64
		avgScore, avgTerritory, avgUs          float64
	)
	if err := row.Scan(&rows, &games, &avgScore, &avgTerritory, &avgUs, &maxUs, &withPlayed, &agreed); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "decisions\t%d\n", rows)
	fmt.Fprintf(w, "games\t%d\n", games)
	fmt.Fprintf(w, "avg score\t%.1f\n", avgScore)
	fmt.Fprintf(w, "avg territory\t%.1f\n", avgTerritory)
	fmt.Fprintf(w, "avg time\t%.0fus\n", avgUs)
	fmt.Fprintf(w, "max time\t%dus\n", maxUs)
	if withPlayed > 0 {
		fmt.Fprintf(w, "agreement\t%.1f%% (%d/%d)\n",
			100*float64(agreed)/float64(withPlayed), agreed, withPlayed)
	}
	fmt.Fprintln(w)
	return w.Flush()
}

func printMoveDistribution(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, `
		SELECT
			CASE move
				WHEN 0 THEN 'up'
				WHEN 1 THEN 'down'
				WHEN 2 THEN 'left'
				WHEN 3 THEN 'right'
				ELSE '?'
			END AS name,
			COUNT(*)::BIGINT AS n
		FROM decisions
		GROUP BY move
		ORDER BY move`)
	if err != nil {
		return err
	}
	defer rows.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "move\tcount")
	for rows.Next() {
		var name string
		var n int64
		if err := rows.Scan(&name, &n); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\n", name, n)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return w.Flush()
}

func printPerSource(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, `
		SELECT
			source,
			COUNT(DISTINCT game_id)::BIGINT AS games,
			COUNT(*)::BIGINT AS decisions,
			AVG(elapsed_us)::DOUBLE AS avg_us
		FROM decisions
		GROUP BY source
		ORDER BY source`)
	if err != nil {
		return err
	}
	defer rows.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "source\tgames\tdecisions\tavg time")
	for rows.Next() {
		var source string
		var games, decisions int64
		var avgUs float64
		if err := rows.Scan(&source, &games, &decisions, &avgUs); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.0fus\n", source, games, decisions, avgUs)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return w.Flush()
}
