package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"deleteafter/internal/exitcodes"
	"deleteafter/internal/history"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("deleteafter-query", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", "/var/lib/deleteafter/history.db", "Path to run history database")
	recent := fs.Int("recent", 0, "Show N most recent runs")
	stats := fs.Bool("stats", false, "Show run statistics")
	status := fs.String("status", "", "Filter by status (deleted, ignored, skipped, nothing_to_do, aborted)")
	target := fs.String("target", "", "Filter by target pattern (SQL LIKE syntax)")
	days := fs.Int("days", 30, "Number of days for statistics")
	prune := fs.Int("prune", 0, "Delete records older than N days")
	jsonOutput := fs.Bool("json", false, "Output in JSON format")
	if err := fs.Parse(args); err != nil {
		return exitcodes.InvalidConfig
	}

	if !*stats && *recent <= 0 && *status == "" && *target == "" && *prune <= 0 {
		fs.Usage()
		fmt.Fprintln(stderr, "\nExamples:")
		fmt.Fprintln(stderr, "  deleteafter-query --recent 10              # Show 10 most recent runs")
		fmt.Fprintln(stderr, "  deleteafter-query --stats --days 7         # Show statistics for the last week")
		fmt.Fprintln(stderr, "  deleteafter-query --status ignored         # Show runs whose delete failed")
		fmt.Fprintln(stderr, "  deleteafter-query --target '/srv/uploads/%' # Show runs under /srv/uploads")
		fmt.Fprintln(stderr, "  deleteafter-query --prune 90               # Drop records older than 90 days")
		return exitcodes.InvalidConfig
	}

	db, err := history.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: Failed to open database %s: %v\n", *dbPath, err)
		return exitcodes.InvalidConfig
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(stderr, "ERROR: Failed to close database: %v\n", err)
		}
	}()

	q := &query{db: db, out: stdout, json: *jsonOutput}
	switch {
	case *prune > 0:
		err = q.prune(*prune)
	case *stats:
		err = q.stats(*days)
	case *recent > 0:
		err = q.recent(*recent)
	case *status != "":
		err = q.byStatus(*status)
	default:
		err = q.byTarget(*target)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return exitcodes.RuntimeError
	}
	return exitcodes.Success
}

type query struct {
	db   *history.DB
	out  io.Writer
	json bool
}

func (q *query) stats(days int) error {
	stats, err := q.db.GetRunStats(days)
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}
	if q.json {
		return q.writeJSON(stats)
	}

	fmt.Fprintf(q.out, "Run Statistics (Last %d days)\n", days)
	fmt.Fprintf(q.out, "Period: %s to %s\n\n", stats.StartDate.Format("2006-01-02"), stats.EndDate.Format("2006-01-02"))
	fmt.Fprintf(q.out, "Total Runs:     %d\n", stats.TotalRuns)
	fmt.Fprintf(q.out, "Space Freed:    %s\n\n", humanize.Bytes(uint64(stats.TotalBytesRemoved)))

	if len(stats.ByStatus) > 0 {
		statuses := make([]string, 0, len(stats.ByStatus))
		for s := range stats.ByStatus {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)

		fmt.Fprintln(q.out, "By Status:")
		for _, s := range statuses {
			fmt.Fprintf(q.out, "  %-15s %d\n", s, stats.ByStatus[s])
		}
	}
	return nil
}

func (q *query) recent(limit int) error {
	records, err := q.db.GetRecentRuns(limit)
	if err != nil {
		return fmt.Errorf("failed to get recent runs: %w", err)
	}
	return q.show("", records)
}

func (q *query) byStatus(status string) error {
	records, err := q.db.GetRunsByStatus(status)
	if err != nil {
		return fmt.Errorf("failed to query by status: %w", err)
	}
	return q.show(fmt.Sprintf("Runs with status: %s", status), records)
}

func (q *query) byTarget(pattern string) error {
	records, err := q.db.GetRunsByTarget(pattern)
	if err != nil {
		return fmt.Errorf("failed to query by target: %w", err)
	}
	return q.show(fmt.Sprintf("Runs matching target pattern: %s", pattern), records)
}

func (q *query) prune(days int) error {
	n, err := q.db.DeleteOldRecords(days)
	if err != nil {
		return fmt.Errorf("failed to prune records: %w", err)
	}
	if q.json {
		return q.writeJSON(map[string]int64{"pruned": n})
	}
	fmt.Fprintf(q.out, "Pruned %d records older than %d days\n", n, days)
	return nil
}

func (q *query) show(title string, records []history.Record) error {
	if q.json {
		if records == nil {
			records = []history.Record{}
		}
		return q.writeJSON(records)
	}
	if title != "" {
		fmt.Fprintf(q.out, "%s\n\n", title)
	}
	printRecords(q.out, records)
	return nil
}

func (q *query) writeJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(q.out, string(data))
	return err
}

func printRecords(out io.Writer, records []history.Record) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No records found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tFinished\tStatus\tObject\tDelay\tSize\tTarget")
	_, _ = fmt.Fprintln(w, "--\t--------\t------\t------\t-----\t----\t------")

	for _, r := range records {
		delay := fmt.Sprintf("%ds", r.DelaySeconds)
		if r.DelayDefaulted {
			delay += "*"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			humanize.Time(r.FinishedAt),
			r.Status,
			r.ObjectType,
			delay,
			humanize.Bytes(uint64(r.Size)),
			r.Target,
		)
	}
	_ = w.Flush()
}
