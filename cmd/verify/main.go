// Command verify checks the artifacts of an ETL run against its source file:
// the SQLite table and the JSON export must each hold one record per source
// row, in the fixed column order, with identical content.
//
// Usage:
//
//	go run ./cmd/verify \
//	  --source data/Border_Crossing_Entry_Data.csv \
//	  --store sql/data.sqlite \
//	  --export json/data.json
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/couchcryptid/border-crossing-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/border-crossing-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/border-crossing-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/border-crossing-etl/internal/domain"
	flag "github.com/spf13/pflag"
)

type options struct {
	source string
	store  string
	table  string
	export string
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// maxReported caps per-phase detail lines for very large tables.
const maxReported = 20

func main() {
	var opts options
	flag.StringVar(&opts.source, "source", "data/Border_Crossing_Entry_Data.csv", "source CSV file")
	flag.StringVar(&opts.store, "store", "sql/data.sqlite", "SQLite store written by the ETL")
	flag.StringVar(&opts.table, "table", "data", "table name inside the store")
	flag.StringVar(&opts.export, "export", "json/data.json", "JSON export written by the ETL")
	flag.Parse()

	os.Exit(run(context.Background(), os.Stdout, opts))
}

func run(ctx context.Context, out io.Writer, opts options) int {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	fmt.Fprintln(out, "=== Border Crossing Integrity Validation ===")
	fmt.Fprintln(out)

	rows, err := csvfile.NewLoader(opts.source, logger).Load(ctx)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load source: %v\n", err)
		return 1
	}

	store := sqlite.NewStore(opts.store, opts.table, logger)
	stored, err := store.Records(ctx)
	if err != nil {
		fmt.Fprintf(out, "FATAL: read store: %v\n", err)
		return 1
	}
	schema, err := store.Schema(ctx)
	if err != nil {
		fmt.Fprintf(out, "FATAL: read store schema: %v\n", err)
		return 1
	}

	raw, err := os.ReadFile(opts.export)
	if err != nil {
		fmt.Fprintf(out, "FATAL: read export: %v\n", err)
		return 1
	}
	exported, err := jsonfile.ReadExport(opts.export)
	if err != nil {
		fmt.Fprintf(out, "FATAL: decode export: %v\n", err)
		return 1
	}

	want, skipped := normalizeSource(rows)

	phases := []*phase{
		validateCounts(len(want), len(stored), len(exported)),
		validateColumnOrder(schema, raw),
		validateTransformation(want, stored),
		validateExportMatchesStore(stored, exported),
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d source rows, %d stored, %d exported\n", len(rows), len(stored), len(exported))
	if len(skipped) > 0 {
		fmt.Fprintf(out, "Skipped: %d source rows do not normalize (first at line %d)\n", len(skipped), skipped[0])
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxReported {
				fmt.Fprintf(out, "  ... %d more\n", len(p.errors)-maxReported)
				break
			}
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func validateCounts(source, stored, exported int) *phase {
	p := &phase{name: "Row counts"}
	if stored != source {
		p.errorf("store has %d rows, source has %d", stored, source)
	}
	if exported != source {
		p.errorf("export has %d records, source has %d", exported, source)
	}
	return p
}

func validateColumnOrder(schema []string, export []byte) *phase {
	p := &phase{name: "Column order"}
	if !slices.Equal(schema, domain.Columns) {
		p.errorf("store columns %v, want %v", schema, domain.Columns)
	}

	keys, err := jsonfile.ObjectKeys(export)
	if err != nil {
		p.errorf("export: %v", err)
		return p
	}
	for i, k := range keys {
		if !slices.Equal(k, domain.Columns) {
			p.errorf("export object %d keys %v, want %v", i, k, domain.Columns)
		}
	}
	return p
}

// sourceRecord is a normalized source row with its line for reporting.
type sourceRecord struct {
	line   int
	record domain.Record
}

// normalizeSource re-normalizes every source row. Rows that fail are returned
// by line number; a run with SKIP_INVALID_ROWS=true drops exactly those.
func normalizeSource(rows []domain.SourceRow) (want []sourceRecord, skipped []int) {
	for _, row := range rows {
		rec, err := domain.NormalizeRow(row)
		if err != nil {
			skipped = append(skipped, row.Line)
			continue
		}
		want = append(want, sourceRecord{line: row.Line, record: rec})
	}
	return want, skipped
}

// validateTransformation compares the normalized source rows with the stored
// records in order.
func validateTransformation(want []sourceRecord, stored []domain.Record) *phase {
	p := &phase{name: "Source rows normalize to stored records"}
	for i, w := range want {
		if i >= len(stored) {
			p.errorf("line %d: no stored record", w.line)
			continue
		}
		if stored[i] != w.record {
			p.errorf("line %d: stored %+v, want %+v", w.line, stored[i], w.record)
		}
	}
	return p
}

func validateExportMatchesStore(stored, exported []domain.Record) *phase {
	p := &phase{name: "Export matches store"}
	for i := range min(len(stored), len(exported)) {
		if stored[i] != exported[i] {
			p.errorf("record %d: store %+v, export %+v", i, stored[i], exported[i])
		}
	}
	return p
}
