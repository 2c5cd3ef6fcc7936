package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/couchcryptid/border-crossing-etl/internal/domain"
)

const utf8BOM = "\ufeff"

// Loader reads the source CSV file into memory.
// It implements pipeline.Extractor.
type Loader struct {
	path   string
	logger *slog.Logger
}

// NewLoader creates a Loader for the file at path.
func NewLoader(path string, logger *slog.Logger) *Loader {
	return &Loader{path: path, logger: logger}
}

// Load reads every data row of the source file in order. The header must
// carry all of domain.SourceColumns; every row must have the header's width.
func (l *Loader) Load(ctx context.Context) ([]domain.SourceRow, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrFileAccess, l.path, err)
	}
	defer f.Close()

	rows, err := Read(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}

	l.logger.Debug("source loaded", "path", l.path, "rows", len(rows))
	return rows, nil
}

// Read parses CSV from r. It is split from Load so tests and tools can feed
// in-memory input.
func Read(ctx context.Context, r io.Reader) ([]domain.SourceRow, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file, no header row", domain.ErrParse)
	}
	if err != nil {
		return nil, parseError(err)
	}
	header = normalizeHeader(header)
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var rows []domain.SourceRow
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseError(err)
		}

		line, _ := cr.FieldPos(0)
		fields := make(map[string]string, len(header))
		for i, name := range header {
			if !utf8.ValidString(rec[i]) {
				return nil, fmt.Errorf("%w: line %d: column %q is not valid UTF-8", domain.ErrParse, line, name)
			}
			fields[name] = rec[i]
		}
		rows = append(rows, domain.SourceRow{Line: line, Fields: fields})
	}

	return rows, nil
}

// normalizeHeader strips a leading byte order mark and surrounding spaces
// from the header names.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		out[i] = strings.TrimSpace(name)
	}
	return out
}

func checkHeader(header []string) error {
	present := make(map[string]bool, len(header))
	for _, name := range header {
		if present[name] {
			return fmt.Errorf("%w: duplicate column %q in header", domain.ErrParse, name)
		}
		present[name] = true
	}

	var missing []string
	for _, name := range domain.SourceColumns {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: header is missing columns %s", domain.ErrParse, strings.Join(missing, ", "))
	}
	return nil
}

// parseError classifies a csv.Reader failure. Malformed CSV (bad quoting,
// wrong field count) is a parse error; anything else came from the reader.
func parseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: %w", domain.ErrParse, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrFileAccess, err)
}
