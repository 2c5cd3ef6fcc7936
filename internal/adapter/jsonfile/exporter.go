package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/border-crossing-etl/internal/domain"
	"github.com/natefinch/atomic"
)

// Exporter writes the record set as one JSON array of objects.
// It implements pipeline.Exporter.
type Exporter struct {
	path   string
	logger *slog.Logger
}

// NewExporter creates an Exporter that writes to path.
func NewExporter(path string, logger *slog.Logger) *Exporter {
	return &Exporter{path: path, logger: logger}
}

// Export replaces the file at the configured path with records encoded as a
// JSON array. The file is swapped in atomically, so readers see either the
// previous export or the complete new one.
func (e *Exporter) Export(ctx context.Context, records []domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Encode(records)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return fmt.Errorf("%w: create export directory: %w", domain.ErrFileAccess, err)
	}
	if err := atomic.WriteFile(e.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrFileAccess, e.path, err)
	}
	// atomic.WriteFile leaves new files with the temp file's 0600 mode.
	if err := os.Chmod(e.path, 0o644); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", domain.ErrFileAccess, e.path, err)
	}

	e.logger.Debug("export written", "path", e.path, "records", len(records), "bytes", len(data))
	return nil
}

// Encode renders records as a compact JSON array with keys in column order.
// An empty record set encodes as [].
func Encode(records []domain.Record) ([]byte, error) {
	if records == nil {
		records = []domain.Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ReadExport decodes an export file back into records.
func ReadExport(path string) ([]domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrFileAccess, path, err)
	}

	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", domain.ErrParse, path, err)
	}
	return records, nil
}

// ObjectKeys returns the keys of each object in a JSON array, in document
// order. encoding/json maps lose key order, so this walks the token stream.
func ObjectKeys(data []byte) ([][]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	var out [][]string
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		var keys []string
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrParse, err)
			}
			key, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("%w: expected object key, got %v", domain.ErrParse, tok)
			}
			keys = append(keys, key)

			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("%w: value of %q: %w", domain.ErrParse, key, err)
			}
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		out = append(out, keys)
	}

	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return out, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrParse, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", domain.ErrParse, want, tok)
	}
	return nil
}
