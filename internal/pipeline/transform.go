package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/border-crossing-etl/internal/domain"
	"github.com/couchcryptid/border-crossing-etl/internal/observability"
)

// RowTransformer implements Transformer using domain.NormalizeRow.
//
// By default the first row that fails normalization aborts the whole batch.
// With skipInvalid set, failing rows are logged, counted, and dropped.
type RowTransformer struct {
	skipInvalid bool
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewTransformer creates a RowTransformer.
func NewTransformer(skipInvalid bool, logger *slog.Logger, metrics *observability.Metrics) *RowTransformer {
	return &RowTransformer{
		skipInvalid: skipInvalid,
		logger:      logger,
		metrics:     metrics,
	}
}

func (t *RowTransformer) Transform(ctx context.Context, rows []domain.SourceRow) ([]domain.Record, error) {
	records := make([]domain.Record, 0, len(rows))

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := domain.NormalizeRow(row)
		if err != nil {
			t.metrics.TransformErrors.Inc()
			if !t.skipInvalid {
				return nil, err
			}
			t.logger.Warn("transform failed, skipping row", "line", row.Line, "error", err)
			continue
		}
		records = append(records, rec)
	}

	t.metrics.RecordsTransformed.Add(float64(len(records)))
	return records, nil
}
