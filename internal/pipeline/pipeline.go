package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/couchcryptid/border-crossing-etl/internal/domain"
	"github.com/couchcryptid/border-crossing-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Progress lines written to the output writer after each sink completes.
const (
	MsgPersisted = "The CSV file has been cleaned and successfully converted to an SQLite database."
	MsgExported  = "The SQLite database has been converted to a JSON file."
)

// Extractor reads the full source table.
type Extractor interface {
	Load(ctx context.Context) ([]domain.SourceRow, error)
}

// Transformer converts source rows into records.
type Transformer interface {
	Transform(ctx context.Context, rows []domain.SourceRow) ([]domain.Record, error)
}

// RecordStore replaces and reads back the relational materialization.
type RecordStore interface {
	Replace(ctx context.Context, records []domain.Record) error
	Records(ctx context.Context) ([]domain.Record, error)
}

// Exporter writes the document materialization.
type Exporter interface {
	Export(ctx context.Context, records []domain.Record) error
}

// Publisher fans records out to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, records []domain.Record) error
}

// Summary describes a completed run.
type Summary struct {
	RowsRead int
	Records  int
	Skipped  int
	Duration time.Duration
}

// Pipeline runs the load, transform, persist, export sequence once.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	store       RecordStore
	exporter    Exporter
	publisher   Publisher
	out         io.Writer
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// Option configures optional Pipeline collaborators.
type Option func(*Pipeline)

// WithPublisher adds a publish stage after the export.
func WithPublisher(p Publisher) Option {
	return func(pl *Pipeline) { pl.publisher = p }
}

// WithClock replaces the real clock used for stage timings.
func WithClock(c clockwork.Clock) Option {
	return func(pl *Pipeline) { pl.clock = c }
}

// WithOutput sets where progress lines go. Defaults to io.Discard.
func WithOutput(w io.Writer) Option {
	return func(pl *Pipeline) { pl.out = w }
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, t Transformer, s RecordStore, x Exporter, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		transformer: t,
		store:       s,
		exporter:    x,
		out:         io.Discard,
		clock:       clockwork.NewRealClock(),
		logger:      logger,
		metrics:     metrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pipeline once. Any stage failure aborts the run and is
// returned as a *domain.StageError. Sinks written before the failing stage
// keep their new content.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := p.clock.Now()
	p.logger.Info("pipeline started")

	var rows []domain.SourceRow
	err := p.stage(ctx, domain.StageLoad, func(ctx context.Context) error {
		var err error
		rows, err = p.extractor.Load(ctx)
		return err
	})
	if err != nil {
		return Summary{}, err
	}
	p.metrics.RowsRead.Add(float64(len(rows)))

	var records []domain.Record
	err = p.stage(ctx, domain.StageTransform, func(ctx context.Context) error {
		var err error
		records, err = p.transformer.Transform(ctx, rows)
		return err
	})
	if err != nil {
		return Summary{}, err
	}

	err = p.stage(ctx, domain.StagePersist, func(ctx context.Context) error {
		return p.store.Replace(ctx, records)
	})
	if err != nil {
		return Summary{}, err
	}
	p.metrics.RecordsStored.Add(float64(len(records)))
	p.progress(MsgPersisted)

	// The export is built from what the store holds, not from memory.
	var stored []domain.Record
	err = p.stage(ctx, domain.StageExport, func(ctx context.Context) error {
		var err error
		if stored, err = p.store.Records(ctx); err != nil {
			return err
		}
		return p.exporter.Export(ctx, stored)
	})
	if err != nil {
		return Summary{}, err
	}
	p.metrics.RecordsExported.Add(float64(len(stored)))
	p.progress(MsgExported)

	if p.publisher != nil {
		err = p.stage(ctx, domain.StagePublish, func(ctx context.Context) error {
			return p.publisher.Publish(ctx, stored)
		})
		if err != nil {
			return Summary{}, err
		}
		p.metrics.RecordsPublished.Add(float64(len(stored)))
	}

	summary := Summary{
		RowsRead: len(rows),
		Records:  len(stored),
		Skipped:  len(rows) - len(records),
		Duration: p.clock.Since(start),
	}
	p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))

	p.logger.Info("pipeline finished",
		"rows_read", summary.RowsRead,
		"records", summary.Records,
		"skipped", summary.Skipped,
		"duration", summary.Duration,
	)
	return summary, nil
}

// stage runs fn, records its duration, and wraps any error with the stage name.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	start := p.clock.Now()
	err := fn(ctx)
	elapsed := p.clock.Since(start)
	p.metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	if err != nil {
		return &domain.StageError{Stage: name, Err: err}
	}
	p.logger.Debug("stage complete", "stage", name, "duration", elapsed)
	return nil
}

func (p *Pipeline) progress(msg string) {
	fmt.Fprintln(p.out, msg)
}
