package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/okian/scoretable/internal/adapters/tablefile"
	"github.com/okian/scoretable/internal/domain/model"
	"github.com/okian/scoretable/pkg/logger"
	"github.com/okian/scoretable/pkg/metrics"
)

// Category names are file name prefixes, so they may not contain path or
// glob syntax, nor the underscore that ends the prefix.
var categoryName = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// ValidCategory reports whether name can be used as a category.
func ValidCategory(name string) bool {
	return categoryName.MatchString(name)
}

// FileLoader reads the newest table file of a category from a directory and
// builds it.
type FileLoader struct {
	dir       string
	pattern   string
	logger    logger.Logger
	buildOpts []model.Option
}

var _ Loader = (*FileLoader)(nil)

// NewFileLoader creates a loader over dir.
func NewFileLoader(dir string, opts ...LoaderOption) *FileLoader {
	f := &FileLoader{
		dir:     dir,
		pattern: tablefile.DefaultPattern,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Discovery returns the file discovery the loader uses.
func (f *FileLoader) Discovery() *tablefile.Discovery {
	return tablefile.NewDiscovery(f.dir, f.pattern)
}

// Load implements Loader.
func (f *FileLoader) Load(ctx context.Context, category string) (*model.Table, error) {
	if !ValidCategory(category) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	path, err := f.Discovery().Latest(category)
	if err != nil {
		metrics.RecordTableLoad(category, "not_found")
		if errors.Is(err, tablefile.ErrNoTableFile) {
			return nil, fmt.Errorf("%w: %w", ErrTableNotFound, err)
		}
		return nil, err
	}

	g, err := tablefile.ReadFile(path)
	if err != nil {
		metrics.RecordTableLoad(category, "read_error")
		return nil, fmt.Errorf("failed to read table %s: %w", path, err)
	}

	opts := append([]model.Option{model.WithSource(filepath.Base(path))}, f.buildOpts...)
	t, err := model.Build(category, g, opts...)
	if err != nil {
		metrics.RecordTableLoad(category, "build_error")
		return nil, fmt.Errorf("failed to build table %s: %w", path, err)
	}

	ms := float64(time.Since(start).Microseconds()) / 1000
	metrics.RecordTableLoad(category, "ok")
	metrics.RecordTableLoadDuration(ms)
	metrics.UpdateTableRows(category, t.Stats.Rows)
	metrics.UpdateTableEvents(category, len(t.Events))
	metrics.UpdateNonMonotonicColumns(category, len(t.Stats.NonMonotonic))
	metrics.RecordUnparsableCells(category, t.Stats.Unparsable)
	for rule, n := range t.Stats.Repairs.Counts() {
		metrics.RecordCleanerRepairs(rule, n)
	}

	f.logger.Info(ctx, "table loaded",
		logger.String("category", category),
		logger.String("file", t.Source),
		logger.String("table_id", t.ID.String()),
		logger.Int("rows", t.Stats.Rows),
		logger.Int("events", len(t.Events)),
		logger.Int("dropped_rows", t.Stats.DroppedRows),
		logger.Float64("duration_ms", ms),
	)
	for _, col := range t.Columns() {
		if !col.Monotonic {
			f.logger.Warn(ctx, "event column is not monotonic",
				logger.String("category", category), logger.String("event", col.Event.ID))
		}
		if col.Unparsable > 0 {
			f.logger.Debug(ctx, "unparsable cells excluded",
				logger.String("category", category), logger.String("event", col.Event.ID),
				logger.Int("count", col.Unparsable))
		}
	}
	return t, nil
}
