// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/scoretable/internal/adapters/repository"
	"github.com/okian/scoretable/internal/domain/model"
	"github.com/okian/scoretable/internal/domain/record"
	"github.com/okian/scoretable/internal/domain/scoring"
	"github.com/okian/scoretable/internal/domain/types"
	"github.com/okian/scoretable/pkg/logger"
	"github.com/okian/scoretable/pkg/metrics"
)

// Service implements the API dependencies for the scoring-table system.
type Service struct {
	mu sync.RWMutex

	// Core components
	tables *repository.TableCache
	engine scoring.Scorer
	loader repository.Loader

	// Configuration
	dataDir            string
	filePattern        string
	categories         []string
	radius             int
	rejectNonMonotonic bool

	// State
	started   bool
	lookups   atomic.Int64
	fallbacks atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDataDir sets the directory holding table files.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithFilePattern sets the glob used to find a category's files.
func WithFilePattern(pattern string) Option {
	return func(s *Service) {
		if pattern != "" {
			s.filePattern = pattern
		}
	}
}

// WithCategories sets the categories loaded at start.
func WithCategories(categories []string) Option {
	return func(s *Service) {
		s.categories = append([]string(nil), categories...)
	}
}

// WithRadius sets the neighborhood radius.
func WithRadius(radius int) Option {
	return func(s *Service) {
		if radius >= 0 {
			s.radius = radius
		}
	}
}

// WithRejectNonMonotonic makes table loads fail on out-of-order columns.
func WithRejectNonMonotonic(reject bool) Option {
	return func(s *Service) {
		s.rejectNonMonotonic = reject
	}
}

// WithLoader replaces the file loader, e.g. with an in-memory one.
func WithLoader(loader repository.Loader) Option {
	return func(s *Service) {
		if loader != nil {
			s.loader = loader
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dataDir: "data",
		radius:  scoring.DefaultRadius,
		logger:  nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the components and preloads the configured categories.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting scoring-table service...")

	if s.loader == nil {
		s.loader = repository.NewFileLoader(s.dataDir,
			repository.WithFilePattern(s.filePattern),
			repository.WithLoaderLogger(s.logger.Named("loader")),
			repository.WithBuildOptions(model.WithRejectNonMonotonic(s.rejectNonMonotonic)),
		)
	}
	s.tables = repository.NewTableCache(s.loader, repository.WithLogger(s.logger.Named("cache")))
	s.engine = scoring.NewEngine(scoring.WithRadius(s.radius))

	for _, category := range s.categories {
		if _, err := s.tables.Get(ctx, category); err != nil {
			metrics.RecordErrorByComponent("service", "preload")
			return fmt.Errorf("failed to preload %s: %w", category, err)
		}
	}

	s.started = true
	s.logger.Info(ctx, "scoring-table service started",
		logger.String("dataDir", s.dataDir),
		logger.Int("radius", s.radius),
		logger.Any("categories", s.categories),
		logger.Bool("rejectNonMonotonic", s.rejectNonMonotonic),
	)

	return nil
}

// Stop shuts down the service. Cached tables are dropped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.tables = nil
	s.started = false
	s.logger.Info(context.Background(), "scoring-table service stopped")
}

func (s *Service) components() (*repository.TableCache, scoring.Scorer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.tables, s.engine, nil
}

func (s *Service) table(ctx context.Context, category string) (*model.Table, error) {
	tables, _, err := s.components()
	if err != nil {
		return nil, err
	}
	return tables.Get(ctx, category)
}

// Lookup returns the score value earns in an event of category.
func (s *Service) Lookup(ctx context.Context, category, eventID string, value float64) (scoring.Result, error) {
	col, err := s.Column(ctx, category, eventID)
	if err != nil {
		return scoring.Result{}, err
	}
	return s.lookup(ctx, col, value)
}

// LookupComponents composes value from input fields of the event's kind and
// looks it up.
func (s *Service) LookupComponents(ctx context.Context, category, eventID string, components map[string]float64) (scoring.Result, error) {
	col, err := s.Column(ctx, category, eventID)
	if err != nil {
		return scoring.Result{}, err
	}
	value, err := record.FromComponents(col.Event.Kind, components)
	if err != nil {
		return scoring.Result{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	return s.lookup(ctx, col, value)
}

func (s *Service) lookup(ctx context.Context, col *model.Column, value float64) (scoring.Result, error) {
	_, engine, err := s.components()
	if err != nil {
		return scoring.Result{}, err
	}

	start := time.Now()
	res, err := engine.Lookup(ctx, col, value)
	metrics.RecordLookupLatency(float64(time.Since(start).Microseconds()) / 1000)
	s.lookups.Add(1)

	kind := col.Event.Kind.String()
	switch {
	case errors.Is(err, scoring.ErrNoUsableRows):
		metrics.RecordLookup(kind, metrics.OutcomeNoData)
		return scoring.Result{}, err
	case err != nil:
		metrics.RecordLookup(kind, metrics.OutcomeError)
		return scoring.Result{}, err
	case res.Fallback:
		s.fallbacks.Add(1)
		metrics.RecordLookup(kind, metrics.OutcomeFallback)
	default:
		metrics.RecordLookup(kind, metrics.OutcomeMatched)
	}

	s.logger.Debug(ctx, "lookup",
		logger.String("event", col.Event.ID),
		logger.Float64("query", value),
		logger.Int("score", res.Score),
		logger.Bool("fallback", res.Fallback),
	)
	return res, nil
}

// Events describes every event column of category in header order.
func (s *Service) Events(ctx context.Context, category string) ([]types.EventInfo, error) {
	t, err := s.table(ctx, category)
	if err != nil {
		return nil, err
	}
	out := make([]types.EventInfo, 0, len(t.Events))
	for _, col := range t.Columns() {
		out = append(out, types.EventInfo{
			Descriptor:     col.Event,
			Components:     col.Event.Kind.Components(),
			HigherIsBetter: col.Event.Kind.HigherIsBetter(),
			Rows:           col.Len(),
			Unparsable:     col.Unparsable,
			Monotonic:      col.Monotonic,
		})
	}
	return out, nil
}

// Column returns the candidate sequence of one event.
func (s *Service) Column(ctx context.Context, category, eventID string) (*model.Column, error) {
	t, err := s.table(ctx, category)
	if err != nil {
		return nil, err
	}
	return t.Column(eventID)
}

// Summary describes the loaded table of category.
func (s *Service) Summary(ctx context.Context, category string) (types.TableSummary, error) {
	t, err := s.table(ctx, category)
	if err != nil {
		return types.TableSummary{}, err
	}
	return summarize(t), nil
}

// Reload rebuilds category from its newest file and swaps it in.
func (s *Service) Reload(ctx context.Context, category string) (types.TableSummary, error) {
	tables, _, err := s.components()
	if err != nil {
		return types.TableSummary{}, err
	}
	t, err := tables.Reload(ctx, category)
	if err != nil {
		s.logger.Error(ctx, "table reload failed", logger.String("category", category), logger.Error(err))
		return types.TableSummary{}, err
	}
	s.logger.Info(ctx, "table reloaded", logger.String("category", category), logger.String("tableID", t.ID.String()))
	return summarize(t), nil
}

// Clean repairs a raw grid: cells cleaned, rows without numeric points
// dropped, points rendered as integers and sorted descending.
func (s *Service) Clean(ctx context.Context, g model.Grid) (model.Grid, record.Report, error) {
	if err := ctx.Err(); err != nil {
		return model.Grid{}, record.Report{}, err
	}
	out, report, err := model.CleanGrid(g)
	if err != nil {
		return model.Grid{}, record.Report{}, err
	}
	for rule, n := range report.Counts() {
		metrics.RecordCleanerRepairs(rule, n)
	}
	return out, report, nil
}

// Categories lists loaded categories and those with a file in the data
// directory.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	tables, _, err := s.components()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, c := range tables.Categories() {
		seen[c] = true
	}
	if fl, ok := s.loader.(*repository.FileLoader); ok {
		found, err := fl.Discovery().Categories()
		if err != nil {
			s.logger.Warn(ctx, "category discovery failed", logger.Error(err))
		}
		for _, c := range found {
			if repository.ValidCategory(c) {
				seen[c] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":   s.started,
		"dataDir":   s.dataDir,
		"radius":    s.radius,
		"lookups":   s.lookups.Load(),
		"fallbacks": s.fallbacks.Load(),
	}

	if s.started {
		stats["loadedCategories"] = s.tables.Categories()
		stats["cachedTables"] = s.tables.Len()
		stats["snapshotPublishedAt"] = s.tables.PublishedAt().UTC().Format(time.RFC3339)
		metrics.UpdateCachedTables(s.tables.Len())
	}

	return stats
}

func summarize(t *model.Table) types.TableSummary {
	return types.TableSummary{
		ID:          t.ID.String(),
		Category:    t.Category,
		Source:      t.Source,
		LoadedAt:    t.LoadedAt,
		PointsLabel: t.PointsLabel,
		Events:      len(t.Events),
		Stats:       t.Stats,
	}
}
