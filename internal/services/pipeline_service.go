package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"vizpipe/internal/config"
	"vizpipe/internal/dataprocessing"
	apperrors "vizpipe/internal/errors"
	"vizpipe/internal/infrastructure"
	"vizpipe/internal/ingest"
	"vizpipe/internal/validation"
	"vizpipe/pkg/contracts/domain"
)

// Dataset names used in logs and metrics
const (
	DatasetRatings = "ratings"
	DatasetCounts  = "counts"
	DatasetRegions = "regions"
)

// SeriesRequest selects the outer groups to build. Empty means the
// configured default groups, or all groups when none are configured.
type SeriesRequest struct {
	Outer []domain.Scalar `json:"outer"`
}

// SeriesResponse is a grouped series with its extent for axis scaling
type SeriesResponse struct {
	Groups   []domain.OuterGroup `json:"groups"`
	MaxCount int                 `json:"max_count"`
	Total    int                 `json:"total"`
}

// DrillDownRequest selects a bucket and how many of its records to return.
// A zero limit means the configured default.
type DrillDownRequest struct {
	Outer domain.Scalar `json:"outer"`
	Inner domain.Scalar `json:"inner"`
	Limit int           `json:"limit" validate:"gte=0"`
}

// DrillDownResponse holds the top records of the selected bucket
type DrillDownResponse struct {
	Selection domain.Selection `json:"selection"`
	Records   []domain.Record  `json:"records"`
}

// DatasetStats describes the loaded datasets
type DatasetStats struct {
	Loaded   bool      `json:"loaded"`
	Ratings  int       `json:"ratings"`
	Counts   int       `json:"counts"`
	Regions  int       `json:"regions"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}

type datasets struct {
	ratings  []domain.Record
	counts   []domain.Record
	regions  []domain.JoinTarget
	loadedAt time.Time
}

// PipelineService loads the datasets once and answers series, choropleth
// and drill-down queries over them. Loaded data is never mutated, so
// queries run concurrently; Load swaps in a complete new set.
type PipelineService struct {
	pipeline  *dataprocessing.Pipeline
	loader    *ingest.Loader
	validator *validation.FileValidator
	files     config.DatasetsConfig
	outerKeys []domain.Scalar
	maxTopN   int
	metrics   *infrastructure.PipelineMetrics
	logger    *slog.Logger

	mu   sync.RWMutex
	data *datasets
}

// NewPipelineService creates the service. Metrics may be nil.
func NewPipelineService(cfg *config.Config, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *PipelineService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "pipeline_service")

	outerKeys := make([]domain.Scalar, 0, len(cfg.Pipeline.OuterKeys))
	for _, k := range cfg.Pipeline.OuterKeys {
		outerKeys = append(outerKeys, domain.Number(float64(k)))
	}

	logger.Info("PipelineService initialized",
		slog.String("data_dir", cfg.Datasets.DataDir),
		slog.String("outer_field", cfg.Pipeline.OuterField),
		slog.String("inner_field", cfg.Pipeline.InnerField))

	return &PipelineService{
		pipeline:  dataprocessing.NewPipeline(logger, PipelineConfigFrom(cfg.Pipeline)),
		loader:    ingest.NewLoader(logger),
		validator: validation.NewFileValidator(logger),
		files:     cfg.Datasets,
		outerKeys: outerKeys,
		maxTopN:   cfg.Pipeline.MaxTopN,
		metrics:   metrics,
		logger:    logger,
	}
}

// PipelineConfigFrom maps the pipeline config section onto key functions
func PipelineConfigFrom(cfg config.PipelineConfig) dataprocessing.PipelineConfig {
	return dataprocessing.PipelineConfig{
		OuterKey:        dataprocessing.YearField(cfg.OuterField),
		InnerKey:        dataprocessing.FloorField(cfg.InnerField),
		SortKey:         dataprocessing.Field(cfg.SortField, domain.KindNumber),
		InnerDomain:     dataprocessing.NumberDomain(cfg.InnerMin, cfg.InnerMax),
		TopN:            cfg.TopN,
		QuantileClasses: cfg.QuantileClasses,
		Join: dataprocessing.JoinOptions{
			SourceKey:  dataprocessing.Field(cfg.SourceKeyField, domain.KindString),
			ValueField: cfg.ValueField,
		},
	}
}

// Load reads all three datasets in parallel and replaces the current set
// only when every one of them loaded
func (s *PipelineService) Load(ctx context.Context) error {
	start := time.Now()
	if err := s.validateFiles(); err != nil {
		s.logger.ErrorContext(ctx, "dataset validation failed", slog.String("error", err.Error()))
		return apperrors.NewStorageError("dataset validation failed", err)
	}
	next := &datasets{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := s.loadTable(gctx, DatasetRatings, s.files.RatingsPath(), s.files.RatingsSheet, ingest.RatingsSchema())
		next.ratings = records
		return err
	})
	g.Go(func() error {
		records, err := s.loadTable(gctx, DatasetCounts, s.files.CountsPath(), "", ingest.CountsSchema())
		next.counts = records
		return err
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		t0 := time.Now()
		targets, err := s.loader.LoadFeatureCollection(gctx, s.files.RegionsPath(), s.files.RegionKeyProperty)
		if err != nil {
			return fmt.Errorf("%s dataset: %w", DatasetRegions, err)
		}
		s.metrics.RecordDatasetLoad(gctx, DatasetRegions, time.Since(t0))
		next.regions = targets
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "dataset load failed", slog.String("error", err.Error()))
		return err
	}

	next.loadedAt = time.Now()
	s.mu.Lock()
	s.data = next
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "datasets loaded",
		slog.Int("ratings", len(next.ratings)),
		slog.Int("counts", len(next.counts)),
		slog.Int("regions", len(next.regions)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (s *PipelineService) validateFiles() error {
	if s.files.DataDir != "" {
		if err := s.validator.ValidateDataDir(s.files.DataDir); err != nil {
			return err
		}
	}
	checks := []struct {
		name string
		path string
		kind validation.DatasetKind
	}{
		{DatasetRatings, s.files.RatingsPath(), validation.KindTable},
		{DatasetCounts, s.files.CountsPath(), validation.KindTable},
		{DatasetRegions, s.files.RegionsPath(), validation.KindRegions},
	}
	for _, c := range checks {
		if err := s.validator.ValidateDataset(c.path, c.kind); err != nil {
			return fmt.Errorf("%s dataset: %w", c.name, err)
		}
	}
	return nil
}

func (s *PipelineService) loadTable(ctx context.Context, name, path, sheet string, schema ingest.Schema) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	records, err := s.loader.LoadSheet(ctx, path, sheet, schema)
	if err != nil {
		return nil, fmt.Errorf("%s dataset: %w", name, err)
	}
	s.metrics.RecordDatasetLoad(ctx, name, time.Since(start))
	return records, nil
}

// Loaded reports whether datasets are available
func (s *PipelineService) Loaded() bool {
	return s.snapshot() != nil
}

func (s *PipelineService) snapshot() *datasets {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

func (s *PipelineService) loaded() (*datasets, error) {
	data := s.snapshot()
	if data == nil {
		return nil, apperrors.ErrDatasetNotLoaded
	}
	return data, nil
}

// Series builds the grouped series over the ratings dataset
func (s *PipelineService) Series(ctx context.Context, req SeriesRequest) (*SeriesResponse, error) {
	data, err := s.loaded()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	outer := req.Outer
	if len(outer) == 0 {
		outer = s.outerKeys
	}
	keys := make([]domain.Scalar, len(outer))
	for i, k := range outer {
		keys[i] = NormalizeKey(k)
	}

	groups, err := s.pipeline.Series(ctx, data.ratings, keys...)
	s.metrics.RecordOperation(ctx, "series", time.Since(start), len(data.ratings), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	maxCount, total := dataprocessing.SeriesExtent(groups)
	return &SeriesResponse{Groups: groups, MaxCount: maxCount, Total: total}, nil
}

// Choropleth joins the counts dataset into the regions and classifies them
func (s *PipelineService) Choropleth(ctx context.Context) (*dataprocessing.Choropleth, error) {
	data, err := s.loaded()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := s.pipeline.Choropleth(ctx, data.regions, data.counts)
	s.metrics.RecordOperation(ctx, "choropleth", time.Since(start), len(data.counts), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	s.metrics.RecordJoin(ctx, len(result.Skipped), len(result.Unmatched))
	return result, nil
}

// DrillDown returns the top records of the selected bucket
func (s *PipelineService) DrillDown(ctx context.Context, req DrillDownRequest) (*DrillDownResponse, error) {
	if req.Outer.IsMissing() || req.Inner.IsMissing() {
		return nil, apperrors.NewAppValidationError("outer and inner are required")
	}
	if req.Limit < 0 || (s.maxTopN > 0 && req.Limit > s.maxTopN) {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("limit must be between 0 and %d", s.maxTopN))
	}

	data, err := s.loaded()
	if err != nil {
		return nil, err
	}

	sel := domain.Selection{Outer: NormalizeKey(req.Outer), Inner: NormalizeKey(req.Inner)}
	start := time.Now()
	records, err := s.pipeline.DrillDown(ctx, data.ratings, sel, req.Limit)
	s.metrics.RecordOperation(ctx, "drilldown", time.Since(start), len(data.ratings), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	return &DrillDownResponse{Selection: sel, Records: records}, nil
}

// Stats describes the loaded datasets
func (s *PipelineService) Stats() DatasetStats {
	data := s.snapshot()
	if data == nil {
		return DatasetStats{}
	}
	return DatasetStats{
		Loaded:   true,
		Ratings:  len(data.ratings),
		Counts:   len(data.counts),
		Regions:  len(data.regions),
		LoadedAt: data.loadedAt,
	}
}

// NormalizeKey turns numeric strings into numbers. Selections arrive from
// query strings and JSON clients as text while the configured keys are
// numeric, and scalars of different kinds never match.
func NormalizeKey(k domain.Scalar) domain.Scalar {
	str, ok := k.Str()
	if !ok {
		return k
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return k
	}
	return domain.Number(f)
}
