package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vizpipe/pkg/contracts/domain"
)

// PipelineConfig holds the key functions and limits a Pipeline applies.
type PipelineConfig struct {
	OuterKey        KeyFunc // groups the series, e.g. the year
	InnerKey        KeyFunc // buckets within a group, e.g. the floored rating
	Representative  KeyFunc // optional, see WithRepresentative
	SortKey         KeyFunc // drill-down order, descending
	InnerDomain     []domain.Scalar
	TopN            int // default drill-down size
	QuantileClasses int
	Join            JoinOptions
}

// DefaultPipelineConfig returns the board game ratings setup: years by
// floored average rating 0..9, top 5 by users rated, 5 choropleth classes.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		OuterKey:        YearField("year"),
		InnerKey:        FloorField("average_rating"),
		SortKey:         Field("users_rated", domain.KindNumber),
		InnerDomain:     NumberDomain(0, 9),
		TopN:            5,
		QuantileClasses: 5,
	}
}

// NumberDomain returns the whole numbers from..to inclusive
func NumberDomain(from, to int) []domain.Scalar {
	if to < from {
		return []domain.Scalar{}
	}
	keys := make([]domain.Scalar, 0, to-from+1)
	for i := from; i <= to; i++ {
		keys = append(keys, domain.Number(float64(i)))
	}
	return keys
}

// Choropleth is a joined and classified region set
type Choropleth struct {
	Targets       []domain.ClassifiedTarget `json:"targets"`
	Thresholds    []float64                 `json:"thresholds"`
	Matched       int                       `json:"matched"`
	Unmatched     []string                  `json:"unmatched"`
	DuplicateKeys []string                  `json:"duplicate_keys"`
	Skipped       []*UnparsableValueError   `json:"-"`
}

// Pipeline runs the pure operations with a fixed configuration and logs
// what they did. It holds no data and is safe for concurrent use.
type Pipeline struct {
	logger *slog.Logger
	config PipelineConfig
}

// NewPipeline creates a pipeline. Missing config fields take their defaults.
func NewPipeline(logger *slog.Logger, config PipelineConfig) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultPipelineConfig()
	if config.OuterKey == nil {
		config.OuterKey = def.OuterKey
	}
	if config.InnerKey == nil {
		config.InnerKey = def.InnerKey
	}
	if config.SortKey == nil {
		config.SortKey = def.SortKey
	}
	if config.InnerDomain == nil {
		config.InnerDomain = def.InnerDomain
	}
	if config.TopN <= 0 {
		config.TopN = def.TopN
	}
	if config.QuantileClasses <= 0 {
		config.QuantileClasses = def.QuantileClasses
	}

	return &Pipeline{
		logger: logger.With(slog.String("component", "pipeline")),
		config: config,
	}
}

// Config returns the effective configuration
func (p *Pipeline) Config() PipelineConfig {
	return p.config
}

// Series builds the grouped series, optionally restricted to outerKeys
func (p *Pipeline) Series(ctx context.Context, records []domain.Record, outerKeys ...domain.Scalar) ([]domain.OuterGroup, error) {
	opts := make([]SeriesOption, 0, 2)
	if p.config.Representative != nil {
		opts = append(opts, WithRepresentative(p.config.Representative))
	}
	if len(outerKeys) > 0 {
		opts = append(opts, WithOuterKeys(outerKeys...))
	}

	groups, err := BuildSeries(records, p.config.OuterKey, p.config.InnerKey, p.config.InnerDomain, opts...)
	if err != nil {
		p.logger.ErrorContext(ctx, "series build aborted",
			slog.Int("record_count", len(records)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("build series: %w", err)
	}

	maxCount, total := SeriesExtent(groups)
	p.logger.DebugContext(ctx, "series built",
		slog.Int("record_count", len(records)),
		slog.Int("group_count", len(groups)),
		slog.Int("max_count", maxCount),
		slog.Int("total", total))
	return groups, nil
}

// Choropleth joins source values into the targets and classifies them.
// When no target receives a value every class is NoDataClass.
func (p *Pipeline) Choropleth(ctx context.Context, targets []domain.JoinTarget, source []domain.Record) (*Choropleth, error) {
	joined := Join(targets, source, p.config.Join)

	for _, skipped := range joined.Skipped {
		p.logger.WarnContext(ctx, "join source row skipped",
			slog.Int("row", skipped.Index),
			slog.String("key", skipped.Key),
			slog.String("error", skipped.Error()))
	}
	if len(joined.DuplicateKeys) > 0 {
		p.logger.InfoContext(ctx, "duplicate join keys ignored after first match",
			slog.Any("keys", joined.DuplicateKeys))
	}

	result := &Choropleth{
		Thresholds:    []float64{},
		Matched:       joined.Matched,
		Unmatched:     joined.Unmatched,
		DuplicateKeys: joined.DuplicateKeys,
		Skipped:       joined.Skipped,
	}

	scale, err := NewQuantileScale(JoinedValues(joined.Targets), p.config.QuantileClasses)
	switch {
	case errors.Is(err, ErrEmptyScale):
		p.logger.WarnContext(ctx, "no joined values to classify",
			slog.Int("target_count", len(targets)))
		result.Targets = make([]domain.ClassifiedTarget, len(joined.Targets))
		for i, t := range joined.Targets {
			result.Targets[i] = domain.ClassifiedTarget{JoinTarget: t, Class: NoDataClass}
		}
	case err != nil:
		return nil, fmt.Errorf("quantile scale: %w", err)
	default:
		result.Targets = scale.ClassifyTargets(joined.Targets)
		result.Thresholds = scale.Thresholds()
	}

	p.logger.DebugContext(ctx, "choropleth joined",
		slog.Int("target_count", len(targets)),
		slog.Int("matched", joined.Matched),
		slog.Int("skipped", len(joined.Skipped)))
	return result, nil
}

// DrillDown returns the top records of the selected bucket. A limit <= 0
// uses the configured size.
func (p *Pipeline) DrillDown(ctx context.Context, records []domain.Record, sel domain.Selection, limit int) ([]domain.Record, error) {
	if limit <= 0 {
		limit = p.config.TopN
	}

	top, err := TopN(records, p.config.OuterKey, p.config.InnerKey, sel, limit, p.config.SortKey)
	if err != nil {
		p.logger.ErrorContext(ctx, "drill-down aborted",
			slog.String("outer", sel.Outer.String()),
			slog.String("inner", sel.Inner.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("drill down: %w", err)
	}
	return top, nil
}
