package http

import (
	"context"

	"vizpipe/internal/dataprocessing"
	"vizpipe/internal/services"
)

// PipelineServiceInterface defines the pipeline queries the handlers need
type PipelineServiceInterface interface {
	Series(ctx context.Context, req services.SeriesRequest) (*services.SeriesResponse, error)
	Choropleth(ctx context.Context) (*dataprocessing.Choropleth, error)
	DrillDown(ctx context.Context, req services.DrillDownRequest) (*services.DrillDownResponse, error)
	Stats() services.DatasetStats
}
