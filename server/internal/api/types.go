package api

import "github.com/tvsegment/tvsegment/server/internal/pipeline"

// PredictRequest is the body of POST /api/v1/predict. All three fields are
// required; pointers distinguish "missing" from zero.
type PredictRequest struct {
	Popularity  *float64 `json:"popularity"`
	VoteAverage *float64 `json:"vote_average"`
	VoteCount   *int64   `json:"vote_count"`
}

// FeaturesResponse names the transformed features.
type FeaturesResponse struct {
	PopularityLog float64 `json:"popularity_log"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCountLog  float64 `json:"vote_count_log"`
}

// PredictionResponse is the payload for POST /api/v1/predict.
type PredictionResponse struct {
	RequestID   string                  `json:"request_id"`
	Input       pipeline.RawInput       `json:"input"`
	Features    FeaturesResponse        `json:"features"`
	Scaled      []float64               `json:"scaled"`
	Cluster     pipeline.Interpretation `json:"cluster"`
	Point       pipeline.Point          `json:"point"`
	Window      pipeline.Window         `json:"window"`
	Diagnostics []DiagnosticHint        `json:"diagnostics"`
}

// ClustersResponse is the payload for GET /api/v1/clusters.
type ClustersResponse struct {
	Clusters []pipeline.Interpretation `json:"clusters"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status       string   `json:"status"`
	ModelPath    string   `json:"model_path"`
	ScalerPath   string   `json:"scaler_path"`
	Clusters     int      `json:"clusters"`
	FeatureOrder []string `json:"feature_order"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// NewPredictionResponse maps a pipeline result to its JSON representation.
// radius sizes the plotting window and the range diagnostics.
func NewPredictionResponse(id string, res *pipeline.Result, radius float64) PredictionResponse {
	return PredictionResponse{
		RequestID: id,
		Input:     res.Input,
		Features: FeaturesResponse{
			PopularityLog: res.Features[0],
			VoteAverage:   res.Features[1],
			VoteCountLog:  res.Features[2],
		},
		Scaled:      []float64(res.Scaled),
		Cluster:     res.Interpretation,
		Point:       res.Point,
		Window:      pipeline.WindowAround(res.Point, radius),
		Diagnostics: Diagnostics(res, radius),
	}
}
