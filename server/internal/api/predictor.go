package api

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tvsegment/tvsegment/server/internal/alerts"
	"github.com/tvsegment/tvsegment/server/internal/metrics"
	"github.com/tvsegment/tvsegment/server/internal/pipeline"
)

// Predictor runs the pipeline and records the outcome in metrics, logs, and
// alerts. The JSON API and the HTML form share one Predictor.
type Predictor struct {
	pipe    *pipeline.Pipeline
	metrics *metrics.Registry
	alerts  *alerts.Engine
	radius  float64
}

// NewPredictor wires a Predictor. alerts may be nil.
func NewPredictor(p *pipeline.Pipeline, m *metrics.Registry, a *alerts.Engine, radius float64) *Predictor {
	return &Predictor{pipe: p, metrics: m, alerts: a, radius: radius}
}

// Pipeline returns the underlying pipeline.
func (p *Predictor) Pipeline() *pipeline.Pipeline { return p.pipe }

// Metrics returns the registry predictions are recorded in.
func (p *Predictor) Metrics() *metrics.Registry { return p.metrics }

// Radius is the half-width of the plotting window.
func (p *Predictor) Radius() float64 { return p.radius }

// Predict runs one prediction. requestID is only used for logging.
func (p *Predictor) Predict(requestID string, raw pipeline.RawInput) (*pipeline.Result, error) {
	res, err := p.pipe.Run(raw)
	if err != nil {
		p.recordError(requestID, raw, err)
		return nil, err
	}
	p.metrics.ObservePrediction(res.Interpretation.Name)
	slog.Info("prediction served",
		"request_id", requestID,
		"popularity", raw.Popularity,
		"vote_average", raw.VoteAverage,
		"vote_count", raw.VoteCount,
		"label", int(res.Label),
		"cluster", res.Interpretation.Name,
	)
	return res, nil
}

func (p *Predictor) recordError(requestID string, raw pipeline.RawInput, err error) {
	kind := ErrorKind(err)
	p.metrics.ObserveError(kind)

	switch kind {
	case metrics.KindInvalidInput:
		slog.Debug("prediction rejected", "request_id", requestID, "err", err)
		return
	case metrics.KindUnknownLabel:
		var ue *pipeline.UnknownLabelError
		key := "?"
		if errors.As(err, &ue) {
			key = fmt.Sprint(int(ue.Label))
		}
		p.fire(alerts.KindUnknownLabel, key, "warning",
			fmt.Sprintf("model emitted cluster label %s, which has no configured interpretation", key))
	case metrics.KindArtifactMismatch:
		p.fire(alerts.KindArtifactMismatch, "pipeline", "critical",
			fmt.Sprintf("artifacts do not match the feature contract: %v", err))
	}
	slog.Error("prediction failed",
		"request_id", requestID,
		"kind", kind,
		"popularity", raw.Popularity,
		"vote_average", raw.VoteAverage,
		"vote_count", raw.VoteCount,
		"err", err,
	)
}

func (p *Predictor) fire(kind, key, severity, msg string) {
	if p.alerts == nil {
		return
	}
	p.alerts.Fire(kind, key, severity, msg)
}

// ErrorKind classifies a pipeline error into a metrics kind.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrInvalidInput):
		return metrics.KindInvalidInput
	case errors.Is(err, pipeline.ErrUnknownClusterLabel):
		return metrics.KindUnknownLabel
	case errors.Is(err, pipeline.ErrArtifactMismatch):
		return metrics.KindArtifactMismatch
	default:
		return metrics.KindInternal
	}
}
