package pipeline

import (
	"fmt"
	"math"
)

// FeatureCount is the arity of every feature vector handed to the artifacts.
const FeatureCount = 3

// FeatureOrder names the transformed columns in the order the scaler and
// model were fitted with.
var FeatureOrder = [FeatureCount]string{"popularity_log", "vote_average", "vote_count_log"}

// Vote average bounds enforced by Transform.
const (
	MinVoteAverage = 0.0
	MaxVoteAverage = 10.0
)

// Scaler is a fitted feature scaler. Transform must not mutate its argument.
type Scaler interface {
	Transform(features []float64) ([]float64, error)
}

// Model is a fitted clustering model. Predict returns one label per sample.
type Model interface {
	Predict(samples [][]float64) ([]int, error)
}

// RawInput holds the three user-entered features of one TV show.
type RawInput struct {
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int64   `json:"vote_count"`
}

// Features is the transformed triple (popularity_log, vote_average, vote_count_log).
type Features [FeatureCount]float64

// Scaled is the scaler's output for one Features value.
type Scaled []float64

// Label is a cluster id emitted by the model.
type Label int

// Point is a position in scaled feature space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Window is the plotting viewport around a Point.
type Window struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
}

// Result is the outcome of one pipeline run.
type Result struct {
	Input          RawInput
	Features       Features
	Scaled         Scaled
	Label          Label
	Interpretation Interpretation
	Point          Point
}

// Transform applies log1p to popularity and vote count and passes vote
// average through unchanged.
func Transform(raw RawInput) (Features, error) {
	if err := validate(raw); err != nil {
		return Features{}, err
	}
	return Features{
		math.Log1p(raw.Popularity),
		raw.VoteAverage,
		math.Log1p(float64(raw.VoteCount)),
	}, nil
}

func validate(raw RawInput) error {
	switch {
	case math.IsNaN(raw.Popularity) || math.IsInf(raw.Popularity, 0):
		return &InvalidInputError{Field: "popularity", Value: raw.Popularity, Reason: "must be finite"}
	case raw.Popularity < 0:
		return &InvalidInputError{Field: "popularity", Value: raw.Popularity, Reason: "must not be negative"}
	case math.IsNaN(raw.VoteAverage) || raw.VoteAverage < MinVoteAverage || raw.VoteAverage > MaxVoteAverage:
		return &InvalidInputError{Field: "vote_average", Value: raw.VoteAverage, Reason: "must be within [0, 10]"}
	case raw.VoteCount < 0:
		return &InvalidInputError{Field: "vote_count", Value: float64(raw.VoteCount), Reason: "must not be negative"}
	}
	return nil
}

// Scale passes f through the fitted scaler.
func Scale(f Features, s Scaler) (Scaled, error) {
	out, err := s.Transform(f[:])
	if err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}
	if len(out) != FeatureCount {
		return nil, mismatch("scaler returned %d features, want %d", len(out), FeatureCount)
	}
	return Scaled(out), nil
}

// Predict submits exactly one sample to the model and returns its label.
func Predict(sc Scaled, m Model) (Label, error) {
	labels, err := m.Predict([][]float64{sc})
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	if len(labels) == 0 {
		return 0, mismatch("model returned no labels for one sample")
	}
	return Label(labels[0]), nil
}

// Coordinates returns the first two scaled components verbatim.
func Coordinates(sc Scaled) Point {
	return Point{X: sc[0], Y: sc[1]}
}

// WindowAround returns a square viewport of the given radius centred on p.
func WindowAround(p Point, radius float64) Window {
	return Window{
		XMin: p.X - radius,
		XMax: p.X + radius,
		YMin: p.Y - radius,
		YMax: p.Y + radius,
	}
}

// Pipeline sequences the operations above against one set of artifacts.
type Pipeline struct {
	scaler Scaler
	model  Model
	table  *Table
}

// New creates a Pipeline. The artifacts are read-only and may be shared by
// concurrent callers.
func New(s Scaler, m Model, t *Table) *Pipeline {
	return &Pipeline{scaler: s, model: m, table: t}
}

// Table returns the interpretation table used by Run.
func (p *Pipeline) Table() *Table { return p.table }

// Run transforms, scales, predicts, and interprets raw.
func (p *Pipeline) Run(raw RawInput) (*Result, error) {
	feats, err := Transform(raw)
	if err != nil {
		return nil, err
	}
	scaled, err := Scale(feats, p.scaler)
	if err != nil {
		return nil, err
	}
	label, err := Predict(scaled, p.model)
	if err != nil {
		return nil, err
	}
	interp, err := p.table.Interpret(label)
	if err != nil {
		return nil, err
	}
	return &Result{
		Input:          raw,
		Features:       feats,
		Scaled:         scaled,
		Label:          label,
		Interpretation: interp,
		Point:          Coordinates(scaled),
	}, nil
}
