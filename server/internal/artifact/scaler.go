package artifact

import (
	"fmt"

	"github.com/tvsegment/tvsegment/server/internal/pipeline"
)

// StandardScaler applies (x - mean) / scale per feature.
type StandardScaler struct {
	mean  []float64
	scale []float64
}

type scalerFile struct {
	header `yaml:",inline"`
	Mean   []float64 `yaml:"mean"`
	Scale  []float64 `yaml:"scale"`
}

// NewStandardScaler builds a scaler from fitted statistics. A zero scale is
// replaced by 1 so constant features pass through centred but unscaled.
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) != pipeline.FeatureCount || len(scale) != pipeline.FeatureCount {
		return nil, fmt.Errorf("%w: scaler has %d means and %d scales, want %d",
			ErrArtifactMismatch, len(mean), len(scale), pipeline.FeatureCount)
	}
	s := &StandardScaler{
		mean:  append([]float64(nil), mean...),
		scale: append([]float64(nil), scale...),
	}
	for i, v := range s.scale {
		if v == 0 {
			s.scale[i] = 1
		}
	}
	return s, nil
}

// LoadScaler reads a scaler artifact from path.
func LoadScaler(path string) (*StandardScaler, error) {
	var f scalerFile
	if err := readFile(path, &f); err != nil {
		return nil, err
	}
	switch f.Kind {
	case "standard", "":
	default:
		return nil, &MismatchError{Path: path, Reason: fmt.Sprintf("unsupported scaler kind %q", f.Kind)}
	}
	if err := checkFeatureNames(path, f.FeatureNames); err != nil {
		return nil, err
	}
	s, err := NewStandardScaler(f.Mean, f.Scale)
	if err != nil {
		return nil, &MismatchError{Path: path, Reason: err.Error()}
	}
	return s, nil
}

// Transform implements pipeline.Scaler.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.mean) {
		return nil, fmt.Errorf("%w: scaler got %d features, want %d", ErrArtifactMismatch, len(x), len(s.mean))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.mean[i]) / s.scale[i]
	}
	return out, nil
}

// Mean returns a copy of the fitted means.
func (s *StandardScaler) Mean() []float64 { return append([]float64(nil), s.mean...) }

// Scale returns a copy of the fitted scales.
func (s *StandardScaler) Scale() []float64 { return append([]float64(nil), s.scale...) }
