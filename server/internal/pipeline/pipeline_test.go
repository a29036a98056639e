package pipeline

import (
	"errors"
	"math"
	"testing"
)

// --- test doubles -----------------------------------------------------------

type identityScaler struct{}

func (identityScaler) Transform(x []float64) ([]float64, error) {
	out := make([]float64, len(x))
	copy(out, x)
	return out, nil
}

// affineScaler standardises each feature with its own centre and scale.
type affineScaler struct{ mean, scale []float64 }

func (s affineScaler) Transform(x []float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = (x[i] - s.mean[i]) / s.scale[i]
	}
	return out, nil
}

type shortScaler struct{}

func (shortScaler) Transform(x []float64) ([]float64, error) { return x[:2], nil }

// voteRule labels a sample 1 when its scaled vote average is positive.
type voteRule struct{ calls int }

func (m *voteRule) Predict(samples [][]float64) ([]int, error) {
	m.calls++
	out := make([]int, len(samples))
	for i, s := range samples {
		if s[1] > 0 {
			out[i] = 1
		}
	}
	return out, nil
}

type fixedModel struct{ label int }

func (m fixedModel) Predict(samples [][]float64) ([]int, error) {
	out := make([]int, len(samples))
	for i := range out {
		out[i] = m.label
	}
	return out, nil
}

type emptyModel struct{}

func (emptyModel) Predict([][]float64) ([]int, error) { return nil, nil }

type failingModel struct{}

func (failingModel) Predict([][]float64) ([]int, error) {
	return nil, errors.New("corrupt centroids")
}

func defaultTable() *Table {
	return NewTable([]Interpretation{
		{Label: 0, Name: "Niche / Hidden Gem", Color: "blue"},
		{Label: 1, Name: "Global Blockbuster", Color: "green"},
		{Label: 2, Name: "Low Traction", Color: "red"},
	})
}

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// --- Transform --------------------------------------------------------------

func TestTransform_Zeroes(t *testing.T) {
	f, err := Transform(RawInput{Popularity: 0, VoteAverage: 5.0, VoteCount: 0})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	want := Features{0, 5.0, 0}
	if f != want {
		t.Errorf("Transform: got %v, want %v", f, want)
	}
}

func TestTransform_Order(t *testing.T) {
	f, err := Transform(RawInput{Popularity: 100, VoteAverage: 9.0, VoteCount: 1000})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !almostEqual(f[0], 4.615, 0.001) {
		t.Errorf("popularity_log: got %v, want 4.615", f[0])
	}
	if f[1] != 9.0 {
		t.Errorf("vote_average: got %v, want 9.0", f[1])
	}
	if !almostEqual(f[2], 6.909, 0.001) {
		t.Errorf("vote_count_log: got %v, want 6.909", f[2])
	}
}

func TestTransform_PopularityMonotonic(t *testing.T) {
	prev := -1.0
	for _, pop := range []float64{0, 0.5, 1, 10, 10.0001, 1500.5, 1e6} {
		f, err := Transform(RawInput{Popularity: pop, VoteAverage: 7.5, VoteCount: 100})
		if err != nil {
			t.Fatalf("Transform(%v): %v", pop, err)
		}
		if f[0] < prev {
			t.Errorf("popularity %v: log %v decreased from %v", pop, f[0], prev)
		}
		prev = f[0]
	}
}

func TestTransform_RejectsOutOfDomain(t *testing.T) {
	tests := []struct {
		name  string
		in    RawInput
		field string
	}{
		{"negative popularity", RawInput{Popularity: -2, VoteAverage: 5}, "popularity"},
		{"NaN popularity", RawInput{Popularity: math.NaN(), VoteAverage: 5}, "popularity"},
		{"infinite popularity", RawInput{Popularity: math.Inf(1), VoteAverage: 5}, "popularity"},
		{"vote average above 10", RawInput{VoteAverage: 10.5}, "vote_average"},
		{"vote average below 0", RawInput{VoteAverage: -0.1}, "vote_average"},
		{"negative vote count", RawInput{VoteAverage: 5, VoteCount: -1}, "vote_count"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Transform(tc.in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err: got %v, want ErrInvalidInput", err)
			}
			var ie *InvalidInputError
			if !errors.As(err, &ie) {
				t.Fatalf("err: got %T, want *InvalidInputError", err)
			}
			if ie.Field != tc.field {
				t.Errorf("field: got %q, want %q", ie.Field, tc.field)
			}
		})
	}
}

// --- Scale / Predict --------------------------------------------------------

func TestScale_OrderSensitive(t *testing.T) {
	s := affineScaler{mean: []float64{3, 6.5, 4}, scale: []float64{1.2, 1.5, 2.0}}
	f := Features{4.6, 9.0, 6.9}
	swapped := Features{f[2], f[1], f[0]}

	a, err := Scale(f, s)
	if err != nil {
		t.Fatalf("Scale: %v", err)
	}
	b, err := Scale(swapped, s)
	if err != nil {
		t.Fatalf("Scale: %v", err)
	}
	if a[0] == b[2] && a[2] == b[0] {
		t.Errorf("swapping features did not change the scaled result: %v vs %v", a, b)
	}
	if a[0] == b[0] {
		t.Errorf("scaled[0]: got equal values %v for swapped inputs", a[0])
	}
}

func TestScale_WrongArity(t *testing.T) {
	_, err := Scale(Features{1, 2, 3}, shortScaler{})
	if !errors.Is(err, ErrArtifactMismatch) {
		t.Fatalf("err: got %v, want ErrArtifactMismatch", err)
	}
}

func TestPredict_SingleSample(t *testing.T) {
	m := &voteRule{}
	l, err := Predict(Scaled{0, 0.5, 0}, m)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if l != 1 {
		t.Errorf("label: got %d, want 1", l)
	}
	if m.calls != 1 {
		t.Errorf("model calls: got %d, want 1", m.calls)
	}
}

func TestPredict_EmptyResult(t *testing.T) {
	_, err := Predict(Scaled{0, 0, 0}, emptyModel{})
	if !errors.Is(err, ErrArtifactMismatch) {
		t.Fatalf("err: got %v, want ErrArtifactMismatch", err)
	}
}

func TestPredict_ModelErrorPropagates(t *testing.T) {
	_, err := Predict(Scaled{0, 0, 0}, failingModel{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestCoordinates(t *testing.T) {
	p := Coordinates(Scaled{1.25, -0.5, 3})
	if p.X != 1.25 || p.Y != -0.5 {
		t.Errorf("Coordinates: got %+v, want {1.25 -0.5}", p)
	}
}

func TestWindowAround(t *testing.T) {
	w := WindowAround(Point{X: 1, Y: -1}, 3)
	want := Window{XMin: -2, XMax: 4, YMin: -4, YMax: 2}
	if w != want {
		t.Errorf("WindowAround: got %+v, want %+v", w, want)
	}
}

// --- Run --------------------------------------------------------------------

func TestRun_EndToEnd(t *testing.T) {
	p := New(identityScaler{}, &voteRule{}, defaultTable())

	res, err := p.Run(RawInput{Popularity: 100, VoteAverage: 9.0, VoteCount: 1000})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Label != 1 {
		t.Errorf("label: got %d, want 1", res.Label)
	}
	if res.Interpretation.Name != "Global Blockbuster" {
		t.Errorf("name: got %q, want Global Blockbuster", res.Interpretation.Name)
	}
	for i := range res.Features {
		if res.Scaled[i] != res.Features[i] {
			t.Errorf("identity scaler changed feature %d: %v -> %v", i, res.Features[i], res.Scaled[i])
		}
	}
	if !almostEqual(res.Point.X, 4.615, 0.001) || res.Point.Y != 9.0 {
		t.Errorf("point: got %+v, want {4.615 9}", res.Point)
	}
}

func TestRun_Deterministic(t *testing.T) {
	p := New(affineScaler{mean: []float64{3, 6.5, 4}, scale: []float64{1.2, 1.5, 2.0}}, &voteRule{}, defaultTable())
	in := RawInput{Popularity: 42.7, VoteAverage: 6.1, VoteCount: 321}

	first, err := p.Run(in)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := p.Run(in)
		if err != nil {
			t.Fatalf("Run #%d: %v", i, err)
		}
		if again.Label != first.Label || again.Interpretation != first.Interpretation || again.Point != first.Point {
			t.Fatalf("Run #%d: got %+v, want %+v", i, again, first)
		}
	}
}

func TestRun_AllZeroBoundary(t *testing.T) {
	p := New(identityScaler{}, &voteRule{}, defaultTable())
	res, err := p.Run(RawInput{Popularity: 0, VoteAverage: 0, VoteCount: 0})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Label != 0 {
		t.Errorf("label: got %d, want 0", res.Label)
	}
	if res.Interpretation.Name == "" {
		t.Error("interpretation: missing name")
	}
	if len(res.Scaled) != FeatureCount {
		t.Errorf("scaled: got %d components, want %d", len(res.Scaled), FeatureCount)
	}
}

func TestRun_UnknownLabelIsAnError(t *testing.T) {
	p := New(identityScaler{}, fixedModel{label: 7}, defaultTable())
	_, err := p.Run(RawInput{Popularity: 1, VoteAverage: 1, VoteCount: 1})
	if !errors.Is(err, ErrUnknownClusterLabel) {
		t.Fatalf("err: got %v, want ErrUnknownClusterLabel", err)
	}
	var ue *UnknownLabelError
	if !errors.As(err, &ue) || ue.Label != 7 {
		t.Fatalf("err: got %v, want *UnknownLabelError{Label: 7}", err)
	}
}

func TestRun_InvalidInputStopsBeforeModel(t *testing.T) {
	m := &voteRule{}
	p := New(identityScaler{}, m, defaultTable())
	_, err := p.Run(RawInput{Popularity: -5, VoteAverage: 5, VoteCount: 1})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err: got %v, want ErrInvalidInput", err)
	}
	if m.calls != 0 {
		t.Errorf("model calls: got %d, want 0", m.calls)
	}
}
