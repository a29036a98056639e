package artifact

import (
	"fmt"
	"path/filepath"

	"github.com/cdipaolo/goml/cluster"

	"github.com/tvsegment/tvsegment/server/internal/pipeline"
)

// KMeans is a fitted k-means model. The label of a sample is the index of its
// nearest centroid, so centroid order in the artifact defines the label space.
type KMeans struct {
	km *cluster.KMeans
}

type kmeansFile struct {
	header    `yaml:",inline"`
	Centroids [][]float64 `yaml:"centroids"`

	// CentroidsFile points at centroids persisted by goml's
	// KMeans.PersistToFile, relative to the artifact file. Used only when
	// Centroids is empty.
	CentroidsFile string `yaml:"centroids_file"`
}

// NewKMeans builds a model from fitted centroids.
func NewKMeans(centroids [][]float64) (*KMeans, error) {
	km := cluster.NewKMeans(len(centroids), 0, nil)
	km.Centroids = centroids
	if err := checkCentroids(km.Centroids); err != nil {
		return nil, err
	}
	return &KMeans{km: km}, nil
}

// LoadKMeans reads a k-means artifact from path.
func LoadKMeans(path string) (*KMeans, error) {
	var f kmeansFile
	if err := readFile(path, &f); err != nil {
		return nil, err
	}
	switch f.Kind {
	case "kmeans", "":
	default:
		return nil, &MismatchError{Path: path, Reason: fmt.Sprintf("unsupported model kind %q", f.Kind)}
	}
	if err := checkFeatureNames(path, f.FeatureNames); err != nil {
		return nil, err
	}

	if len(f.Centroids) == 0 && f.CentroidsFile != "" {
		return restoreKMeans(path, f.CentroidsFile)
	}

	m, err := NewKMeans(f.Centroids)
	if err != nil {
		return nil, &MismatchError{Path: path, Reason: err.Error()}
	}
	return m, nil
}

func restoreKMeans(path, centroidsFile string) (*KMeans, error) {
	if !filepath.IsAbs(centroidsFile) {
		centroidsFile = filepath.Join(filepath.Dir(path), centroidsFile)
	}
	km := cluster.NewKMeans(0, 0, nil)
	if err := km.RestoreFromFile(centroidsFile); err != nil {
		return nil, fmt.Errorf("artifact: restore centroids %q: %w", centroidsFile, err)
	}
	if err := checkCentroids(km.Centroids); err != nil {
		return nil, &MismatchError{Path: centroidsFile, Reason: err.Error()}
	}
	return &KMeans{km: km}, nil
}

func checkCentroids(c [][]float64) error {
	if len(c) == 0 {
		return fmt.Errorf("%w: model has no centroids", ErrArtifactMismatch)
	}
	for i, row := range c {
		if len(row) != pipeline.FeatureCount {
			return fmt.Errorf("%w: centroid %d has %d features, want %d",
				ErrArtifactMismatch, i, len(row), pipeline.FeatureCount)
		}
	}
	return nil
}

// Predict implements pipeline.Model.
func (m *KMeans) Predict(samples [][]float64) ([]int, error) {
	out := make([]int, 0, len(samples))
	for i, s := range samples {
		// goml may normalise in place; hand it a copy.
		x := append([]float64(nil), s...)
		guess, err := m.km.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("%w: sample %d: %v", ErrArtifactMismatch, i, err)
		}
		out = append(out, int(guess[0]))
	}
	return out, nil
}

// Clusters returns the number of centroids, which is also the size of the
// label space the model can emit.
func (m *KMeans) Clusters() int { return len(m.km.Centroids) }

// Labels enumerates every label the model can emit.
func (m *KMeans) Labels() []pipeline.Label {
	out := make([]pipeline.Label, m.Clusters())
	for i := range out {
		out[i] = pipeline.Label(i)
	}
	return out
}
