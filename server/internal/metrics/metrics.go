package metrics

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// Metric names exposed at /metrics.
const (
	PredictionsTotal = "tvsegment_predictions_total"
	ErrorsTotal      = "tvsegment_prediction_errors_total"
	ClustersKnown    = "tvsegment_clusters_known"
	ArtifactsInfo    = "tvsegment_artifacts_info"
)

// Error kinds recorded under ErrorsTotal.
const (
	KindInvalidInput     = "invalid_input"
	KindUnknownLabel     = "unknown_cluster_label"
	KindArtifactMismatch = "artifact_mismatch"
	KindInternal         = "internal"
)

// Registry holds the service counters. It is safe for concurrent use.
type Registry struct {
	mu          sync.Mutex
	predictions map[string]float64 // by cluster name
	errors      map[string]float64 // by kind
	known       float64
	modelPath   string
	scalerPath  string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		predictions: make(map[string]float64),
		errors:      make(map[string]float64),
	}
}

// ObservePrediction counts one successful prediction for cluster.
func (r *Registry) ObservePrediction(cluster string) {
	r.mu.Lock()
	r.predictions[cluster]++
	r.mu.Unlock()
}

// ObserveError counts one failed prediction of the given kind.
func (r *Registry) ObserveError(kind string) {
	r.mu.Lock()
	r.errors[kind]++
	r.mu.Unlock()
}

// SetClustersKnown records the size of the interpretation table.
func (r *Registry) SetClustersKnown(n int) {
	r.mu.Lock()
	r.known = float64(n)
	r.mu.Unlock()
}

// SetArtifacts records which artifact files were loaded.
func (r *Registry) SetArtifacts(modelPath, scalerPath string) {
	r.mu.Lock()
	r.modelPath, r.scalerPath = modelPath, scalerPath
	r.mu.Unlock()
}

// Families returns the current metric families, sorted by name.
func (r *Registry) Families() []*dto.MetricFamily {
	r.mu.Lock()
	defer r.mu.Unlock()

	fams := []*dto.MetricFamily{
		counterFamily(PredictionsTotal, "Predictions served, by cluster name.", "cluster", r.predictions),
		counterFamily(ErrorsTotal, "Predictions that failed, by error kind.", "kind", r.errors),
		{
			Name:   proto.String(ClustersKnown),
			Help:   proto.String("Number of cluster labels with a configured interpretation."),
			Type:   dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(r.known)}}},
		},
	}
	if r.modelPath != "" {
		fams = append(fams, &dto.MetricFamily{
			Name: proto.String(ArtifactsInfo),
			Help: proto.String("Artifact files loaded at startup."),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Label: []*dto.LabelPair{
					labelPair("model_path", r.modelPath),
					labelPair("scaler_path", r.scalerPath),
				},
				Gauge: &dto.Gauge{Value: proto.Float64(1)},
			}},
		})
	}
	// The text encoder rejects families without samples; counters with no
	// observations yet are left out until their first increment.
	out := fams[:0]
	for _, mf := range fams {
		if len(mf.GetMetric()) > 0 {
			out = append(out, mf)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out
}

// WriteText encodes all families in the Prometheus text exposition format.
func (r *Registry) WriteText(w io.Writer) error {
	for _, mf := range r.Families() {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// ServeHTTP exposes the registry for Prometheus scrapes.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		slog.Error("metrics: encode failed", "err", err)
		http.Error(w, "encode metrics", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", string(expfmt.NewFormat(expfmt.TypeTextPlain)))
	w.Write(buf.Bytes()) //nolint:errcheck
}

// counterFamily builds one counter family with a metric per label value.
// Label values are sorted so output is stable between scrapes.
func counterFamily(name, help, label string, values map[string]float64) *dto.MetricFamily {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ms := make([]*dto.Metric, 0, len(keys))
	for _, k := range keys {
		ms = append(ms, &dto.Metric{
			Label:   []*dto.LabelPair{labelPair(label, k)},
			Counter: &dto.Counter{Value: proto.Float64(values[k])},
		})
	}
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: ms,
	}
}

func labelPair(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)}
}
