package metrics

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// parse decodes exposition text the same way a Prometheus scrape would.
func parse(t *testing.T, text string) map[string]*dto.MetricFamily {
	t.Helper()
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(strings.NewReader(text))
	if err != nil {
		t.Fatalf("parse exposition: %v\n%s", err, text)
	}
	return mfs
}

func valueFor(mf *dto.MetricFamily, label, value string) float64 {
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == label && lp.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return -1
}

func TestWriteText_Counters(t *testing.T) {
	r := New()
	r.ObservePrediction("Global Blockbuster")
	r.ObservePrediction("Global Blockbuster")
	r.ObservePrediction("Low Traction")
	r.ObserveError(KindInvalidInput)
	r.SetClustersKnown(3)

	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	mfs := parse(t, buf.String())

	preds := mfs[PredictionsTotal]
	if preds == nil {
		t.Fatalf("%s missing from output:\n%s", PredictionsTotal, buf.String())
	}
	if v := valueFor(preds, "cluster", "Global Blockbuster"); v != 2 {
		t.Errorf("Global Blockbuster: got %v, want 2", v)
	}
	if v := valueFor(preds, "cluster", "Low Traction"); v != 1 {
		t.Errorf("Low Traction: got %v, want 1", v)
	}
	if v := valueFor(mfs[ErrorsTotal], "kind", KindInvalidInput); v != 1 {
		t.Errorf("invalid_input errors: got %v, want 1", v)
	}
	if g := mfs[ClustersKnown].GetMetric()[0].GetGauge().GetValue(); g != 3 {
		t.Errorf("clusters_known: got %v, want 3", g)
	}
	if _, ok := mfs[ArtifactsInfo]; ok {
		t.Errorf("%s present before SetArtifacts", ArtifactsInfo)
	}
}

func TestWriteText_ArtifactsInfo(t *testing.T) {
	r := New()
	r.SetArtifacts("artifacts/kmeans_model.yaml", "artifacts/scaler.yaml")

	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	mf := parse(t, buf.String())[ArtifactsInfo]
	if mf == nil {
		t.Fatalf("%s missing", ArtifactsInfo)
	}
	labels := map[string]string{}
	for _, lp := range mf.GetMetric()[0].GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	if labels["model_path"] != "artifacts/kmeans_model.yaml" {
		t.Errorf("model_path: got %q", labels["model_path"])
	}
}

func TestServeHTTP(t *testing.T) {
	r := New()
	r.ObservePrediction("Niche / Hidden Gem")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type: got %q, want text/plain", ct)
	}
	if !strings.Contains(rr.Body.String(), `tvsegment_predictions_total{cluster="Niche / Hidden Gem"} 1`) {
		t.Errorf("body missing prediction counter:\n%s", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status: got %d, want 405", rr.Code)
	}
}

func TestConcurrentObserve(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.ObservePrediction("Low Traction")
		}()
		go func() {
			defer wg.Done()
			r.Families()
		}()
	}
	wg.Wait()

	for _, mf := range r.Families() {
		if mf.GetName() == PredictionsTotal {
			if v := valueFor(mf, "cluster", "Low Traction"); v != 100 {
				t.Errorf("Low Traction: got %v, want 100", v)
			}
		}
	}
}

func TestServeHTTP_FreshRegistry(t *testing.T) {
	r := New()
	r.SetClustersKnown(3)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	mfs := parse(t, rr.Body.String())
	if _, ok := mfs[PredictionsTotal]; ok {
		t.Errorf("%s present before any prediction", PredictionsTotal)
	}
	if _, ok := mfs[ErrorsTotal]; ok {
		t.Errorf("%s present before any error", ErrorsTotal)
	}
	if g := mfs[ClustersKnown].GetMetric()[0].GetGauge().GetValue(); g != 3 {
		t.Errorf("clusters_known: got %v, want 3", g)
	}

	// Only one of the two counters has samples.
	r.ObservePrediction("Low Traction")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status after one prediction: got %d, want 200", rr.Code)
	}
}
