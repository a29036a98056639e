package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/tvsegment/tvsegment/server/internal/metrics"
	"github.com/tvsegment/tvsegment/server/internal/pipeline"
)

// maxBodyBytes caps the predict request body.
const maxBodyBytes = 1 << 16

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	pred       *Predictor
	modelPath  string
	scalerPath string
	mux        *http.ServeMux
}

// New creates a Handler around pred and registers all routes. The artifact
// paths are reported by the health endpoint.
func New(pred *Predictor, modelPath, scalerPath string) http.Handler {
	h := &Handler{
		pred:       pred,
		modelPath:  modelPath,
		scalerPath: scalerPath,
		mux:        http.NewServeMux(),
	}

	h.mux.HandleFunc("/api/v1/predict", h.predict)
	h.mux.HandleFunc("/api/v1/clusters", h.clusters)
	h.mux.HandleFunc("/api/v1/health", h.health)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// predict handles POST /api/v1/predict.
func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed", "", "")
		return
	}
	id := uuid.NewString()

	raw, err := decodePredictRequest(w, r)
	if err != nil {
		h.pred.metrics.ObserveError(metrics.KindInvalidInput)
		jsonErr(w, http.StatusBadRequest, err.Error(), metrics.KindInvalidInput, id)
		return
	}

	res, err := h.pred.Predict(id, raw)
	if err != nil {
		kind := ErrorKind(err)
		code := http.StatusInternalServerError
		if kind == metrics.KindInvalidInput {
			code = http.StatusBadRequest
		}
		jsonErr(w, code, err.Error(), kind, id)
		return
	}

	jsonResp(w, http.StatusOK, NewPredictionResponse(id, res, h.pred.Radius()))
}

// clusters handles GET /api/v1/clusters.
func (h *Handler) clusters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed", "", "")
		return
	}
	jsonResp(w, http.StatusOK, ClustersResponse{Clusters: h.pred.Pipeline().Table().Entries()})
}

// health handles GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed", "", "")
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:       "ok",
		ModelPath:    h.modelPath,
		ScalerPath:   h.scalerPath,
		Clusters:     h.pred.Pipeline().Table().Len(),
		FeatureOrder: pipeline.FeatureOrder[:],
	})
}

// --- helpers ----------------------------------------------------------------

var errMissingField = errors.New("missing field")

func decodePredictRequest(w http.ResponseWriter, r *http.Request) (pipeline.RawInput, error) {
	var req PredictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return pipeline.RawInput{}, fmt.Errorf("invalid request body: %w", err)
	}
	switch {
	case req.Popularity == nil:
		return pipeline.RawInput{}, fmt.Errorf("%w: popularity", errMissingField)
	case req.VoteAverage == nil:
		return pipeline.RawInput{}, fmt.Errorf("%w: vote_average", errMissingField)
	case req.VoteCount == nil:
		return pipeline.RawInput{}, fmt.Errorf("%w: vote_count", errMissingField)
	}
	return pipeline.RawInput{
		Popularity:  *req.Popularity,
		VoteAverage: *req.VoteAverage,
		VoteCount:   *req.VoteCount,
	}, nil
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg, kind, requestID string) {
	jsonResp(w, code, errorResponse{Error: msg, Code: kind, RequestID: requestID})
}
