package web

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/tvsegment/tvsegment/server/internal/api"
	"github.com/tvsegment/tvsegment/server/internal/config"
	"github.com/tvsegment/tvsegment/server/internal/metrics"
	"github.com/tvsegment/tvsegment/server/internal/pipeline"
)

var pageTmpl = template.Must(template.New("page").Parse(pageHTML))

// Handler serves the form, its result page, and the chart.
type Handler struct {
	pred *api.Predictor
	form config.FormConfig
	mux  *http.ServeMux
}

// New creates a Handler. form supplies the values shown before the first
// submission.
func New(pred *api.Predictor, form config.FormConfig) http.Handler {
	h := &Handler{pred: pred, form: form, mux: http.NewServeMux()}
	h.mux.HandleFunc("/", h.index)
	h.mux.HandleFunc("/chart", h.chart)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// pageData feeds pageHTML.
type pageData struct {
	Popularity  string
	VoteAverage string
	VoteCount   string

	Error  string
	Result *resultView
}

type resultView struct {
	Name        string
	Description string
	Color       string
	Label       int
	Popularity  float64
	VoteAverage float64
	VoteCount   int64
	Hints       []api.DiagnosticHint
	ChartURL    string
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.render(w, http.StatusOK, pageData{
			Popularity:  formatFloat(h.form.Popularity),
			VoteAverage: formatFloat(h.form.VoteAverage),
			VoteCount:   strconv.FormatInt(h.form.VoteCount, 10),
		})
	case http.MethodPost:
		h.submit(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	data := pageData{
		Popularity:  r.PostFormValue("popularity"),
		VoteAverage: r.PostFormValue("vote_average"),
		VoteCount:   r.PostFormValue("vote_count"),
	}

	raw, err := parseForm(data)
	if err != nil {
		h.pred.Metrics().ObserveError(metrics.KindInvalidInput)
		data.Error = err.Error()
		h.render(w, http.StatusBadRequest, data)
		return
	}

	id := uuid.NewString()
	res, err := h.pred.Predict(id, raw)
	if err != nil {
		code := http.StatusInternalServerError
		data.Error = "Prediction failed: " + err.Error()
		if errors.Is(err, pipeline.ErrInvalidInput) {
			code = http.StatusBadRequest
			data.Error = err.Error()
		}
		h.render(w, code, data)
		return
	}

	data.Result = &resultView{
		Name:        res.Interpretation.Name,
		Description: res.Interpretation.Description,
		Color:       res.Interpretation.Color,
		Label:       int(res.Label),
		Popularity:  raw.Popularity,
		VoteAverage: raw.VoteAverage,
		VoteCount:   raw.VoteCount,
		Hints:       api.Diagnostics(res, h.pred.Radius()),
		ChartURL:    chartURL(res),
	}
	h.render(w, http.StatusOK, data)
}

func (h *Handler) render(w http.ResponseWriter, code int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := pageTmpl.Execute(w, data); err != nil {
		slog.Error("web: render page", "err", err)
	}
}

// parseForm converts the submitted strings into a RawInput. Range checks
// are left to the pipeline.
func parseForm(d pageData) (pipeline.RawInput, error) {
	pop, err := strconv.ParseFloat(strings.TrimSpace(d.Popularity), 64)
	if err != nil {
		return pipeline.RawInput{}, fmt.Errorf("popularity: %q is not a number", d.Popularity)
	}
	avg, err := strconv.ParseFloat(strings.TrimSpace(d.VoteAverage), 64)
	if err != nil {
		return pipeline.RawInput{}, fmt.Errorf("vote average: %q is not a number", d.VoteAverage)
	}
	cnt, err := strconv.ParseInt(strings.TrimSpace(d.VoteCount), 10, 64)
	if err != nil {
		return pipeline.RawInput{}, fmt.Errorf("vote count: %q is not a whole number", d.VoteCount)
	}
	return pipeline.RawInput{Popularity: pop, VoteAverage: avg, VoteCount: cnt}, nil
}

func chartURL(res *pipeline.Result) string {
	q := url.Values{}
	q.Set("x", strconv.FormatFloat(res.Point.X, 'g', -1, 64))
	q.Set("y", strconv.FormatFloat(res.Point.Y, 'g', -1, 64))
	q.Set("name", res.Interpretation.Name)
	return "/chart?" + q.Encode()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
