package web

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/tvsegment/tvsegment/server/internal/pipeline"
)

// Axis titles for the two plotted scaled features.
const (
	xAxisName = "Log Popularity (Normalized)"
	yAxisName = "Vote Average (Normalized)"
)

// chart handles GET /chart?x=&y=&name=.
func (h *Handler) chart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	x, errX := strconv.ParseFloat(q.Get("x"), 64)
	y, errY := strconv.ParseFloat(q.Get("y"), 64)
	if errX != nil || errY != nil || !finite(x) || !finite(y) {
		http.Error(w, "x and y must be finite numbers", http.StatusBadRequest)
		return
	}

	scatter := newScatter(pipeline.Point{X: x, Y: y}, q.Get("name"), h.pred.Radius())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := scatter.Render(w); err != nil {
		slog.Error("web: render chart", "err", err)
	}
}

// newScatter plots p alone, centred in a square window of the given radius.
func newScatter(p pipeline.Point, name string, radius float64) *charts.Scatter {
	win := pipeline.WindowAround(p, radius)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Segment position",
			Width:     "700px",
			Height:    "480px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Position of the show in the segment space",
			Subtitle: name,
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: xAxisName, Min: win.XMin, Max: win.XMax}),
		charts.WithYAxisOpts(opts.YAxis{Name: yAxisName, Min: win.YMin, Max: win.YMax}),
	)
	scatter.AddSeries("Your show",
		[]opts.ScatterData{{Value: []float64{p.X, p.Y}, SymbolSize: 20}},
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "red"}),
	)
	return scatter
}

// finite reports whether v can be plotted: not NaN, not infinite, and small
// enough that the window bounds do not overflow.
func finite(v float64) bool {
	return !math.IsNaN(v) && math.Abs(v) < maxCoordinate
}

// maxCoordinate bounds chart coordinates; scaled features sit within a few
// units of zero.
const maxCoordinate = 1e6
