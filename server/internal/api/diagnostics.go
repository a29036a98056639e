package api

import (
	"fmt"
	"math"

	"github.com/tvsegment/tvsegment/server/internal/pipeline"
)

// fewVotesThreshold is the vote count below which a rating is considered
// too thin to trust.
const fewVotesThreshold = 50

// DiagnosticHint is one human-readable remark about a prediction. The form
// shows these under the result; API clients get them in the response.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning"
	Level string `json:"level"`
	// Title is a short label (≤ 5 words).
	Title string `json:"title"`
	// Detail is the full explanation.
	Detail string `json:"detail"`
	// Value is an optional numeric value associated with this hint.
	Value *float64 `json:"value,omitempty"`
}

// Diagnostics derives remarks about how much to trust res. radius is the
// plotting half-width; inputs scaled beyond it are flagged.
// Warnings come first, then info, then the all-clear.
func Diagnostics(res *pipeline.Result, radius float64) []DiagnosticHint {
	var hints []DiagnosticHint

	// ── Far from the data the scaler was fitted on ──────────────────────────
	var worst float64
	worstIdx := -1
	for i, v := range res.Scaled {
		if math.Abs(v) > math.Abs(worst) {
			worst, worstIdx = v, i
		}
	}
	if worstIdx >= 0 && math.Abs(worst) > radius {
		v := worst
		hints = append(hints, DiagnosticHint{
			Key:   "outside_fitted_range",
			Level: "warning",
			Title: "Unusual input",
			Detail: fmt.Sprintf(
				"%s lands %.1f standard deviations from the training mean. "+
					"The model still assigns the nearest cluster, but shows this far out "+
					"were rare when it was fitted, so treat the segment as a rough guess.",
				pipeline.FeatureOrder[worstIdx], math.Abs(worst),
			),
			Value: &v,
		})
	}

	// ── Thin rating ──────────────────────────────────────────────────────────
	if res.Input.VoteCount < fewVotesThreshold {
		v := float64(res.Input.VoteCount)
		hints = append(hints, DiagnosticHint{
			Key:   "few_votes",
			Level: "warning",
			Title: "Few votes",
			Detail: fmt.Sprintf(
				"The average of %.1f comes from only %d votes. "+
					"A handful of viewers can swing it a long way, which moves the show "+
					"along the rating axis more than its real reception would.",
				res.Input.VoteAverage, res.Input.VoteCount,
			),
			Value: &v,
		})
	}

	// ── No popularity signal ─────────────────────────────────────────────────
	if res.Input.Popularity == 0 {
		hints = append(hints, DiagnosticHint{
			Key:   "zero_popularity",
			Level: "info",
			Title: "No popularity score",
			Detail: "Popularity is zero, so the show sits at the very bottom of the " +
				"popularity axis. If the score is simply unknown, the segment mostly " +
				"reflects the rating and vote count.",
		})
	}

	if len(hints) == 0 {
		d := math.Hypot(res.Point.X, res.Point.Y)
		hints = append(hints, DiagnosticHint{
			Key:   "typical",
			Level: "ok",
			Title: "Typical input",
			Detail: fmt.Sprintf(
				"All three features are within the range the model was fitted on "+
					"and the rating is backed by %d votes.",
				res.Input.VoteCount,
			),
			Value: &d,
		})
	}
	return hints
}
