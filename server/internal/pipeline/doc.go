// Package pipeline turns one set of raw TV show features into a cluster label,
// its human-facing interpretation, and the two scaled coordinates used for
// plotting.
//
// The flow is Transform → Scale → Predict → Interpret, with Coordinates
// reading the first two scaled components:
//
//	features = (log1p(popularity), vote_average, log1p(vote_count))
//
// The feature order is a silent contract with the fitted scaler and model and
// must never change. Scaler and Model are injected capabilities; the artifact
// package provides file-backed implementations.
//
// Every Result is built fresh per call. Pipeline holds no mutable state other
// than the interpretation Table, which is safe for concurrent use and can be
// swapped wholesale when the configuration is reloaded.
package pipeline
