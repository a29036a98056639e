// Package api implements the JSON prediction API for tvsegment-server.
//
// New(predictor, modelPath, scalerPath) returns an http.Handler that serves:
//
//	POST /api/v1/predict   — run one show through the pipeline (PredictionResponse)
//	GET  /api/v1/clusters  — the configured interpretation table
//	GET  /api/v1/health    — artifact paths, cluster count, feature order
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 for the wrong method
//   - Tag predict responses and errors with a request_id (UUID)
//
// Predictor is shared with the HTML form in package web so both surfaces
// record the same metrics, logs, and alerts.
package api
