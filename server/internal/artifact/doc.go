// Package artifact loads the fitted scaler and k-means model from disk.
//
// Both files are YAML (JSON is accepted too):
//
//	kind: standard                 kind: kmeans
//	feature_names: [...]           feature_names: [...]
//	mean: [m0, m1, m2]             centroids: [[...], [...], [...]]
//	scale: [s0, s1, s2]
//
// feature_names, when present, must equal pipeline.FeatureOrder; every vector
// must have pipeline.FeatureCount components. Violations fail at load time
// with *MismatchError. A k-means file may instead reference centroids saved
// by goml's PersistToFile via centroids_file.
//
// Load resolves each file against Paths.Dir, then Paths.Fallback (the server
// passes the executable's directory). A file found nowhere yields
// *MissingError naming the file and the directory it was expected in.
//
// Cache memoises one Set per process. Loaded artifacts are never mutated and
// may be shared by concurrent requests without locking.
package artifact
