// Package config loads the service configuration from config.yaml.
//
// Sections:
//   - server     — http_port (default 8501), grpc_port (default 50051, -1 disables),
//     auth{mode apikey|none, key_env, header (default "x-api-key")}
//   - artifacts  — dir (default "artifacts"), model_file, scaler_file
//   - clusters   — label → name, description, color; defaults to the three
//     interpretations of the reference model when omitted
//   - form       — initial popularity (10), vote_average (7.5), vote_count (100)
//   - plot       — radius of the viewing window around the input (default 3)
//   - alerts     — cooldown (default 15m) and webhooks [{type, url_env}]
//   - log        — level debug|info|warn|error
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, onChange) re-parses the file on every write via fsnotify;
// the server uses it to swap the cluster table without a restart.
package config
