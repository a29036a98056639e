// Package auth enforces the optional API key on the JSON API and the gRPC
// health listener.
//
// APIKeyMiddleware wraps an http.Handler; APIKeyInterceptor is a gRPC
// UnaryServerInterceptor. Both pass everything through when mode is not
// "apikey" or no key is configured, and reject a missing or wrong key
// (HTTP 401 / codes.Unauthenticated).
package auth
