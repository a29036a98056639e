package auth

import (
	"context"
	"crypto/subtle"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ModeAPIKey is the only mode that enforces a key.
const ModeAPIKey = "apikey"

// enforced reports whether requests must carry key.
func enforced(mode, key string) bool { return mode == ModeAPIKey && key != "" }

// APIKeyInterceptor returns a unary interceptor that rejects calls whose
// metadata value for header differs from key. header must be lowercase.
func APIKeyInterceptor(mode, header, key string) grpc.UnaryServerInterceptor {
	if !enforced(mode, key) {
		return func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, next grpc.UnaryHandler) (interface{}, error) {
			return next(ctx, req)
		}
	}
	return func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, next grpc.UnaryHandler) (interface{}, error) {
		var got string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(header); len(vals) > 0 {
				got = vals[0]
			}
		}
		if !keyMatches(got, key) {
			return nil, status.Error(codes.Unauthenticated, "invalid api key")
		}
		return next(ctx, req)
	}
}

func keyMatches(got, want string) bool {
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
