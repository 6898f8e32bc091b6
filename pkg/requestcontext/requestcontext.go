// Package requestcontext carries request-scoped values (request id, client
// metadata, request time and the authenticated caller) through context.Context.
package requestcontext

import (
	"context"
	"time"

	id "credvault/pkg/domain"
)

type (
	requestIDKey struct{}
	clientIPKey  struct{}
	userAgentKey struct{}
	timeKey      struct{}
	accountIDKey struct{}
	roleKey      struct{}
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// WithClientMetadata stores the resolved client IP and raw User-Agent header.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey{}).(string)
	return v
}

func UserAgent(ctx context.Context) string {
	v, _ := ctx.Value(userAgentKey{}).(string)
	return v
}

// WithTime pins "now" for everything running under ctx.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, timeKey{}, t)
}

// Now returns the request-scoped time, falling back to time.Now() outside
// of HTTP requests (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(timeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithAccount stores the authenticated caller resolved from the bearer token.
func WithAccount(ctx context.Context, accountID id.AccountID, role id.Role) context.Context {
	ctx = context.WithValue(ctx, accountIDKey{}, accountID)
	return context.WithValue(ctx, roleKey{}, role)
}

func AccountID(ctx context.Context) id.AccountID {
	v, _ := ctx.Value(accountIDKey{}).(id.AccountID)
	return v
}

func Role(ctx context.Context) id.Role {
	v, _ := ctx.Value(roleKey{}).(id.Role)
	return v
}
