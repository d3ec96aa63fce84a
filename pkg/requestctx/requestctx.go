// Package requestctx carries request-scoped values (ids, route, caller) on a context.Context.
package requestctx

import "context"

type key string

const (
	RequestIDKey = key("X-Request-Id")
	MethodKey    = key("X-Method")
	RouteKey     = key("X-Route")
	RemoteIPKey  = key("X-Remote-Ip")
	UserIDKey    = key("X-User-Id")
)

func get(ctx context.Context, k key) string {
	value, _ := ctx.Value(k).(string)
	return value
}

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	return get(ctx, RequestIDKey)
}

func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func GetUserID(ctx context.Context) string {
	return get(ctx, UserIDKey)
}

func SetMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, MethodKey, method)
}

func GetMethod(ctx context.Context) string {
	return get(ctx, MethodKey)
}

func SetRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, RouteKey, route)
}

func GetRoute(ctx context.Context) string {
	return get(ctx, RouteKey)
}

func SetRemoteIP(ctx context.Context, remoteIP string) context.Context {
	return context.WithValue(ctx, RemoteIPKey, remoteIP)
}

func GetRemoteIP(ctx context.Context) string {
	return get(ctx, RemoteIPKey)
}

// Fields returns the values set on ctx as log fields, skipping empty ones.
func Fields(ctx context.Context) map[string]any {
	fields := map[string]any{}
	for name, k := range map[string]key{
		"request_id": RequestIDKey,
		"method":     MethodKey,
		"route":      RouteKey,
		"remote_ip":  RemoteIPKey,
		"user_id":    UserIDKey,
	} {
		if v := get(ctx, k); v != "" {
			fields[name] = v
		}
	}
	return fields
}
