package obs

import "context"

type routeInfoKey struct{}

// routeInfo is allocated before routing so inner middleware can record the
// matched chi pattern where outer middleware will still see it.
type routeInfo struct {
	pattern string
}

// WithRoutePattern stores the matched router pattern on the context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if info, ok := ctx.Value(routeInfoKey{}).(*routeInfo); ok {
		info.pattern = pattern
		return ctx
	}
	return context.WithValue(ctx, routeInfoKey{}, &routeInfo{pattern: pattern})
}

// RoutePatternFromContext extracts the route pattern from context if present.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if info, ok := ctx.Value(routeInfoKey{}).(*routeInfo); ok {
		return info.pattern
	}
	return ""
}

func withRouteSlot(ctx context.Context) context.Context {
	if _, ok := ctx.Value(routeInfoKey{}).(*routeInfo); ok {
		return ctx
	}
	return context.WithValue(ctx, routeInfoKey{}, &routeInfo{})
}
