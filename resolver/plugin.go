package resolver

import "context"

// Plugin is the boundary contract a JS/WASM subsystem implements (spec
// §4.2 "Interceptors and plugins"): `@before`/`@around`/`@after`/
// `@precheck` handlers and any `@postgres`-adjacent custom resolver
// bodies all cross this one interface, so the Go resolver never knows
// or cares which runtime hosts the handler.
//
// Invoke runs the named handler with its bound arguments (self, the
// operation's already-resolved input, and the handler's own declared
// args) and returns its result as a plain Go value (map/slice/scalar),
// ready to splice into the GraphQL response or, for `@before`/
// `@precheck`, to be interpreted as a pass/fail per exocore's user
// runtime error convention (exocore.UserRuntimeError signals a
// deliberate rejection; any other error is an InternalError).
type Plugin interface {
	Invoke(ctx context.Context, fn string, args map[string]any) (any, error)
}

// NoPlugin is a Plugin that refuses every call; installed by default so
// a deployment that declares `@before`/`@around` annotations without
// configuring a plugin runtime fails loudly at call time instead of
// silently skipping the handler.
type NoPlugin struct{}

func (NoPlugin) Invoke(ctx context.Context, fn string, args map[string]any) (any, error) {
	return nil, &pluginNotConfiguredError{fn: fn}
}

type pluginNotConfiguredError struct{ fn string }

func (e *pluginNotConfiguredError) Error() string {
	return "resolver: no plugin runtime configured to invoke " + e.fn
}
