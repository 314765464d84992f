package logging

import "context"

type debugLogKeyType int

const debugLogKeyID = debugLogKeyType(iota)

// EnableDebugMode returns a new context with debug logging state attached. Context-aware
// debug statements (`CDebug*`) are emitted for that context regardless of the logger's level.
func EnableDebugMode(ctx context.Context) context.Context {
	return context.WithValue(ctx, debugLogKeyID, true)
}

// IsDebugMode returns whether the input context has debug logging enabled.
func IsDebugMode(ctx context.Context) bool {
	enabled, _ := ctx.Value(debugLogKeyID).(bool)
	return enabled
}
