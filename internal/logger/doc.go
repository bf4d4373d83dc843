// Package logger wraps zap with a process-wide sugared logger and context
// helpers (ToContext/FromContext/WithName/WithKV).
//
// Services and drivers take a context and log through it, so names and
// key-value pairs attached upstream (instrument, request id) follow the call.
// Setup can additionally tee all entries into a rotating JSON log file.
package logger
