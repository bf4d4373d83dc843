// Package middleware holds the HTTP middlewares shared by the API: a zap
// access log and Prometheus request metrics keyed by chi route pattern.
package middleware
