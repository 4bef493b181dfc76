// Package middleware provides the HTTP request logging and Prometheus
// metrics wrappers applied to every route.
package middleware
