// Package metrics defines the Prometheus collectors exported by the
// photo catalog: catalog store queries, watch-root scans, extraction
// worker throughput and the notification hub.
package metrics
