// Package metrics defines the Prometheus counters and histograms exported by the server.
package metrics
