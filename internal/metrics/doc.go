// Package metrics records pipeline runs as Prometheus series. The CLI is
// short-lived, so nothing is served; the registry is written to a textfile
// for node_exporter's textfile collector after each run command.
package metrics
