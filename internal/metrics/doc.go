// Package metrics provides observability hooks for release runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never requires nil checks:
//
//	orch := pipeline.New(history, store, pipeline.WithObserver(pipeline.NewMetricsObserver(metrics.NoopRecorder{})))
//
// When a textfile path is configured the CLI swaps in a PrometheusRecorder
// backed by its own registry and writes the registry with WriteTextfile at
// exit, for pickup by a node_exporter textfile collector.
package metrics
