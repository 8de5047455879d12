// Package metrics records build and serve metrics for static-builder.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	recorder := metrics.Recorder(metrics.NoopRecorder{})
//	if cfg.Serve.Metrics {
//	    reg := prom.NewRegistry()
//	    recorder = metrics.NewPrometheusRecorder(reg)
//	    router.Handle("/metrics", metrics.HTTPHandler(reg))
//	}
package metrics
