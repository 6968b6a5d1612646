package repo

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics of a server. Every server has its own registry, so that servers
// do not interfere with each other.
type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	chunks   prometheus.Gauge
	nodes    prometheus.Gauge
	ids      prometheus.Counter
	bytes    prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "arbor",
			Subsystem: "repo",
			Name:      "requests_total",
			Help:      "Number of HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		chunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arbor",
			Subsystem: "repo",
			Name:      "chunks",
			Help:      "Number of stored chunks.",
		}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "arbor",
			Subsystem: "repo",
			Name:      "nodes",
			Help:      "Number of nodes in stored chunks.",
		}),
		ids: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arbor",
			Subsystem: "repo",
			Name:      "ids_issued_total",
			Help:      "Number of node IDs handed out.",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "arbor",
			Subsystem: "repo",
			Name:      "stored_bytes_total",
			Help:      "Number of chunk bytes received.",
		}),
	}
	m.registry.MustRegister(m.requests, m.chunks, m.nodes, m.ids, m.bytes)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.code = code
	rec.ResponseWriter.WriteHeader(code)
}

// instrument is a middleware counting requests.
func (m *metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tmpl, err := cur.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.code)).Inc()
	})
}
