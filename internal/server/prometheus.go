// prometheus.go - Prometheus text exposition of the in-process counters.
package server

import (
	"fmt"
	"net/http"
	"strings"
)

// PrometheusExporter renders the metrics snapshot in Prometheus format.
type PrometheusExporter struct {
	version string
}

// NewPrometheusExporter creates an exporter labeling the info metric with
// the build version.
func NewPrometheusExporter(version string) *PrometheusExporter {
	if version == "" {
		version = "dev"
	}
	return &PrometheusExporter{version: version}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (p *PrometheusExporter) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		snapshot := GetMetrics().Snapshot()

		var out strings.Builder
		writeMetric := func(name, help, typ string, value int64) {
			fmt.Fprintf(&out, "# HELP %s %s\n", name, help)
			fmt.Fprintf(&out, "# TYPE %s %s\n", name, typ)
			fmt.Fprintf(&out, "%s %d\n\n", name, value)
		}

		fmt.Fprintf(&out, "# HELP imd_info Application version info\n")
		fmt.Fprintf(&out, "# TYPE imd_info gauge\n")
		fmt.Fprintf(&out, "imd_info{version=%q} 1\n\n", p.version)

		writeMetric("imd_requests_total", "Total number of HTTP requests", "counter", snapshot.RequestsTotal)
		writeMetric("imd_request_errors_4xx_total", "Total number of 4xx responses", "counter", snapshot.RequestErrors4xx)
		writeMetric("imd_request_errors_5xx_total", "Total number of 5xx responses", "counter", snapshot.RequestErrors5xx)

		writeMetric("imd_registrations_total", "Total number of registered accounts", "counter", snapshot.RegistrationsTotal)
		writeMetric("imd_login_success_total", "Total number of successful logins", "counter", snapshot.LoginSuccessTotal)
		writeMetric("imd_login_failures_total", "Total number of failed logins", "counter", snapshot.LoginFailuresTotal)

		writeMetric("imd_uploads_total", "Total number of stored upload batches", "counter", snapshot.UploadsTotal)
		writeMetric("imd_uploaded_files_total", "Total number of stored files", "counter", snapshot.UploadedFilesTotal)
		writeMetric("imd_upload_bytes_total", "Total bytes of stored files", "counter", snapshot.UploadBytesTotal)
		writeMetric("imd_uploads_rejected_total", "Total number of upload batches rejected by validation", "counter", snapshot.UploadsRejectedTotal)

		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(out.String()))
	}
}
