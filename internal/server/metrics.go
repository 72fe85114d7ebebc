// metrics.go - In-process counters backing the /metrics endpoint.
package server

import "sync"

// Metrics holds application metrics.
type Metrics struct {
	mu sync.RWMutex

	// Account metrics
	registrationsTotal int64
	loginAttemptsTotal int64
	loginSuccessTotal  int64
	loginFailuresTotal int64

	// Upload metrics
	uploadsTotal         int64
	uploadedFilesTotal   int64
	uploadBytesTotal     int64
	uploadsRejectedTotal int64

	// System metrics
	requestsTotal    int64
	requestErrors4xx int64
	requestErrors5xx int64
}

var globalMetrics = &Metrics{}

// GetMetrics returns the global metrics instance.
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordRegistration records a successfully created account.
func (m *Metrics) RecordRegistration() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrationsTotal++
}

// RecordLoginAttempt records a login attempt and its outcome.
func (m *Metrics) RecordLoginAttempt(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginAttemptsTotal++
	if success {
		m.loginSuccessTotal++
	} else {
		m.loginFailuresTotal++
	}
}

// RecordUpload records a stored batch: file count and total bytes.
func (m *Metrics) RecordUpload(files int, bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadsTotal++
	m.uploadedFilesTotal += int64(files)
	m.uploadBytesTotal += bytes
}

// RecordUploadRejected records a batch rejected by validation.
func (m *Metrics) RecordUploadRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadsRejectedTotal++
}

// RecordRequest records an HTTP request by response class.
func (m *Metrics) RecordRequest(statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsTotal++

	if statusCode >= 500 {
		m.requestErrors5xx++
	} else if statusCode >= 400 {
		m.requestErrors4xx++
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RegistrationsTotal int64 `json:"registrations_total"`
	LoginAttemptsTotal int64 `json:"login_attempts_total"`
	LoginSuccessTotal  int64 `json:"login_success_total"`
	LoginFailuresTotal int64 `json:"login_failures_total"`

	UploadsTotal         int64 `json:"uploads_total"`
	UploadedFilesTotal   int64 `json:"uploaded_files_total"`
	UploadBytesTotal     int64 `json:"upload_bytes_total"`
	UploadsRejectedTotal int64 `json:"uploads_rejected_total"`

	RequestsTotal    int64 `json:"requests_total"`
	RequestErrors4xx int64 `json:"request_errors_4xx"`
	RequestErrors5xx int64 `json:"request_errors_5xx"`
}

// Snapshot returns a consistent copy of the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MetricsSnapshot{
		RegistrationsTotal:   m.registrationsTotal,
		LoginAttemptsTotal:   m.loginAttemptsTotal,
		LoginSuccessTotal:    m.loginSuccessTotal,
		LoginFailuresTotal:   m.loginFailuresTotal,
		UploadsTotal:         m.uploadsTotal,
		UploadedFilesTotal:   m.uploadedFilesTotal,
		UploadBytesTotal:     m.uploadBytesTotal,
		UploadsRejectedTotal: m.uploadsRejectedTotal,
		RequestsTotal:        m.requestsTotal,
		RequestErrors4xx:     m.requestErrors4xx,
		RequestErrors5xx:     m.requestErrors5xx,
	}
}

// reset zeroes all counters. Test helper.
func (m *Metrics) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrationsTotal = 0
	m.loginAttemptsTotal = 0
	m.loginSuccessTotal = 0
	m.loginFailuresTotal = 0
	m.uploadsTotal = 0
	m.uploadedFilesTotal = 0
	m.uploadBytesTotal = 0
	m.uploadsRejectedTotal = 0
	m.requestsTotal = 0
	m.requestErrors4xx = 0
	m.requestErrors5xx = 0
}
