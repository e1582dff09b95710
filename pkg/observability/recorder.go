package observability

import (
	"time"
)

// Recorder receives the service's operational measurements. Implementations must be safe for
// concurrent use and must never block or fail the caller.
type Recorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
	RecordStoreOperation(operation, store string, duration time.Duration, err error)
	RecordQuery(queryType string, duration time.Duration, err error)
	RecordAnalysis(analysisType string, duration time.Duration, resultSize int)
	RecordGraphSize(nodes, edges, dropped int)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) RecordHTTPRequest(string, string, int, time.Duration)      {}
func (NopRecorder) RecordStoreOperation(string, string, time.Duration, error) {}
func (NopRecorder) RecordQuery(string, time.Duration, error)                  {}
func (NopRecorder) RecordAnalysis(string, time.Duration, int)                 {}
func (NopRecorder) RecordGraphSize(int, int, int)                             {}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
