// Package metrics exposes the service counters and histograms in Prometheus text format.
package metrics

import (
	"fmt"
	"io"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
)

// Outcomes recorded by the flow and storage counters.
const (
	OutcomeOK       = "ok"
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeSuccess  = "success"
	OutcomePartial  = "partial"
)

// StorageCall counts one DynamoDB call by operation, table and outcome.
func StorageCall(op, table, outcome string) {
	vm.GetOrCreateCounter(fmt.Sprintf(`featurestore_dynamodb_calls_total{op=%q,table=%q,outcome=%q}`, op, table, outcome)).Inc()
}

// StorageLatency records the duration of a DynamoDB call started at start.
func StorageLatency(op, table string, start time.Time) {
	vm.GetOrCreateHistogram(fmt.Sprintf(`featurestore_dynamodb_call_duration_seconds{op=%q,table=%q}`, op, table)).UpdateDuration(start)
}

// FlowOutcome counts the result of a read or write flow (e.g. "get_single", "upsert").
func FlowOutcome(flow, outcome string) {
	vm.GetOrCreateCounter(fmt.Sprintf(`featurestore_flow_total{flow=%q,outcome=%q}`, flow, outcome)).Inc()
}

// CategoryOutcome counts a per-category result of a flow.
func CategoryOutcome(flow, category, outcome string) {
	vm.GetOrCreateCounter(fmt.Sprintf(`featurestore_category_total{flow=%q,category=%q,outcome=%q}`, flow, category, outcome)).Inc()
}

// NotifyOutcome counts one notification attempt.
func NotifyOutcome(outcome string) {
	vm.GetOrCreateCounter(fmt.Sprintf(`featurestore_notifications_total{outcome=%q}`, outcome)).Inc()
}

// HTTPRequest records one served request.
func HTTPRequest(method, route string, status int, start time.Time) {
	vm.GetOrCreateCounter(fmt.Sprintf(`featurestore_http_requests_total{method=%q,route=%q,status="%d"}`, method, route, status)).Inc()
	vm.GetOrCreateHistogram(fmt.Sprintf(`featurestore_http_request_duration_seconds{method=%q,route=%q}`, method, route)).UpdateDuration(start)
}

// Counter returns the current value of the named counter, creating it if needed.
func Counter(name string) uint64 {
	return vm.GetOrCreateCounter(name).Get()
}

// WritePrometheus writes every registered metric, plus process metrics, to w.
func WritePrometheus(w io.Writer) {
	vm.WritePrometheus(w, true)
}
