// Package metrics defines the Prometheus collectors for photo batches,
// outbound requests and downloaded bytes.
package metrics
