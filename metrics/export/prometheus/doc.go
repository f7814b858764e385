// Package prometheus renders service counters in the Prometheus text
// exposition format without pulling in the Prometheus client library.
package prometheus
