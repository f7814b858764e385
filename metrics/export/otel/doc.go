// Package otel publishes service counters through the OpenTelemetry
// metric API using observable instruments, so collection happens on the
// reader's schedule rather than per operation.
package otel
