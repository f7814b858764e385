// Package internaldefs holds the metric definitions shared by the
// Prometheus and OpenTelemetry exporters so both expose the same names
// and help text.
package internaldefs
