// Package audit records security-relevant events without ever blocking the
// authentication flows that produce them.
//
// Events flow through an asynchronous Dispatcher into a Sink. Sinks are
// pluggable; LogSink persists into a queryable Log, and the package ships
// both an in-memory Log and a Redis-backed one. Audit failures are reported
// to the operational logger and never surface as flow errors.
package audit
