// Package telemetry builds the OpenTelemetry tracer provider for coven-account.
//
// The resolver and the HTTP handlers start spans through the global provider.
// serve installs the provider built here before constructing the gateway and
// shuts it down on exit, flushing any spans still buffered.
package telemetry
