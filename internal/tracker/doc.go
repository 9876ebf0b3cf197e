// Package tracker records the ordered steps of a corefleet run.
//
// A [Tracker] is a small state machine: at most one step is open at a time,
// a step may carry byte-level progress, and every step closes as done, failed
// or errored. Rendering is delegated to observers: [Console] writes the
// familiar numbered step list, [Logger] emits structured log lines,
// [HTTPCallback] posts each event to a URL and [Metrics] records step
// outcomes in a node-exporter textfile.
package tracker
