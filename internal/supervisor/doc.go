// Package supervisor wires the Cache Engine, Service Façade, Replication
// Fanout, and Election Coordinator into one running process, and owns the
// HTTP listener's start/stop lifecycle.
package supervisor
