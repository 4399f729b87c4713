// Package replication implements best-effort fan-out of cache mutations
// from a primary node to its followers.
//
// Fan-out is fire-and-forget: a failed send is logged and otherwise
// ignored. It never retries and never blocks or fails the client request
// that triggered it. For a fixed follower, sends are issued in the order
// mutations were initiated; across followers or across origin nodes, no
// ordering is promised, and permanent divergence on dropped messages is an
// accepted consequence of best-effort, at-most-once delivery.
package replication
