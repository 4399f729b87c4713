// Package election implements the health-probe based primary election
// coordinator: every node in the cluster runs one, tracking a single
// current-primary identity, probing it on a fixed interval, and running a
// priority-ordered election over peers plus self once the primary looks
// dead.
//
// Election is not consensus. There is no quorum and no fencing: a
// transient network partition can leave more than one node believing it
// is primary. That is an accepted, documented limitation rather than a
// bug to be fixed here — see the package-level Coordinator doc for the
// state machine this implements.
package election
