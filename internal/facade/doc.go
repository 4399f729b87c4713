// Package facade maps the HTTP/JSON API onto the cache engine and, on a
// primary with replication enabled, fans mutations out to followers
// without blocking the response already formed from the local commit.
package facade
