// Package ipc provides daemon control over a Unix domain socket using
// JSON-RPC. The CLI is its only intended client.
package ipc
