// Package document defines the document record model, its conversion option
// snapshot, and the lifecycle state machine every writer must respect.
package document
