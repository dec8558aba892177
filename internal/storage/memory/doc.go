// Package memory holds the authoritative in-process state of rostervault.
//
// State is three independent collections:
//
//   - Records: engagements keyed by ID
//   - Instructors: set of instructor names
//   - Hosts: set of host names
//
// Each collection has its own mutex. Callers get short-lived exclusive
// access through With, or through the helpers built on it. Nothing in this
// package performs IO while a lock is held.
//
// Lock ordering:
//
// Code that holds more than one collection at once must acquire them in the
// order Records, Instructors, Hosts. LockAll follows the same order.
package memory
