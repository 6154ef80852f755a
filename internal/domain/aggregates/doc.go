// Package aggregates defines domain-facing aggregate contracts.
//
// These contracts avoid persistence and transport detail and mark the
// semantic write boundaries where invariants must hold atomically.
package aggregates
