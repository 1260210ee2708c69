// Package aggregates defines domain-facing aggregate contracts.
//
// Contracts stay free of persistence and transport details. Each one marks a
// write boundary where invariants are enforced atomically.
package aggregates
