// Package order provides the Order aggregate: one customer order moving
// through physical handling, from pick to delivery.
//
// The package includes:
//   - Order: the aggregate root (identity, status, run assignment, remainder linkage)
//   - Status: the status enum and its transition table
//   - Snapshot: the last known payload from the external inventory system
//
// Key business rules:
//   - Status only changes along the edges of the transition table
//   - An order is assigned to a run only while it is in delivery
//   - An issue always carries a non-empty reason
//   - A remainder order's external number is its parent's number plus RemainderSuffix
package order
