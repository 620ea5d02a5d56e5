// Package services holds domain logic that does not belong to a single
// aggregate:
//   - RunName and WindowKey derive cosmetic run names from the half-day window
//   - RemainderCalculator works out which lines of an order were not picked
package services
