// Package kernel holds the primitives shared by every aggregate of the
// dispatch domain:
//   - UUID: validated identifier value object
//   - Identity: who is acting, either a structured account or a legacy display name
//   - Vehicle: the closed set of physical assets runs and checkouts refer to
//
// All kernel types are immutable values and safe to share between goroutines.
package kernel
