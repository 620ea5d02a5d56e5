// Package ports defines the contracts between the dispatch core and its
// adapters: repositories bound to a unit of work, and the outside
// collaborators (inventory fulfillment, identity, vehicle locks, event bus).
package ports
