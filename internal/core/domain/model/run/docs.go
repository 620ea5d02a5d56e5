// Package run provides the DeliveryRun aggregate: a batch of orders carried
// out together by one runner in one vehicle.
//
// A run is created active, holding its vehicle, and ends either completed
// (every order delivered and fulfilled upstream) or cancelled. Mutations raise
// Events that the persistence layer writes to the outbox in the same
// transaction.
package run
