package ports

import "context"

// RunNameSequenceRepository counts runs per half-day window.
type RunNameSequenceRepository interface {
	// Next locks the counter of windowKey, increments it and returns the
	// number of runs created in the window before this call.
	Next(ctx context.Context, windowKey string) (int, error)
}
