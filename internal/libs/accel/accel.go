// Package accel provides utilities for accelerated batch processing.
package accel

// DefaultBatchSize is used when a non-positive size is requested
const DefaultBatchSize = 1000

// Batch splits an index range into fixed-size contiguous batches
type Batch struct {
	size int
}

// NewBatch creates a new batch processor with the given size
func NewBatch(size int) *Batch {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Batch{size: size}
}

// Size returns the batch size
func (b *Batch) Size() int {
	return b.size
}

// Count returns the number of batches needed to cover total items
func (b *Batch) Count(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + b.size - 1) / b.size
}

// Each calls fn with the half-open [start, end) bounds of every batch over
// total items, in order. Iteration stops at the first error.
func (b *Batch) Each(total int, fn func(start, end int) error) error {
	for start := 0; start < total; start += b.size {
		end := start + b.size
		if end > total {
			end = total
		}
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}
