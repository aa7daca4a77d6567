package app

import "github.com/bft-labs/logship/internal/domain"

// Default batch bounds of the HTTP intake.
const (
	DefaultMaxBatchCount = 1000
	DefaultMaxBatchBytes = 5_000_000
)

// BatchRecords groups records into batches of at most maxCount records and
// maxBytes cumulative bytes, preserving order. A record larger than maxBytes
// is truncated first and always ends up alone in its batch. Empty input
// yields no batches.
func BatchRecords(records []domain.Record, maxCount, maxBytes int) []*domain.Batch {
	var batches []*domain.Batch
	current := domain.NewBatch(min(len(records), maxCount))

	for _, r := range records {
		if r.Len() > maxBytes {
			r = domain.Record(Truncate(r, maxBytes))
		}

		if !current.Empty() && (current.Size() >= maxCount || current.TotalBytes+r.Len() > maxBytes) {
			batches = append(batches, current)
			current = domain.NewBatch(min(len(records), maxCount))
		}
		current.Add(r)
	}

	if !current.Empty() {
		batches = append(batches, current)
	}
	return batches
}
