package repository

import "math/rand"

// Barcodes are 8-digit integers drawn uniformly from
// [10,000,000, 99,999,999].
const (
	barcodeMin = 10_000_000
	barcodeMax = 99_999_999
)

// generateBarcodes returns n distinct barcodes by rejection
// sampling: duplicates within the batch are redrawn until the batch
// holds n unique values. Global uniqueness against already persisted
// barcodes is checked separately, inside the reservation
// transaction.
func generateBarcodes(rng *rand.Rand, n int) []int64 {
	seen := make(map[int64]struct{}, n)
	out := make([]int64, 0, n)
	for len(out) < n {
		bc := barcodeMin + rng.Int63n(barcodeMax-barcodeMin+1)
		if _, ok := seen[bc]; ok {
			continue
		}
		seen[bc] = struct{}{}
		out = append(out, bc)
	}
	return out
}
