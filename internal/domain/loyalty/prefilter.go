package loyalty

import (
	"github.com/bits-and-blooms/bloom/v3"
)

// prefilterFPR keeps false positives rare enough that nearly every unknown
// card is rejected without a database round trip.
const prefilterFPR = 0.001

// Prefilter is a bloom filter over registered card IDs. False positives fall
// through to the repository; false negatives cannot occur, so a card the
// filter rejects is guaranteed unregistered.
type Prefilter struct {
	filter *bloom.BloomFilter
}

// NewPrefilter builds a prefilter sized for the given card IDs. The filter
// is fixed at construction and safe for concurrent reads: cards registered
// afterwards (for example by a member-ingest run against a live database)
// are only picked up when the process restarts and warms a fresh filter.
func NewPrefilter(cardIDs []string) *Prefilter {
	n := uint(len(cardIDs))
	if n < 1024 {
		n = 1024 // floor the capacity so tiny registries still hash well
	}
	f := bloom.NewWithEstimates(n, prefilterFPR)
	for _, id := range cardIDs {
		f.AddString(id)
	}
	return &Prefilter{filter: f}
}

// MayContain reports whether cardID might be registered.
func (p *Prefilter) MayContain(cardID string) bool {
	return p.filter.TestString(cardID)
}
