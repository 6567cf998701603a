package visibility

import "sync"

// MagnitudeSource is the read side of a built instance store.
type MagnitudeSource interface {
	// Count returns the number of instances.
	Count() int
	// MagnitudeAt returns the magnitude stored with instance i.
	MagnitudeAt(i int) float64
}

// Filter derives a Mask from a magnitude threshold.
// Hiding never removes or reorders instances; it only flips mask entries.
type Filter struct {
	mu        sync.Mutex
	source    MagnitudeSource
	mask      *Mask
	threshold float64
}

// NewFilter binds a filter to source. Passing a nil mask allocates one sized to source.
// The mask starts fully visible, which is the state of threshold 0 for non-negative magnitudes.
//
// Parameters:
//   - source: the built instance data
//   - mask: shared mask storage, or nil
//
// Returns:
//   - *Filter: the filter
func NewFilter(source MagnitudeSource, mask *Mask) *Filter {
	if mask == nil {
		n := 0
		if source != nil {
			n = source.Count()
		}
		mask = NewMask(n)
	}
	return &Filter{source: source, mask: mask}
}

// SetThreshold sets mask[i] to 1 when MagnitudeAt(i) >= threshold and to 0 otherwise, then marks the mask dirty.
// The recompute always runs and is idempotent. A nil filter, or one whose source and mask disagree on length, ignores the call.
//
// Parameters:
//   - threshold: minimum visible magnitude, inclusive
func (f *Filter) SetThreshold(threshold float64) {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.threshold = threshold
	if f.source == nil || f.source.Count() != f.mask.Len() {
		return
	}
	f.mask.apply(func(i int) bool {
		return f.source.MagnitudeAt(i) >= threshold
	})
}

// Threshold returns the last threshold passed to SetThreshold.
func (f *Filter) Threshold() float64 {
	if f == nil {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.threshold
}

// Mask returns the shared mask storage.
func (f *Filter) Mask() *Mask {
	if f == nil {
		return nil
	}
	return f.mask
}
