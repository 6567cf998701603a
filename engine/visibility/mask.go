package visibility

import (
	"encoding/binary"
	"sync"
)

// Mask is the per-instance visibility channel: 1 draws the instance, 0 collapses it in the vertex shader.
// The filter writes it and the frame reads it. Every write is atomic with respect to readers,
// so a frame never observes a half-updated mask.
type Mask struct {
	mu      sync.Mutex
	values  []uint32
	visible int
	dirty   bool
}

// NewMask returns a mask of n visible instances, marked dirty so the first frame uploads it.
func NewMask(n int) *Mask {
	values := make([]uint32, n)
	for i := range values {
		values[i] = 1
	}
	return &Mask{values: values, visible: n, dirty: true}
}

// Len returns the number of instances covered by the mask. It never changes.
func (m *Mask) Len() int {
	if m == nil {
		return 0
	}
	return len(m.values)
}

// At returns the visibility of instance i.
func (m *Mask) At(i int) uint32 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[i]
}

// Snapshot returns a copy of the whole mask.
func (m *Mask) Snapshot() []uint32 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint32, len(m.values))
	copy(out, m.values)
	return out
}

// VisibleCount returns how many instances are currently visible.
func (m *Mask) VisibleCount() int {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}

// Dirty reports whether the mask changed since the last ConsumeDirty.
func (m *Mask) Dirty() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// ConsumeDirty clears the dirty flag and returns the mask encoded for upload.
//
// Returns:
//   - []byte: little-endian u32 per instance, nil when clean
//   - bool: true if the mask was dirty
func (m *Mask) ConsumeDirty() ([]byte, bool) {
	if m == nil {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dirty {
		return nil, false
	}
	m.dirty = false
	return m.bytesLocked(), true
}

// Bytes returns the mask encoded for upload without touching the dirty flag.
func (m *Mask) Bytes() []byte {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bytesLocked()
}

// MarkDirty forces the next ConsumeDirty to report a change, e.g. after GPU buffers are recreated.
func (m *Mask) MarkDirty() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.dirty = true
	m.mu.Unlock()
}

// apply recomputes every entry with visible(i) under the lock and marks the mask dirty.
func (m *Mask) apply(visible func(i int) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for i := range m.values {
		if visible(i) {
			m.values[i] = 1
			count++
		} else {
			m.values[i] = 0
		}
	}
	m.visible = count
	m.dirty = true
}

func (m *Mask) bytesLocked() []byte {
	buf := make([]byte, 4*len(m.values))
	for i, v := range m.values {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}
