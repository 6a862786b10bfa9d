// Package denoise implements the per-frame BM3D denoising pass: block
// matching (spatial exhaustive and temporal predictive), group assembly,
// collaborative filtering via the dsp kernels, weighted accumulation, and
// final aggregation.
package denoise

import "math"

// matchSet records the 8 best block matches found so far for one reference
// block. Errors are kept in non-decreasing order: slot 0 holds the best
// (smallest SSD) match, slot 7 the worst. Coordinates are kept in parallel
// arrays; z is the temporal plane index (0 for spatial matching).
type matchSet struct {
	errs [8]float32
	x    [8]int32
	y    [8]int32
	z    [8]int32
}

// reset marks every slot empty. Coordinates are left as-is; a slot with a
// maximal error never survives a merge.
func (m *matchSet) reset() {
	for i := range m.errs {
		m.errs[i] = math.MaxFloat32
	}
}

// insert places a candidate into the set if it beats any current entry.
// The number of current entries strictly worse than e gives the landing
// slot directly: those entries shift one slot toward slot 7 (the worst
// falls off) and the candidate lands just above the retained better prefix.
// Ties do not displace.
func (m *matchSet) insert(e float32, x, y, z int32) {
	k := 0
	for i := 0; i < 8; i++ {
		if e < m.errs[i] {
			k++
		}
	}
	if k == 0 {
		return
	}
	land := 8 - k
	for i := 7; i > land; i-- {
		m.errs[i] = m.errs[i-1]
		m.x[i] = m.x[i-1]
		m.y[i] = m.y[i-1]
		m.z[i] = m.z[i-1]
	}
	m.errs[land] = e
	m.x[land] = x
	m.y[land] = y
	m.z[land] = z
}

// insertIfAbsent guarantees the reference block participates in its own
// group: if (x, y, z) is not already among the matched coordinates, every
// slot shifts one toward slot 7 (dropping the worst match) and the anchor is
// written at slot 0. Errors are not touched; matching is over by the time
// this runs.
func (m *matchSet) insertIfAbsent(x, y, z int32) {
	for i := 0; i < 8; i++ {
		if m.x[i] == x && m.y[i] == y && m.z[i] == z {
			return
		}
	}
	for i := 7; i > 0; i-- {
		m.x[i] = m.x[i-1]
		m.y[i] = m.y[i-1]
		m.z[i] = m.z[i-1]
	}
	m.x[0] = x
	m.y[0] = y
	m.z[0] = z
}
