package denoise

import "github.com/deepteams/bm3d/internal/dsp"

// matchSpatial runs the exhaustive spatial search: every block whose origin
// lies within the candidate rectangle of half-side bmRange around (x, y),
// clamped to the plane, is scored against ref by SSD and offered to the
// match set. The set is mutated in place so repeated calls accumulate.
// All accepted coordinates are tagged with plane index z.
func matchSpatial(m *matchSet, ref *dsp.Block, src []float32, stride, width, height, bmRange, x, y int, z int32) {
	left := max(x-bmRange, 0)
	right := min(x+bmRange, width-8)
	top := max(y-bmRange, 0)
	bottom := min(y+bmRange, height-8)

	for row := top; row <= bottom; row++ {
		base := row * stride
		for col := left; col <= right; col++ {
			e := dsp.BlockSSD(ref, src[base+col:], stride)
			m.insert(e, int32(col), int32(row), z)
		}
	}
}

// matchTemporal extends the search across a stack of 2*radius+1 planes with
// the reference at the center. The center plane is searched exhaustively;
// each neighboring plane is searched predictively: psNum narrow searches of
// half-side psRange, seeded at the top psNum coordinates found in the
// previous plane (the center result seeds the first plane out in each
// direction). The best psNum per-plane results are merged into the global
// set.
func matchTemporal(m *matchSet, ref *dsp.Block, srcs [][]float32, stride, width, height, bmRange, x, y, radius, psNum, psRange int) {
	center := radius

	matchSpatial(m, ref, srcs[center], stride, width, height, bmRange, x, y, int32(center))

	centerX := m.x
	centerY := m.y

	for _, direction := range [2]int{-1, 1} {
		lastX := centerX
		lastY := centerY
		for t := 1; t <= radius; t++ {
			z := center + direction*t

			var frame matchSet
			frame.reset()
			for i := 0; i < psNum; i++ {
				matchSpatial(&frame, ref, srcs[z], stride, width, height,
					psRange, int(lastX[i]), int(lastY[i]), int32(z))
			}
			for i := 0; i < psNum; i++ {
				m.insert(frame.errs[i], frame.x[i], frame.y[i], int32(z))
			}

			lastX = frame.x
			lastY = frame.y
		}
	}
}
