package bm3d

import "fmt"

// Accum holds the per-frame accumulation slabs written by a temporal
// denoising call: 2*Radius+1 slabs, one per plane of the call's temporal
// window, each consisting of a weighted-estimate plane followed by a weight
// plane.
type Accum struct {
	Data   []float32 // (2*Radius+1) * 2 * Height * Stride elements
	Width  int
	Height int
	Stride int
	Radius int
}

// NewAccum allocates a zeroed accumulation buffer for frames of the given
// geometry and a temporal half-window of radius.
func NewAccum(width, height, radius int) *Accum {
	return &Accum{
		Data:   make([]float32, (2*radius+1)*2*height*width),
		Width:  width,
		Height: height,
		Stride: width,
		Radius: radius,
	}
}

// Reset zeroes the buffer for reuse on the next frame.
func (a *Accum) Reset() {
	clear(a.Data)
}

// Slab returns the weighted-estimate and weight planes for temporal index
// z in [0, 2*Radius].
func (a *Accum) Slab(z int) (wdst, weight []float32) {
	planeSize := a.Height * a.Stride
	base := z * 2 * planeSize
	return a.Data[base : base+planeSize], a.Data[base+planeSize : base+2*planeSize]
}

// VAggregate combines the accumulation buffers of the temporal calls whose
// windows cover one output frame and produces that frame by element-wise
// division of the summed weighted estimates by the summed weights.
//
// accs[i] is the buffer written by the call centered offsets[i] frames away
// from the output frame (offset 0 is the frame's own call; offsets must lie
// in [-Radius, Radius]). Near clip edges pass the truncated list of calls
// that exist. Every pixel must have been covered by at least one call — the
// anchor schedule guarantees this whenever the frame's own call is included
// and its sigma did not disable the channel.
func VAggregate(dst *Plane, accs []*Accum, offsets []int) error {
	if !dst.valid() {
		return fmt.Errorf("%w: destination plane", ErrBadGeometry)
	}
	if len(accs) == 0 || len(accs) != len(offsets) {
		return fmt.Errorf("%w: want one offset per accumulation buffer", ErrBadGeometry)
	}
	radius := accs[0].Radius
	for i, a := range accs {
		if a == nil || a.Radius != radius ||
			a.Width != dst.Width || a.Height != dst.Height || a.Stride != dst.Stride {
			return fmt.Errorf("%w: accumulation buffer %d does not match destination", ErrBadGeometry, i)
		}
		if offsets[i] < -radius || offsets[i] > radius {
			return fmt.Errorf("%w: offset %d outside [-%d,%d]", ErrBadGeometry, offsets[i], radius, radius)
		}
	}

	width, height, stride := dst.Width, dst.Height, dst.Stride
	weightSum := make([]float32, width)

	for y := 0; y < height; y++ {
		out := dst.Pix[y*stride : y*stride+width]
		clear(out)
		clear(weightSum)
		for i, a := range accs {
			// The call at relative offset d stores the output frame at
			// temporal index radius - d of its window.
			wdst, weight := a.Slab(radius - offsets[i])
			ws := wdst[y*stride : y*stride+width]
			cs := weight[y*stride : y*stride+width]
			for x := 0; x < width; x++ {
				out[x] += ws[x]
				weightSum[x] += cs[x]
			}
		}
		for x := 0; x < width; x++ {
			out[x] /= weightSum[x]
		}
	}
	return nil
}
