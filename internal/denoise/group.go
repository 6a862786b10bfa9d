package denoise

import "github.com/deepteams/bm3d/internal/dsp"

// loadGroup gathers the 8 matched blocks of a single plane into a group,
// in slot order (a missing anchor is put at slot 0 by insertIfAbsent).
func loadGroup(dst *dsp.Group, src []float32, stride int, m *matchSet) {
	for i := 0; i < 8; i++ {
		x := int(m.x[i])
		y := int(m.y[i])
		base := y*stride + x
		for j := 0; j < 8; j++ {
			copy(dst[i*8+j][:], src[base+j*stride:base+j*stride+8])
		}
	}
}

// loadGroupTemporal gathers matched blocks across the plane stack using the
// per-slot z index.
func loadGroupTemporal(dst *dsp.Group, srcs [][]float32, stride int, m *matchSet) {
	for i := 0; i < 8; i++ {
		x := int(m.x[i])
		y := int(m.y[i])
		src := srcs[m.z[i]]
		base := y*stride + x
		for j := 0; j < 8; j++ {
			copy(dst[i*8+j][:], src[base+j*stride:base+j*stride+8])
		}
	}
}

// accumulate scatter-adds the denoised group into the weighted-estimate and
// weight buffers: every pixel of every block gets w*value added to wdst and
// w added to weight at the block's origin.
func accumulate(wdst, weight []float32, stride int, g *dsp.Group, m *matchSet, w float32) {
	for i := 0; i < 8; i++ {
		base := int(m.y[i])*stride + int(m.x[i])
		for j := 0; j < 8; j++ {
			row := g[i*8+j]
			off := base + j*stride
			wrow := wdst[off : off+8 : off+8]
			crow := weight[off : off+8 : off+8]
			for k := 0; k < 8; k++ {
				wrow[k] += w * row[k]
				crow[k] += w
			}
		}
	}
}

// accumulateTemporal is the temporal variant of accumulate: scatter writes
// land in the per-frame slab selected by each block's z index. acc holds
// 2*radius+1 slabs of 2*height*stride floats each; within a slab the first
// height*stride floats are wdst and the second are weight.
func accumulateTemporal(acc []float32, stride, height int, g *dsp.Group, m *matchSet, w float32) {
	planeSize := height * stride
	for i := 0; i < 8; i++ {
		slab := int(m.z[i]) * planeSize * 2
		base := int(m.y[i])*stride + int(m.x[i])
		wdst := acc[slab : slab+planeSize]
		weight := acc[slab+planeSize : slab+2*planeSize]
		for j := 0; j < 8; j++ {
			row := g[i*8+j]
			off := base + j*stride
			wrow := wdst[off : off+8 : off+8]
			crow := weight[off : off+8 : off+8]
			for k := 0; k < 8; k++ {
				wrow[k] += w * row[k]
				crow[k] += w
			}
		}
	}
}

// aggregate divides the accumulated weighted estimates by the accumulated
// weights, producing the output plane. The anchor schedule guarantees every
// pixel was written at least once, so every weight is positive.
func aggregate(dst []float32, stride int, wdst, weight []float32, width, height int) {
	for row := 0; row < height; row++ {
		d := dst[row*stride : row*stride+width]
		ws := wdst[row*stride : row*stride+width]
		cs := weight[row*stride : row*stride+width]
		for col := 0; col < width; col++ {
			d[col] = ws[col] / cs[col]
		}
	}
}
