package dsp

// Separable 3D transform over an 8x8x8 group. The group is 64 rows of 8
// lanes: rows i*8..i*8+7 form plane i of the cube. The x axis runs along the
// lanes, the y axis down the rows of a plane, the z axis across planes.
//
// Each axis pass gathers 8 rows at a fixed stride into a block, applies the
// 1D kernel, and scatters the rows back (the fftw howmany/stride pattern).
// The x axis is handled by transposing each plane so that its lanes become
// rows.

// pack8 applies kernel to 8 rows of g at the given stride, repeated howmany
// times advancing by howmanyStride rows per iteration.
func pack8(g *Group, kernel func(*Block), stride, howmany, howmanyStride int) {
	base := 0
	for iter := 0; iter < howmany; iter++ {
		var v Block
		for i := 0; i < 8; i++ {
			v[i] = g[base+i*stride]
		}
		kernel(&v)
		for i := 0; i < 8; i++ {
			g[base+i*stride] = v[i]
		}
		base += howmanyStride
	}
}

// Forward3D applies the forward DCT along all three axes of the group.
func Forward3D(g *Group) {
	for dim := 0; dim < 2; dim++ {
		pack8(g, FDCT8, 1, 8, 8)
		pack8(g, Transpose8, 1, 8, 8)
	}
	pack8(g, FDCT8, 8, 8, 1)
}

// Inverse3D applies the inverse DCT along all three axes of the group.
// Inverse3D(Forward3D(g)) multiplies every element by 4096.
func Inverse3D(g *Group) {
	for dim := 0; dim < 2; dim++ {
		pack8(g, IDCT8, 1, 8, 8)
		pack8(g, Transpose8, 1, 8, 8)
	}
	pack8(g, IDCT8, 8, 8, 1)
}
