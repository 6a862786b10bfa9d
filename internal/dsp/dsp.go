// Package dsp provides the scalar signal-processing kernels of the BM3D
// engine: the length-8 DCT-II/III pair, the 8x8 transpose, the separable 3D
// transform over an 8x8x8 group, coefficient shrinkage, and the block
// distance metric used by the matcher.
//
// A "block" is 8 rows of 8 float32 lanes; a "group" is 64 such rows (eight
// stacked blocks). All kernels are in-place and allocation-free.
package dsp

// Block is an 8x8 tile: 8 rows of 8 lanes.
type Block = [8][8]float32

// Group is an 8x8x8 cube stored as 64 rows of 8 lanes. Rows i*8..i*8+7 hold
// block i of the group.
type Group = [64][8]float32

// Kernel function variables for dispatch. These are set to the pure-Go
// implementations by init() and can be overridden by platform-specific
// implementations in the future.
var (
	// FDCT8 applies the forward length-8 DCT (DCT-II) down the rows of a
	// block, independently per lane.
	FDCT8 func(*Block)

	// IDCT8 applies the inverse length-8 DCT (DCT-III), matching FDCT8 so
	// that IDCT8(FDCT8(x)) == 16*x per lane.
	IDCT8 func(*Block)

	// Transpose8 transposes an 8x8 block in place.
	Transpose8 func(*Block)

	// BlockSSD returns the sum of squared differences between a reference
	// block and the 8x8 region of src starting at src[0] with the given
	// row stride.
	BlockSSD func(ref *Block, src []float32, stride int) float32
)

func init() {
	FDCT8 = fdct8
	IDCT8 = idct8
	Transpose8 = transpose8
	BlockSSD = blockSSD
}

// LoadBlock copies the 8x8 region of src starting at src[0] with the given
// row stride into dst.
func LoadBlock(dst *Block, src []float32, stride int) {
	for i := 0; i < 8; i++ {
		copy(dst[i][:], src[i*stride:i*stride+8])
	}
}
