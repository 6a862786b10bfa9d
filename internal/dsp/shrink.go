package dsp

import "math"

// groupScale compensates the 4096x round-trip gain of the separable 3D
// transform; it is folded into shrinkage so the coefficients only need to be
// touched once.
const groupScale = 1.0 / 4096.0

// HardThreshold zeroes every transform coefficient whose magnitude is below
// sigma and scales the survivors by groupScale. The DC coefficient (row 0,
// lane 0) is exempt: it is always retained and scaled. Returns the adaptive
// group weight, the reciprocal of the number of retained coefficients.
func HardThreshold(g *Group, sigma float32) float32 {
	nnz := 0
	for i := 0; i < 64; i++ {
		for l := 0; l < 8; l++ {
			v := g[i][l]
			thr := sigma
			if i == 0 && l == 0 {
				thr = 0
			}
			if float32(math.Abs(float64(v))) >= thr {
				nnz++
				g[i][l] = v * groupScale
			} else {
				g[i][l] = 0
			}
		}
	}
	return 1 / float32(nnz)
}

// WienerFilter attenuates the transform coefficients of g by the empirical
// Wiener gain a = r^2/(r^2 + sigma^2) computed from the basic-estimate
// spectrum ref, folding in groupScale. The DC gain is pinned to 1. Returns
// the adaptive group weight 1/sum(a^2).
func WienerFilter(g, ref *Group, sigma float32) float32 {
	var norm float32
	ss := sigma * sigma
	for i := 0; i < 64; i++ {
		for l := 0; l < 8; l++ {
			r := ref[i][l]
			sq := r * r
			var coeff float32
			if denom := sq + ss; denom > 0 {
				coeff = sq / denom
			} else {
				// r == 0 with sigma == 0: nothing to attenuate.
				coeff = 1
			}
			if i == 0 && l == 0 {
				coeff = 1
			}
			norm += coeff * coeff
			g[i][l] = g[i][l] * groupScale * coeff
		}
	}
	return 1 / norm
}

// CollaborativeHard runs the basic-estimate shrinkage on a spatial-domain
// group: forward 3D transform, hard thresholding, inverse 3D transform.
// Returns the adaptive group weight.
func CollaborativeHard(g *Group, sigma float32) float32 {
	Forward3D(g)
	w := HardThreshold(g, sigma)
	Inverse3D(g)
	return w
}

// CollaborativeWiener runs the final-estimate shrinkage: both the noisy
// group and the basic-estimate group are transformed, the noisy spectrum is
// Wiener-filtered against the basic spectrum, and the result is transformed
// back. ref is left in the transform domain. Returns the adaptive group
// weight.
func CollaborativeWiener(g, ref *Group, sigma float32) float32 {
	Forward3D(g)
	Forward3D(ref)
	w := WienerFilter(g, ref, sigma)
	Inverse3D(g)
	return w
}
