package bm3d

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constTestPlane(w, h int, v float32) *Plane {
	p := NewPlane(w, h)
	for i := range p.Pix {
		p.Pix[i] = v
	}
	return p
}

func noisyTestPlane(rng *rand.Rand, w, h int, mean, sigma float32) *Plane {
	p := NewPlane(w, h)
	for i := range p.Pix {
		p.Pix[i] = mean + float32(rng.NormFloat64())*sigma
	}
	return p
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero step", func(o *Options) { o.BlockStep = 0 }},
		{"step too big", func(o *Options) { o.BlockStep = 9 }},
		{"zero range", func(o *Options) { o.BMRange = 0 }},
		{"negative radius", func(o *Options) { o.Radius = -1 }},
		{"negative sigma", func(o *Options) { o.Sigma[0] = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(o)
			dst := []*Plane{NewPlane(16, 16)}
			src := []*Plane{constTestPlane(16, 16, 0.5)}
			err := Denoise(dst, src, o)
			require.ErrorIs(t, err, ErrBadOptions)
		})
	}
}

func TestGeometryValidation(t *testing.T) {
	o := DefaultOptions()

	err := Denoise([]*Plane{NewPlane(16, 16)}, []*Plane{NewPlane(7, 16)}, o)
	require.ErrorIs(t, err, ErrBadGeometry, "plane below 8x8")

	err = Denoise([]*Plane{NewPlane(16, 16)}, []*Plane{NewPlane(24, 16)}, o)
	require.ErrorIs(t, err, ErrBadGeometry, "mismatched dimensions")

	err = Denoise([]*Plane{NewPlane(16, 16)}, []*Plane{NewPlane(16, 16), NewPlane(16, 16)}, o)
	require.ErrorIs(t, err, ErrBadGeometry, "wrong plane count")

	o.Radius = 1
	err = Denoise([]*Plane{NewPlane(16, 16)}, []*Plane{NewPlane(16, 16)}, o)
	require.ErrorIs(t, err, ErrBadOptions, "spatial call with temporal radius")
}

func TestDenoiseConstantPlane(t *testing.T) {
	o := DefaultOptions()
	o.Sigma[0] = 25.0 / 255
	o.BMRange = 7

	src := []*Plane{constTestPlane(16, 16, 0.5)}
	dst := []*Plane{NewPlane(16, 16)}
	require.NoError(t, Denoise(dst, src, o))

	for i, v := range dst[0].Pix {
		require.InDeltaf(t, 0.5, v, 1e-6, "pixel %d", i)
	}
}

func TestDenoiseReducesNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(40))
	o := DefaultOptions()
	o.Sigma[0] = 0.05
	o.BlockStep = 4

	src := []*Plane{noisyTestPlane(rng, 32, 32, 0.5, 0.05)}
	dst := []*Plane{NewPlane(32, 32)}
	require.NoError(t, Denoise(dst, src, o))

	variance := func(p *Plane) float64 {
		var mean, sum float64
		for _, v := range p.Pix {
			mean += float64(v)
		}
		mean /= float64(len(p.Pix))
		for _, v := range p.Pix {
			d := float64(v) - mean
			sum += d * d
		}
		return sum / float64(len(p.Pix))
	}
	assert.Less(t, variance(dst[0]), variance(src[0]))
}

func TestDenoiseChromaCopiesSkippedChannel(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	o := DefaultOptions()
	o.Chroma = true
	o.Sigma = [3]float32{0.05, 0, 0.05}

	src := []*Plane{
		noisyTestPlane(rng, 16, 16, 0.5, 0.05),
		noisyTestPlane(rng, 16, 16, 0.5, 0.05),
		noisyTestPlane(rng, 16, 16, 0.5, 0.05),
	}
	dst := []*Plane{NewPlane(16, 16), NewPlane(16, 16), NewPlane(16, 16)}
	require.NoError(t, Denoise(dst, src, o))

	assert.Equal(t, src[1].Pix, dst[1].Pix, "zero-sigma channel must copy through")
	assert.NotEqual(t, src[0].Pix, dst[0].Pix, "active channel must be filtered")
}

func TestDenoiseFinalRequiresRef(t *testing.T) {
	o := DefaultOptions()
	err := DenoiseFinal([]*Plane{NewPlane(16, 16)}, []*Plane{NewPlane(16, 16)}, nil, o)
	require.ErrorIs(t, err, ErrBadOptions)
}

func TestDenoiseFinalImprovesOnBasic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	o := DefaultOptions()
	o.Sigma[0] = 0.05
	o.BlockStep = 4

	truth := constTestPlane(32, 32, 0.5)
	src := []*Plane{NewPlane(32, 32)}
	for i := range src[0].Pix {
		src[0].Pix[i] = truth.Pix[i] + float32(rng.NormFloat64())*0.05
	}

	basic := []*Plane{NewPlane(32, 32)}
	require.NoError(t, Denoise(basic, src, o))

	final := []*Plane{NewPlane(32, 32)}
	require.NoError(t, DenoiseFinal(final, src, []*Plane{truth}, o))

	rmse := func(p *Plane) float64 {
		var sum float64
		for i := range p.Pix {
			d := float64(p.Pix[i] - truth.Pix[i])
			sum += d * d
		}
		return math.Sqrt(sum / float64(len(p.Pix)))
	}
	assert.Less(t, rmse(final[0]), rmse(basic[0]))
}

func TestAccumSlabLayout(t *testing.T) {
	a := NewAccum(16, 12, 2)
	require.Len(t, a.Data, 5*2*16*12)

	wdst, weight := a.Slab(3)
	wdst[0] = 1
	weight[0] = 2
	planeSize := 16 * 12
	assert.Equal(t, float32(1), a.Data[3*2*planeSize])
	assert.Equal(t, float32(2), a.Data[3*2*planeSize+planeSize])
}

func TestVAggregateValidation(t *testing.T) {
	dst := NewPlane(16, 16)

	err := VAggregate(dst, nil, nil)
	require.ErrorIs(t, err, ErrBadGeometry)

	a := NewAccum(16, 16, 1)
	err = VAggregate(dst, []*Accum{a}, []int{2})
	require.ErrorIs(t, err, ErrBadGeometry, "offset outside window")

	b := NewAccum(8, 8, 1)
	err = VAggregate(dst, []*Accum{b}, []int{0})
	require.ErrorIs(t, err, ErrBadGeometry, "geometry mismatch")
}

// TestTemporalMatchesSpatialOnStillScene: the V-BM3D pipeline over identical
// constant frames must reproduce the spatial result after VAggregate (all
// match errors tie, so no neighbour-plane block enters a group).
func TestTemporalMatchesSpatialOnStillScene(t *testing.T) {
	const n = 3 // frames
	o := DefaultOptions()
	o.Sigma[0] = 0.05
	o.BlockStep = 4
	o.BMRange = 7

	frame := constTestPlane(16, 16, 0.625)

	spatialDst := []*Plane{NewPlane(16, 16)}
	require.NoError(t, Denoise(spatialDst, []*Plane{frame}, o))

	to := *o
	to.Radius = 1
	accs := make([]*Accum, n)
	for f := 0; f < n; f++ {
		accs[f] = NewAccum(16, 16, 1)
		// Replicate edge frames so every call sees a full window.
		stack := [][]*Plane{{frame, frame, frame}}
		require.NoError(t, DenoiseTemporal([]*Accum{accs[f]}, stack, &to))
	}

	// Aggregate the middle frame from the three calls that cover it.
	out := NewPlane(16, 16)
	require.NoError(t, VAggregate(out, []*Accum{accs[0], accs[1], accs[2]}, []int{-1, 0, 1}))

	for i := range out.Pix {
		require.InDeltaf(t, spatialDst[0].Pix[i], out.Pix[i], 1e-5, "pixel %d", i)
	}
}

func TestDenoiseTemporalValidation(t *testing.T) {
	o := DefaultOptions()
	o.Radius = 1

	frame := constTestPlane(16, 16, 0.5)
	acc := NewAccum(16, 16, 1)

	err := DenoiseTemporal([]*Accum{acc}, [][]*Plane{{frame, frame}}, o)
	require.ErrorIs(t, err, ErrBadGeometry, "short stack")

	badAcc := NewAccum(16, 16, 2)
	err = DenoiseTemporal([]*Accum{badAcc}, [][]*Plane{{frame, frame, frame}}, o)
	require.ErrorIs(t, err, ErrBadGeometry, "radius mismatch")

	o.PSNum = 0
	err = DenoiseTemporal([]*Accum{acc}, [][]*Plane{{frame, frame, frame}}, o)
	require.ErrorIs(t, err, ErrBadOptions)
}
