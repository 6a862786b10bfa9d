// Package bm3d implements the BM3D and V-BM3D denoising algorithms on
// single-precision float planes: self-similar 8x8 blocks are grouped by
// block matching, jointly transformed into a sparse 3D spectral domain,
// shrunk (hard thresholding for the basic estimate, empirical Wiener
// filtering for the final estimate), and aggregated back with per-group
// adaptive weights.
//
// Reference:
// K. Dabov, A. Foi, V. Katkovnik and K. Egiazarian,
// "Image Denoising by Sparse 3-D Transform-Domain Collaborative Filtering,"
// IEEE Transactions on Image Processing, vol. 16, no. 8, 2007.
// K. Dabov, A. Foi and K. Egiazarian,
// "Video denoising by sparse 3D transform-domain collaborative filtering,"
// EUSIPCO 2007.
package bm3d

import (
	"errors"
	"fmt"

	"github.com/deepteams/bm3d/internal/denoise"
	"github.com/deepteams/bm3d/internal/pool"
)

// Errors returned by the validation layer.
var (
	ErrBadGeometry = errors.New("bm3d: bad plane geometry")
	ErrBadOptions  = errors.New("bm3d: bad options")
)

const (
	// sigmaEpsilon mirrors the single-precision machine epsilon; chroma
	// channels with sigma at or below it are skipped (see Options.Sigma).
	sigmaEpsilon = 1.1920929e-7

	// coefGain is the per-coefficient amplitude gain of the separable 3D
	// transform (4 per dimension). Sigma in intensity units is multiplied
	// by it to land in the coefficient domain the shrinkage kernels
	// compare against.
	coefGain = 64

	// hardLambda is the standard hard-threshold multiplier on sigma for
	// the basic estimate.
	hardLambda = 2.7
)

// Options configures a denoising pass. The zero value is not usable; start
// from DefaultOptions.
type Options struct {
	// Sigma is the noise standard deviation per channel, in the same unit
	// as the pixel intensities. In chroma mode a channel with sigma <=
	// epsilon is not processed: spatial calls copy it through to dst,
	// temporal calls leave its accumulation slabs zero.
	Sigma [3]float32

	// BlockStep is the anchor spacing in [1,8]; smaller means more block
	// overlap, higher quality and higher cost.
	BlockStep int

	// BMRange is the half-side of the exhaustive spatial search window.
	BMRange int

	// Radius is the temporal half-window; 0 disables V-BM3D.
	Radius int

	// PSNum is the number of best coordinates carried between adjacent
	// frames for predictive search, in [1,8]. Ignored when Radius == 0.
	PSNum int

	// PSRange is the per-seed half-side for predictive search. Ignored
	// when Radius == 0.
	PSRange int

	// Chroma selects joint processing of 3 channels per call; block
	// matching runs on the first channel only.
	Chroma bool
}

// DefaultOptions returns the default parameter set.
func DefaultOptions() *Options {
	return &Options{
		Sigma:     [3]float32{5.0 / 255, 5.0 / 255, 5.0 / 255},
		BlockStep: 8,
		BMRange:   9,
		Radius:    0,
		PSNum:     2,
		PSRange:   4,
	}
}

func (o *Options) channels() int {
	if o.Chroma {
		return 3
	}
	return 1
}

func (o *Options) validate(temporal bool) error {
	if o == nil {
		return fmt.Errorf("%w: nil options", ErrBadOptions)
	}
	if o.BlockStep < 1 || o.BlockStep > 8 {
		return fmt.Errorf("%w: block step %d outside [1,8]", ErrBadOptions, o.BlockStep)
	}
	if o.BMRange < 1 {
		return fmt.Errorf("%w: bm range %d < 1", ErrBadOptions, o.BMRange)
	}
	if o.Radius < 0 {
		return fmt.Errorf("%w: radius %d < 0", ErrBadOptions, o.Radius)
	}
	if temporal {
		if o.Radius == 0 {
			return fmt.Errorf("%w: temporal call with radius 0", ErrBadOptions)
		}
		if o.PSNum < 1 || o.PSNum > 8 {
			return fmt.Errorf("%w: ps num %d outside [1,8]", ErrBadOptions, o.PSNum)
		}
		if o.PSRange < 1 {
			return fmt.Errorf("%w: ps range %d < 1", ErrBadOptions, o.PSRange)
		}
	}
	for c := 0; c < o.channels(); c++ {
		if o.Sigma[c] < 0 {
			return fmt.Errorf("%w: sigma[%d] = %g < 0", ErrBadOptions, c, o.Sigma[c])
		}
	}
	return nil
}

// params converts user options into the core parameter set, scaling sigma
// from intensity units into the transform domain.
func (o *Options) params(final bool) *denoise.Params {
	p := &denoise.Params{
		BlockStep: o.BlockStep,
		BMRange:   o.BMRange,
		Radius:    o.Radius,
		PSNum:     o.PSNum,
		PSRange:   o.PSRange,
		Chroma:    o.Chroma,
		Final:     final,
	}
	for c := 0; c < o.channels(); c++ {
		s := o.Sigma[c]
		if s <= sigmaEpsilon {
			// Keep the skip marker intact through scaling.
			p.Sigma[c] = s
			continue
		}
		if final {
			p.Sigma[c] = s * coefGain
		} else {
			p.Sigma[c] = s * coefGain * hardLambda
		}
	}
	return p
}

// checkPlanes validates a set of planes against a common geometry taken
// from the first plane of the first set.
func checkPlanes(sets ...[]*Plane) (width, height, stride int, err error) {
	var first *Plane
	for _, set := range sets {
		for _, p := range set {
			if !p.valid() {
				return 0, 0, 0, fmt.Errorf("%w: plane smaller than 8x8 or inconsistent", ErrBadGeometry)
			}
			if first == nil {
				first = p
				continue
			}
			if !first.sameGeometry(p) {
				return 0, 0, 0, fmt.Errorf("%w: planes disagree on dimensions or stride", ErrBadGeometry)
			}
		}
	}
	if first == nil {
		return 0, 0, 0, fmt.Errorf("%w: no planes", ErrBadGeometry)
	}
	return first.Width, first.Height, first.Stride, nil
}

// copySkipped copies src planes of chroma channels whose sigma disables
// processing, so the caller always gets a fully populated destination.
func copySkipped(dst, src []*Plane, o *Options) {
	if !o.Chroma {
		return
	}
	for c := 0; c < o.channels(); c++ {
		if o.Sigma[c] <= sigmaEpsilon {
			copy(dst[c].Pix, src[c].Pix)
		}
	}
}

// Denoise runs the spatial basic estimate (hard-threshold shrinkage) on one
// plane per channel, writing the aggregated result to dst.
func Denoise(dst, src []*Plane, o *Options) error {
	return denoiseSpatial(dst, src, nil, o, false)
}

// DenoiseFinal runs the spatial final estimate: empirical Wiener filtering
// of src against the basic estimate ref. Block matching runs on ref.
func DenoiseFinal(dst, src, ref []*Plane, o *Options) error {
	if ref == nil {
		return fmt.Errorf("%w: final pass without basic estimate", ErrBadOptions)
	}
	return denoiseSpatial(dst, src, ref, o, true)
}

func denoiseSpatial(dst, src, ref []*Plane, o *Options, final bool) error {
	if err := o.validate(false); err != nil {
		return err
	}
	if o.Radius != 0 {
		return fmt.Errorf("%w: spatial call with radius %d, use DenoiseTemporal", ErrBadOptions, o.Radius)
	}
	n := o.channels()
	if len(dst) != n || len(src) != n || (final && len(ref) != n) {
		return fmt.Errorf("%w: want %d planes per set", ErrBadGeometry, n)
	}
	sets := [][]*Plane{dst, src}
	if final {
		sets = append(sets, ref)
	}
	width, height, stride, err := checkPlanes(sets...)
	if err != nil {
		return err
	}

	dstps := make([][]float32, n)
	srcps := make([][]float32, n)
	var refps [][]float32
	if final {
		refps = make([][]float32, n)
	}
	for c := 0; c < n; c++ {
		dstps[c] = dst[c].Pix
		srcps[c] = src[c].Pix
		if final {
			refps[c] = ref[c].Pix
		}
	}

	buffer := pool.Get(n * 2 * height * stride)
	defer pool.Put(buffer)

	denoise.Run(dstps, stride, srcps, refps, width, height, o.params(final), buffer)
	copySkipped(dst, src, o)
	return nil
}

// DenoiseTemporal runs one frame of the V-BM3D basic estimate. src[c] holds
// the 2*Radius+1 coregistered planes of channel c with the reference frame
// in the middle. The weighted estimates and weights are accumulated into
// acc[c] (reset on entry); aggregation across the contributions of
// neighboring frames' calls is performed by VAggregate.
func DenoiseTemporal(acc []*Accum, src [][]*Plane, o *Options) error {
	return denoiseTemporal(acc, src, nil, o, false)
}

// DenoiseTemporalFinal is the final-estimate variant of DenoiseTemporal,
// Wiener-filtering src against the basic-estimate stack ref.
func DenoiseTemporalFinal(acc []*Accum, src, ref [][]*Plane, o *Options) error {
	if ref == nil {
		return fmt.Errorf("%w: final pass without basic estimate", ErrBadOptions)
	}
	return denoiseTemporal(acc, src, ref, o, true)
}

func denoiseTemporal(acc []*Accum, src, ref [][]*Plane, o *Options, final bool) error {
	if err := o.validate(true); err != nil {
		return err
	}
	n := o.channels()
	temporalWidth := 2*o.Radius + 1
	if len(acc) != n || len(src) != n || (final && len(ref) != n) {
		return fmt.Errorf("%w: want %d channels", ErrBadGeometry, n)
	}

	var sets [][]*Plane
	for c := 0; c < n; c++ {
		if len(src[c]) != temporalWidth || (final && len(ref[c]) != temporalWidth) {
			return fmt.Errorf("%w: want %d planes per channel stack", ErrBadGeometry, temporalWidth)
		}
		sets = append(sets, src[c])
		if final {
			sets = append(sets, ref[c])
		}
	}
	width, height, stride, err := checkPlanes(sets...)
	if err != nil {
		return err
	}

	dstps := make([][]float32, n)
	for c := 0; c < n; c++ {
		a := acc[c]
		if a == nil || a.Radius != o.Radius || a.Width != width || a.Height != height || a.Stride != stride {
			return fmt.Errorf("%w: accumulation buffer does not match planes", ErrBadGeometry)
		}
		a.Reset()
		dstps[c] = a.Data
	}

	srcps := make([][]float32, 0, n*temporalWidth)
	var refps [][]float32
	for c := 0; c < n; c++ {
		for z := 0; z < temporalWidth; z++ {
			srcps = append(srcps, src[c][z].Pix)
		}
	}
	if final {
		refps = make([][]float32, 0, n*temporalWidth)
		for c := 0; c < n; c++ {
			for z := 0; z < temporalWidth; z++ {
				refps = append(refps, ref[c][z].Pix)
			}
		}
	}

	denoise.Run(dstps, stride, srcps, refps, width, height, o.params(final), nil)
	return nil
}
