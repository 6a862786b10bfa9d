package denoise

import "github.com/deepteams/bm3d/internal/dsp"

// sigmaEpsilon is the single-precision machine epsilon; chroma channels
// with sigma at or below it are skipped entirely.
const sigmaEpsilon = 1.1920929e-7

// Params carries the per-frame denoising parameters. Sigma values are
// transform-domain thresholds (the public API converts from intensity
// units before calling in here).
type Params struct {
	Sigma     [3]float32
	BlockStep int
	BMRange   int
	Radius    int // temporal half-window; 0 selects the spatial path
	PSNum     int
	PSRange   int
	Chroma    bool // process 3 channels per call instead of 1
	Final     bool // Wiener shrinkage against refps instead of hard thresholding
}

// Channels returns the number of planes processed per call.
func (p *Params) Channels() int {
	if p.Chroma {
		return 3
	}
	return 1
}

// skip reports whether a channel is left untouched.
func (p *Params) skip(channel int) bool {
	return p.Chroma && p.Sigma[channel] <= sigmaEpsilon
}

// Run executes one frame of (V-)BM3D denoising.
//
// Spatial (Radius == 0): srcps (and refps when Final) hold one plane per
// channel; buffer is scratch of Channels()*2*height*stride floats, zeroed on
// entry, sliced as [channel][{wdst,weight}]; dstps receive the aggregated
// output planes.
//
// Temporal (Radius > 0): srcps/refps hold Channels()*(2*Radius+1) planes,
// channel-major then z with the reference frame at z == Radius; dstps[c] is
// an accumulation buffer of (2*Radius+1)*2*height*stride floats, zeroed on
// entry, and aggregation across neighboring frames' contributions is left to
// the caller. buffer is unused.
//
// All planes share width, height and stride. Geometry below 8x8 is a caller
// contract violation.
func Run(dstps [][]float32, stride int, srcps, refps [][]float32, width, height int, p *Params, buffer []float32) {
	temporal := p.Radius > 0
	temporalWidth := 2*p.Radius + 1
	center := p.Radius
	planeSize := height * stride

	matchSrc := srcps
	if p.Final {
		matchSrc = refps
	}

	var ref dsp.Block
	var m matchSet
	var group, basic dsp.Group

	for rawY := 0; rawY < height-8+p.BlockStep; rawY += p.BlockStep {
		y := min(rawY, height-8)

		for rawX := 0; rawX < width-8+p.BlockStep; rawX += p.BlockStep {
			x := min(rawX, width-8)

			dsp.LoadBlock(&ref, matchSrc[center][y*stride+x:], stride)

			m.reset()
			if temporal {
				matchTemporal(&m, &ref, matchSrc[:temporalWidth], stride,
					width, height, p.BMRange, x, y, p.Radius, p.PSNum, p.PSRange)
				m.insertIfAbsent(int32(x), int32(y), int32(center))
			} else {
				matchSpatial(&m, &ref, matchSrc[0], stride,
					width, height, p.BMRange, x, y, 0)
				m.insertIfAbsent(int32(x), int32(y), 0)
			}

			for c := 0; c < p.Channels(); c++ {
				if p.skip(c) {
					continue
				}

				if temporal {
					loadGroupTemporal(&group, srcps[c*temporalWidth:(c+1)*temporalWidth], stride, &m)
				} else {
					loadGroup(&group, srcps[c], stride, &m)
				}

				var w float32
				if p.Final {
					if temporal {
						loadGroupTemporal(&basic, refps[c*temporalWidth:(c+1)*temporalWidth], stride, &m)
					} else {
						loadGroup(&basic, refps[c], stride, &m)
					}
					w = dsp.CollaborativeWiener(&group, &basic, p.Sigma[c])
				} else {
					w = dsp.CollaborativeHard(&group, p.Sigma[c])
				}

				if temporal {
					accumulateTemporal(dstps[c], stride, height, &group, &m, w)
				} else {
					wdst := buffer[planeSize*2*c : planeSize*(2*c+1)]
					weight := buffer[planeSize*(2*c+1) : planeSize*(2*c+2)]
					accumulate(wdst, weight, stride, &group, &m, w)
				}
			}
		}
	}

	if !temporal {
		for c := 0; c < p.Channels(); c++ {
			if p.skip(c) {
				continue
			}
			aggregate(dstps[c], stride,
				buffer[planeSize*2*c:planeSize*(2*c+1)],
				buffer[planeSize*(2*c+1):planeSize*(2*c+2)],
				width, height)
		}
	}
}
