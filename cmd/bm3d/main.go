// Command bm3d denoises still images and raw float-plane streams with the
// BM3D / V-BM3D algorithm.
//
// Usage:
//
//	bm3d denoise [options] <input>   PNG/JPEG or .fpz → denoised output (use "-" for stdin)
//	bm3d info <input.fpz>            Display fpz stream geometry
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/deepteams/bm3d"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "denoise":
		err = runDenoise(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "bm3d: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "bm3d: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  bm3d denoise [options] <input>   Denoise a PNG/JPEG image or an fpz float-plane stream
  bm3d info <input.fpz>            Display fpz stream geometry

Use "-" as input to read from stdin, "-o -" to write to stdout.

Run "bm3d denoise -h" for options.
`)
}

// openInput returns an io.ReadCloser for the given path.
// If path is "-", stdin is returned wrapped so that Close is a no-op.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// openOutput returns an io.WriteCloser for the given path.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// parseSigma parses a scalar or comma-separated sigma list on the familiar
// 0-255 scale and converts it to the normalized intensity range.
func parseSigma(s string) ([3]float32, error) {
	var out [3]float32
	parts := strings.Split(s, ",")
	if len(parts) != 1 && len(parts) != 3 {
		return out, fmt.Errorf("sigma wants 1 or 3 values, got %d", len(parts))
	}
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return out, fmt.Errorf("bad sigma %q: %w", part, err)
		}
		if v < 0 {
			return out, fmt.Errorf("negative sigma %g", v)
		}
		out[i] = float32(v / 255)
	}
	if len(parts) == 1 {
		out[1], out[2] = out[0], out[0]
	}
	return out, nil
}

func runDenoise(args []string) error {
	fs := flag.NewFlagSet("denoise", flag.ExitOnError)
	out := fs.String("o", "", "output file (default: input name with .out before the extension, \"-\" for stdout)")
	sigmaArg := fs.String("sigma", "5", "noise standard deviation, 0-255 scale (scalar or Y,U,V list)")
	step := fs.Int("step", 8, "anchor step in [1,8]; smaller is slower and higher quality")
	bmRange := fs.Int("range", 9, "spatial search half-side")
	radius := fs.Int("radius", 0, "temporal half-window for fpz streams; 0 = per-frame spatial")
	psNum := fs.Int("psnum", 2, "predictive-search seeds per neighbor frame")
	psRange := fs.Int("psrange", 4, "predictive-search half-side")
	chroma := fs.Bool("chroma", false, "denoise chroma channels together with luma (images only)")
	final := fs.Bool("final", false, "run the Wiener final stage against the basic estimate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("denoise wants exactly one input")
	}
	input := fs.Arg(0)

	sigma, err := parseSigma(*sigmaArg)
	if err != nil {
		return err
	}

	o := bm3d.DefaultOptions()
	o.Sigma = sigma
	o.BlockStep = *step
	o.BMRange = *bmRange
	o.Radius = *radius
	o.PSNum = *psNum
	o.PSRange = *psRange
	o.Chroma = *chroma

	in, err := openInput(input)
	if err != nil {
		return err
	}
	defer in.Close()

	outPath := *out
	if outPath == "" {
		outPath = defaultOutput(input)
	}

	if strings.HasSuffix(strings.ToLower(input), ".fpz") {
		if *chroma {
			return fmt.Errorf("-chroma applies to image inputs only (fpz streams are single-channel)")
		}
		return denoiseStream(in, outPath, o, *final)
	}
	return denoiseImage(in, outPath, o, *final)
}

// defaultOutput derives an output name from the input path.
func defaultOutput(input string) string {
	if input == "-" {
		return "-"
	}
	if i := strings.LastIndexByte(input, '.'); i > 0 {
		return input[:i] + ".out" + input[i:]
	}
	return input + ".out"
}

// denoiseImage runs the spatial pipeline on a still image: RGB to YUV float
// planes, basic estimate, optional Wiener final stage, back to RGB.
func denoiseImage(in io.Reader, outPath string, o *bm3d.Options, final bool) error {
	img, _, err := image.Decode(in)
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}
	yp, up, vp := imageToYUV(img)
	if yp.Width < 8 || yp.Height < 8 {
		return fmt.Errorf("image %dx%d below the 8x8 minimum", yp.Width, yp.Height)
	}

	var src, dst []*bm3d.Plane
	if o.Chroma {
		src = []*bm3d.Plane{yp, up, vp}
		dst = []*bm3d.Plane{
			bm3d.NewPlane(yp.Width, yp.Height),
			bm3d.NewPlane(yp.Width, yp.Height),
			bm3d.NewPlane(yp.Width, yp.Height),
		}
	} else {
		src = []*bm3d.Plane{yp}
		dst = []*bm3d.Plane{bm3d.NewPlane(yp.Width, yp.Height)}
	}

	if err := bm3d.Denoise(dst, src, o); err != nil {
		return err
	}
	if final {
		basic := dst
		dst = make([]*bm3d.Plane, len(src))
		for i := range dst {
			dst[i] = bm3d.NewPlane(yp.Width, yp.Height)
		}
		if err := bm3d.DenoiseFinal(dst, src, basic, o); err != nil {
			return err
		}
	}

	outY, outU, outV := dst[0], up, vp
	if o.Chroma {
		outU, outV = dst[1], dst[2]
	}

	w, err := openOutput(outPath)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := png.Encode(w, yuvToImage(outY, outU, outV)); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

// denoiseStream runs the (V-)BM3D pipeline over a single-channel fpz
// stream, with edge frames replicated to fill the temporal window.
func denoiseStream(in io.Reader, outPath string, o *bm3d.Options, final bool) error {
	frames, err := readFPZ(in)
	if err != nil {
		return err
	}

	basic, err := denoiseFrames(frames, nil, o)
	if err != nil {
		return err
	}
	result := basic
	if final {
		if result, err = denoiseFrames(frames, basic, o); err != nil {
			return err
		}
	}

	w, err := openOutput(outPath)
	if err != nil {
		return err
	}
	defer w.Close()
	return writeFPZ(w, result)
}

// denoiseFrames denoises every frame of a stream. A nil ref selects the
// basic estimate; otherwise ref planes drive the Wiener final stage.
func denoiseFrames(frames, ref []*bm3d.Plane, o *bm3d.Options) ([]*bm3d.Plane, error) {
	n := len(frames)
	out := make([]*bm3d.Plane, n)

	if o.Radius == 0 {
		for f := 0; f < n; f++ {
			dst := []*bm3d.Plane{bm3d.NewPlane(frames[f].Width, frames[f].Height)}
			var err error
			if ref == nil {
				err = bm3d.Denoise(dst, frames[f:f+1], o)
			} else {
				err = bm3d.DenoiseFinal(dst, frames[f:f+1], ref[f:f+1], o)
			}
			if err != nil {
				return nil, fmt.Errorf("frame %d: %w", f, err)
			}
			out[f] = dst[0]
		}
		return out, nil
	}

	r := o.Radius
	window := func(src []*bm3d.Plane, f int) []*bm3d.Plane {
		stack := make([]*bm3d.Plane, 0, 2*r+1)
		for d := -r; d <= r; d++ {
			stack = append(stack, src[clampIndex(f+d, n)])
		}
		return stack
	}

	accs := make([]*bm3d.Accum, n)
	for f := 0; f < n; f++ {
		accs[f] = bm3d.NewAccum(frames[f].Width, frames[f].Height, r)
		var err error
		if ref == nil {
			err = bm3d.DenoiseTemporal([]*bm3d.Accum{accs[f]}, [][]*bm3d.Plane{window(frames, f)}, o)
		} else {
			err = bm3d.DenoiseTemporalFinal([]*bm3d.Accum{accs[f]},
				[][]*bm3d.Plane{window(frames, f)}, [][]*bm3d.Plane{window(ref, f)}, o)
		}
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", f, err)
		}
	}

	for f := 0; f < n; f++ {
		var calls []*bm3d.Accum
		var offsets []int
		for g := max(f-r, 0); g <= min(f+r, n-1); g++ {
			calls = append(calls, accs[g])
			offsets = append(offsets, g-f)
		}
		out[f] = bm3d.NewPlane(frames[f].Width, frames[f].Height)
		if err := bm3d.VAggregate(out[f], calls, offsets); err != nil {
			return nil, fmt.Errorf("aggregating frame %d: %w", f, err)
		}
	}
	return out, nil
}

// clampIndex clamps a frame index to [0, n), replicating edge frames.
func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func runInfo(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("info wants exactly one input")
	}
	in, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	h, err := readFPZHeader(in)
	if err != nil {
		return err
	}
	fmt.Printf("fpz stream: %dx%d, %d frames (%.1f MiB raw)\n",
		h.Width, h.Height, h.Frames,
		float64(h.Width)*float64(h.Height)*float64(h.Frames)*4/(1<<20))
	return nil
}
