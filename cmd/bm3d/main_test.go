package main

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/deepteams/bm3d"
)

func TestParseSigma(t *testing.T) {
	tests := []struct {
		in      string
		want    [3]float32
		wantErr bool
	}{
		{"5", [3]float32{5.0 / 255, 5.0 / 255, 5.0 / 255}, false},
		{"10, 3, 3", [3]float32{10.0 / 255, 3.0 / 255, 3.0 / 255}, false},
		{"0", [3]float32{}, false},
		{"1,2", [3]float32{}, true},
		{"-1", [3]float32{}, true},
		{"abc", [3]float32{}, true},
	}
	for _, tt := range tests {
		got, err := parseSigma(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseSigma(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Fatalf("parseSigma(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFPZRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(50))
	frames := make([]*bm3d.Plane, 3)
	for f := range frames {
		frames[f] = bm3d.NewPlane(16, 12)
		for i := range frames[f].Pix {
			frames[f].Pix[i] = float32(rng.Float64())
		}
	}

	var buf bytes.Buffer
	if err := writeFPZ(&buf, frames); err != nil {
		t.Fatalf("writeFPZ: %v", err)
	}

	got, err := readFPZ(&buf)
	if err != nil {
		t.Fatalf("readFPZ: %v", err)
	}
	if len(got) != len(frames) {
		t.Fatalf("frame count = %d, want %d", len(got), len(frames))
	}
	for f := range got {
		if got[f].Width != 16 || got[f].Height != 12 {
			t.Fatalf("frame %d geometry %dx%d", f, got[f].Width, got[f].Height)
		}
		for i := range got[f].Pix {
			if got[f].Pix[i] != frames[f].Pix[i] {
				t.Fatalf("frame %d pixel %d = %g, want %g", f, i, got[f].Pix[i], frames[f].Pix[i])
			}
		}
	}
}

func TestFPZRejectsBadMagic(t *testing.T) {
	if _, err := readFPZ(bytes.NewReader([]byte("RIFF????WEBP...."))); err == nil {
		t.Fatal("readFPZ accepted a non-fpz stream")
	}
}

func TestYUVRoundTrip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	rng := rand.New(rand.NewSource(51))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}

	yp, up, vp := imageToYUV(img)
	back := yuvToImage(yp, up, vp)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			want := img.NRGBAAt(x, y)
			got := back.NRGBAAt(x, y)
			// The rounded coefficients and 8-bit quantization lose a little
			// precision; 3/255 covers it.
			if d := math.Abs(float64(got.R) - float64(want.R)); d > 3 {
				t.Fatalf("(%d,%d) R = %d, want %d", x, y, got.R, want.R)
			}
			if d := math.Abs(float64(got.G) - float64(want.G)); d > 3 {
				t.Fatalf("(%d,%d) G = %d, want %d", x, y, got.G, want.G)
			}
			if d := math.Abs(float64(got.B) - float64(want.B)); d > 3 {
				t.Fatalf("(%d,%d) B = %d, want %d", x, y, got.B, want.B)
			}
		}
	}
}

func TestDefaultOutput(t *testing.T) {
	tests := []struct{ in, want string }{
		{"clip.fpz", "clip.out.fpz"},
		{"photo.png", "photo.out.png"},
		{"noext", "noext.out"},
		{"-", "-"},
	}
	for _, tt := range tests {
		if got := defaultOutput(tt.in); got != tt.want {
			t.Fatalf("defaultOutput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDenoiseFramesSpatial(t *testing.T) {
	frames := []*bm3d.Plane{bm3d.NewPlane(16, 16), bm3d.NewPlane(16, 16)}
	for _, f := range frames {
		for i := range f.Pix {
			f.Pix[i] = 0.5
		}
	}
	o := bm3d.DefaultOptions()
	o.BMRange = 7

	out, err := denoiseFrames(frames, nil, o)
	if err != nil {
		t.Fatalf("denoiseFrames: %v", err)
	}
	for f := range out {
		for i, v := range out[f].Pix {
			if d := math.Abs(float64(v) - 0.5); d > 1e-5 {
				t.Fatalf("frame %d pixel %d = %g, want 0.5", f, i, v)
			}
		}
	}
}

func TestDenoiseFramesTemporal(t *testing.T) {
	frames := make([]*bm3d.Plane, 4)
	for f := range frames {
		frames[f] = bm3d.NewPlane(16, 16)
		for i := range frames[f].Pix {
			frames[f].Pix[i] = 0.5
		}
	}
	o := bm3d.DefaultOptions()
	o.BMRange = 7
	o.Radius = 1

	out, err := denoiseFrames(frames, nil, o)
	if err != nil {
		t.Fatalf("denoiseFrames: %v", err)
	}
	for f := range out {
		for i, v := range out[f].Pix {
			if d := math.Abs(float64(v) - 0.5); d > 1e-5 {
				t.Fatalf("frame %d pixel %d = %g, want 0.5", f, i, v)
			}
		}
	}
}
