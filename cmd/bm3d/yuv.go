package main

import (
	"image"
	"image/color"

	"github.com/deepteams/bm3d"
)

// Full-range BT.601 conversion between 8-bit RGB and normalized float YUV
// planes. U and V are centered on 0.5 so all three channels live in [0,1].

// imageToYUV converts an image into three float planes.
func imageToYUV(img image.Image) (yp, up, vp *bm3d.Plane) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	yp = bm3d.NewPlane(w, h)
	up = bm3d.NewPlane(w, h)
	vp = bm3d.NewPlane(w, h)

	for row := 0; row < h; row++ {
		yr := yp.Row(row)
		ur := up.Row(row)
		vr := vp.Row(row)
		for col := 0; col < w; col++ {
			r16, g16, b16, _ := img.At(b.Min.X+col, b.Min.Y+row).RGBA()
			r := float32(r16>>8) / 255
			g := float32(g16>>8) / 255
			bb := float32(b16>>8) / 255
			y := 0.299*r + 0.587*g + 0.114*bb
			yr[col] = y
			ur[col] = (bb-y)*0.564 + 0.5
			vr[col] = (r-y)*0.713 + 0.5
		}
	}
	return yp, up, vp
}

// yuvToImage converts float planes back to an 8-bit NRGBA image.
func yuvToImage(yp, up, vp *bm3d.Plane) *image.NRGBA {
	w, h := yp.Width, yp.Height
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for row := 0; row < h; row++ {
		yr := yp.Row(row)
		ur := up.Row(row)
		vr := vp.Row(row)
		for col := 0; col < w; col++ {
			y := yr[col]
			u := ur[col] - 0.5
			v := vr[col] - 0.5
			r := y + 1.403*v
			g := y - 0.344*u - 0.714*v
			bb := y + 1.773*u
			img.SetNRGBA(col, row, color.NRGBA{
				R: clip8(r),
				G: clip8(g),
				B: clip8(bb),
				A: 255,
			})
		}
	}
	return img
}

// clip8 maps a normalized intensity to a byte, clamping to [0,255].
func clip8(v float32) uint8 {
	s := v*255 + 0.5
	if s <= 0 {
		return 0
	}
	if s >= 255 {
		return 255
	}
	return uint8(s)
}
