package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/deepteams/bm3d"
)

// fpz is a minimal container for raw float32 plane streams: a 16-byte
// uncompressed header (magic "FPZ1", width, height, frame count, all
// little-endian uint32) followed by a zstd stream of width*height float32
// LE values per frame.

var fpzMagic = [4]byte{'F', 'P', 'Z', '1'}

type fpzHeader struct {
	Width  uint32
	Height uint32
	Frames uint32
}

// readFPZHeader reads and validates the fpz header.
func readFPZHeader(r io.Reader) (fpzHeader, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return fpzHeader{}, fmt.Errorf("reading magic: %w", err)
	}
	if magic != fpzMagic {
		return fpzHeader{}, fmt.Errorf("not an fpz stream (magic %q)", magic)
	}
	var h fpzHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return fpzHeader{}, fmt.Errorf("reading header: %w", err)
	}
	if h.Width < 8 || h.Height < 8 || h.Frames == 0 {
		return fpzHeader{}, fmt.Errorf("bad geometry %dx%d x%d frames", h.Width, h.Height, h.Frames)
	}
	return h, nil
}

// readFPZ decodes a whole fpz stream into per-frame planes.
func readFPZ(r io.Reader) ([]*bm3d.Plane, error) {
	h, err := readFPZHeader(r)
	if err != nil {
		return nil, err
	}

	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	defer zr.Close()

	w, ht := int(h.Width), int(h.Height)
	frames := make([]*bm3d.Plane, h.Frames)
	buf := make([]byte, w*ht*4)
	for f := range frames {
		if _, err := io.ReadFull(zr, buf); err != nil {
			return nil, fmt.Errorf("reading frame %d: %w", f, err)
		}
		p := bm3d.NewPlane(w, ht)
		for i := range p.Pix {
			p.Pix[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		}
		frames[f] = p
	}
	return frames, nil
}

// writeFPZ encodes planes as an fpz stream. All planes must share one
// geometry.
func writeFPZ(w io.Writer, frames []*bm3d.Plane) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to write")
	}
	width, height := frames[0].Width, frames[0].Height

	if _, err := w.Write(fpzMagic[:]); err != nil {
		return fmt.Errorf("writing magic: %w", err)
	}
	h := fpzHeader{Width: uint32(width), Height: uint32(height), Frames: uint32(len(frames))}
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	zw, err := zstd.NewWriter(w,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		return fmt.Errorf("zstd encode: %w", err)
	}

	buf := make([]byte, width*height*4)
	for f, p := range frames {
		if p.Width != width || p.Height != height {
			zw.Close()
			return fmt.Errorf("frame %d geometry differs", f)
		}
		for y := 0; y < height; y++ {
			row := p.Row(y)
			for x, v := range row {
				binary.LittleEndian.PutUint32(buf[(y*width+x)*4:], math.Float32bits(v))
			}
		}
		if _, err := zw.Write(buf); err != nil {
			zw.Close()
			return fmt.Errorf("writing frame %d: %w", f, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("zstd encode: %w", err)
	}
	return nil
}
