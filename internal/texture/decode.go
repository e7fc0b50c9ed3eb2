// Package texture decodes zone texture blobs into NRGBA images. The
// source format is sniffed from the blob's own header, never from the
// filename: archives mix uncompressed bitmaps, block-compressed
// surfaces and the odd JPEG/TGA under misleading extensions.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
)

var ErrUnknownFormat = errors.New("texture: unrecognized pixel format")

// Decode auto-detects the pixel format and returns an NRGBA image.
func Decode(data []byte) (*image.NRGBA, error) {
	switch {
	case len(data) >= 2 && data[0] == 'B' && data[1] == 'M':
		img, err := bmp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("texture: bitmap: %w", err)
		}
		return toNRGBA(img), nil
	case len(data) >= 4 && bytes.Equal(data[:4], ddsMagic):
		return decodeDDS(data)
	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
		}
		return toNRGBA(img), nil
	}
}

// PlaceholderSize is the edge length of the flat substitute image.
const PlaceholderSize = 64

// Placeholder returns the flat gray image substituted for textures
// that fail to decode.
func Placeholder() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, PlaceholderSize, PlaceholderSize))
	gray := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = gray.R
		img.Pix[i+1] = gray.G
		img.Pix[i+2] = gray.B
		img.Pix[i+3] = gray.A
	}
	return img
}

// toNRGBA converts any decoded image to NRGBA, forcing full alpha for
// source formats that have none.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	switch src.(type) {
	case *image.YCbCr, *image.Gray, *image.Paletted:
		for i := 3; i < len(dst.Pix); i += 4 {
			dst.Pix[i] = 255
		}
	}
	return dst
}
