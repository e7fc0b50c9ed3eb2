package texture

import "image"

// keyTolerance allows for palette rounding introduced by format
// conversions along the way.
const keyTolerance = 2

// ApplyColorKey punches out pixels matching the image's first pixel,
// the convention masked zone textures use for their transparent color.
// The image is modified in place.
func ApplyColorKey(img *image.NRGBA) {
	if len(img.Pix) < 4 {
		return
	}
	kr, kg, kb := img.Pix[0], img.Pix[1], img.Pix[2]
	for o := 0; o < len(img.Pix); o += 4 {
		if near(img.Pix[o], kr) && near(img.Pix[o+1], kg) && near(img.Pix[o+2], kb) {
			img.Pix[o+3] = 0
		}
	}
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -keyTolerance && d <= keyTolerance
}
