package texture

import (
	"fmt"
	"image"

	"eq-zone-gltf/internal/buffer"
)

var ddsMagic = []byte("DDS ")

const (
	ddsHeaderSize = 128

	pfFourCC      = 0x4
	pfRGB         = 0x40
	pfAlphaPixels = 0x1
)

// decodeDDS decodes a DirectDraw surface: DXT1/DXT3/DXT5 block
// compression or mask-described uncompressed pixels. Only the top
// mip level is used.
func decodeDDS(data []byte) (*image.NRGBA, error) {
	if len(data) < ddsHeaderSize {
		return nil, fmt.Errorf("%w: short surface header", ErrUnknownFormat)
	}
	b := buffer.New(data)
	b.Skip(4) // magic
	if b.Uint32() != 124 {
		return nil, fmt.Errorf("%w: bad surface header size", ErrUnknownFormat)
	}
	b.Uint32() // flags
	height := int(b.Uint32())
	width := int(b.Uint32())
	if width <= 0 || height <= 0 || width > 1<<14 || height > 1<<14 {
		return nil, fmt.Errorf("%w: implausible surface size %dx%d", ErrUnknownFormat, width, height)
	}

	b.Seek(80) // pixel format flags
	pfFlags := b.Uint32()
	fourCC := string(b.Bytes(4))
	bitCount := int(b.Uint32())
	rMask := b.Uint32()
	gMask := b.Uint32()
	bMask := b.Uint32()
	aMask := b.Uint32()

	pixels := data[ddsHeaderSize:]

	if pfFlags&pfFourCC != 0 {
		switch fourCC {
		case "DXT1":
			return decodeBC(pixels, width, height, 8, dxt1Block)
		case "DXT3":
			return decodeBC(pixels, width, height, 16, dxt3Block)
		case "DXT5":
			return decodeBC(pixels, width, height, 16, dxt5Block)
		default:
			return nil, fmt.Errorf("%w: fourcc %q", ErrUnknownFormat, fourCC)
		}
	}
	if pfFlags&pfRGB != 0 && (bitCount == 32 || bitCount == 24) {
		hasAlpha := pfFlags&pfAlphaPixels != 0 && aMask != 0
		return decodeMasked(pixels, width, height, bitCount/8, rMask, gMask, bMask, aMask, hasAlpha)
	}
	return nil, fmt.Errorf("%w: unsupported surface pixel format", ErrUnknownFormat)
}

func decodeMasked(pixels []byte, width, height, stride int, rMask, gMask, bMask, aMask uint32, hasAlpha bool) (*image.NRGBA, error) {
	if len(pixels) < width*height*stride {
		return nil, fmt.Errorf("%w: truncated surface data", ErrUnknownFormat)
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		var v uint32
		for j := 0; j < stride; j++ {
			v |= uint32(pixels[i*stride+j]) << (8 * j)
		}
		o := i * 4
		img.Pix[o] = maskedChannel(v, rMask)
		img.Pix[o+1] = maskedChannel(v, gMask)
		img.Pix[o+2] = maskedChannel(v, bMask)
		if hasAlpha {
			img.Pix[o+3] = maskedChannel(v, aMask)
		} else {
			img.Pix[o+3] = 255
		}
	}
	return img, nil
}

func maskedChannel(v, mask uint32) uint8 {
	if mask == 0 {
		return 0
	}
	shift := 0
	for mask&(1<<shift) == 0 {
		shift++
	}
	bits := 0
	for mask&(1<<(shift+bits)) != 0 {
		bits++
	}
	c := (v & mask) >> shift
	// Scale to 8 bits.
	if bits < 8 {
		c = c * 255 / ((1 << bits) - 1)
	}
	return uint8(c)
}

type blockFunc func(block []byte, out *[16][4]uint8)

func decodeBC(pixels []byte, width, height, blockSize int, decode blockFunc) (*image.NRGBA, error) {
	bw := (width + 3) / 4
	bh := (height + 3) / 4
	if len(pixels) < bw*bh*blockSize {
		return nil, fmt.Errorf("%w: truncated compressed surface", ErrUnknownFormat)
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	var texels [16][4]uint8
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			decode(pixels[(by*bw+bx)*blockSize:], &texels)
			for ty := 0; ty < 4; ty++ {
				for tx := 0; tx < 4; tx++ {
					x, y := bx*4+tx, by*4+ty
					if x >= width || y >= height {
						continue
					}
					o := img.PixOffset(x, y)
					t := texels[ty*4+tx]
					img.Pix[o] = t[0]
					img.Pix[o+1] = t[1]
					img.Pix[o+2] = t[2]
					img.Pix[o+3] = t[3]
				}
			}
		}
	}
	return img, nil
}

func rgb565(v uint16) (uint8, uint8, uint8) {
	r := uint8((v >> 11) & 0x1F)
	g := uint8((v >> 5) & 0x3F)
	b := uint8(v & 0x1F)
	return r<<3 | r>>2, g<<2 | g>>4, b<<3 | b>>2
}

// colorTable expands the two endpoint colors of a block into the
// four-entry palette. DXT1 blocks with c0 <= c1 use the three-color
// mode with a transparent fourth entry.
func colorTable(block []byte, opaque bool) [4][4]uint8 {
	c0 := uint16(block[0]) | uint16(block[1])<<8
	c1 := uint16(block[2]) | uint16(block[3])<<8
	r0, g0, b0 := rgb565(c0)
	r1, g1, b1 := rgb565(c1)

	table := [4][4]uint8{
		{r0, g0, b0, 255},
		{r1, g1, b1, 255},
	}
	if opaque || c0 > c1 {
		table[2] = [4]uint8{
			uint8((2*int(r0) + int(r1)) / 3),
			uint8((2*int(g0) + int(g1)) / 3),
			uint8((2*int(b0) + int(b1)) / 3),
			255,
		}
		table[3] = [4]uint8{
			uint8((int(r0) + 2*int(r1)) / 3),
			uint8((int(g0) + 2*int(g1)) / 3),
			uint8((int(b0) + 2*int(b1)) / 3),
			255,
		}
	} else {
		table[2] = [4]uint8{
			uint8((int(r0) + int(r1)) / 2),
			uint8((int(g0) + int(g1)) / 2),
			uint8((int(b0) + int(b1)) / 2),
			255,
		}
		table[3] = [4]uint8{0, 0, 0, 0}
	}
	return table
}

func colorIndices(block []byte, table *[4][4]uint8, out *[16][4]uint8) {
	bits := uint32(block[4]) | uint32(block[5])<<8 | uint32(block[6])<<16 | uint32(block[7])<<24
	for i := 0; i < 16; i++ {
		out[i] = table[(bits>>(2*i))&0x3]
	}
}

func dxt1Block(block []byte, out *[16][4]uint8) {
	table := colorTable(block, false)
	colorIndices(block, &table, out)
}

func dxt3Block(block []byte, out *[16][4]uint8) {
	table := colorTable(block[8:], true)
	colorIndices(block[8:], &table, out)
	for i := 0; i < 16; i++ {
		nibble := (block[i/2] >> (4 * uint(i%2))) & 0xF
		out[i][3] = nibble<<4 | nibble
	}
}

func dxt5Block(block []byte, out *[16][4]uint8) {
	table := colorTable(block[8:], true)
	colorIndices(block[8:], &table, out)

	a0, a1 := block[0], block[1]
	var alpha [8]uint8
	alpha[0], alpha[1] = a0, a1
	if a0 > a1 {
		for i := 1; i < 7; i++ {
			alpha[i+1] = uint8(((7-i)*int(a0) + i*int(a1)) / 7)
		}
	} else {
		for i := 1; i < 5; i++ {
			alpha[i+1] = uint8(((5-i)*int(a0) + i*int(a1)) / 5)
		}
		alpha[6] = 0
		alpha[7] = 255
	}

	bits := uint64(0)
	for i := 0; i < 6; i++ {
		bits |= uint64(block[2+i]) << (8 * i)
	}
	for i := 0; i < 16; i++ {
		out[i][3] = alpha[(bits>>(3*i))&0x7]
	}
}
