package vvc

import (
	"image"
	"image/color"

	"github.com/deepteams/vvc/internal/modectrl"
)

// Picture is one luma plane. Samples are stored row-major without padding.
type Picture struct {
	Width, Height int
	BitDepth      int
	Pix           []int32
}

// NewPicture returns a w×h picture at mid grey.
func NewPicture(w, h, bitDepth int) *Picture {
	p := &Picture{Width: w, Height: h, BitDepth: bitDepth, Pix: make([]int32, w*h)}
	mid := int32(1) << (bitDepth - 1)
	for i := range p.Pix {
		p.Pix[i] = mid
	}
	return p
}

// PictureFromImage converts the luma of img to an 8-bit picture.
func PictureFromImage(img image.Image) *Picture {
	b := img.Bounds()
	p := &Picture{Width: b.Dx(), Height: b.Dy(), BitDepth: 8, Pix: make([]int32, b.Dx()*b.Dy())}
	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < p.Height; y++ {
			row := g.Pix[(y+b.Min.Y-g.Rect.Min.Y)*g.Stride+(b.Min.X-g.Rect.Min.X):]
			for x := 0; x < p.Width; x++ {
				p.Pix[y*p.Width+x] = int32(row[x])
			}
		}
		return p
	}
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			c := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			p.Pix[y*p.Width+x] = int32(c.Y)
		}
	}
	return p
}

// Gray returns the picture scaled to 8 bits.
func (p *Picture) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	shift := p.BitDepth - 8
	for i, v := range p.Pix {
		if shift > 0 {
			v = (v + 1<<(shift-1)) >> shift
		}
		g.Pix[i] = uint8(min(max(v, 0), 255))
	}
	return g
}

// Clone returns a deep copy.
func (p *Picture) Clone() *Picture {
	c := *p
	c.Pix = append([]int32(nil), p.Pix...)
	return &c
}

// block copies the samples of a into dst (a.W×a.H).
func (p *Picture) block(a modectrl.Area, dst []int32) {
	for y := 0; y < a.H; y++ {
		o := (a.Y+y)*p.Width + a.X
		copy(dst[y*a.W:(y+1)*a.W], p.Pix[o:o+a.W])
	}
}

// setBlock writes src (a.W×a.H) into a.
func (p *Picture) setBlock(a modectrl.Area, src []int32) {
	for y := 0; y < a.H; y++ {
		o := (a.Y+y)*p.Width + a.X
		copy(p.Pix[o:o+a.W], src[y*a.W:(y+1)*a.W])
	}
}

// at returns the sample at (x, y) with coordinates clamped to the picture.
func (p *Picture) at(x, y int) int32 {
	x = min(max(x, 0), p.Width-1)
	y = min(max(y, 0), p.Height-1)
	return p.Pix[y*p.Width+x]
}
