package vvc

import "github.com/deepteams/vvc/internal/modectrl"

// Area is a rectangle of luma samples in picture coordinates.
type Area = modectrl.Area

// MotionVector is a full-sample displacement into the reference picture.
type MotionVector = modectrl.MotionVector

// Neighbours holds the reconstructed samples bordering a coding unit.
type Neighbours struct {
	Above []int32 // the row above, nil at the top picture edge
	Left  []int32 // the column to the left, nil at the left picture edge
}

// Predictor generates prediction samples of coding units. Encoder and
// decoder must use the same implementation. Implementations must be safe
// for concurrent use.
type Predictor interface {
	// Intra writes the a.W×a.H intra prediction of a into dst.
	Intra(dst []int32, a Area, nb Neighbours, bitDepth int)
	// Inter writes the a.W×a.H prediction of a displaced by mv in ref
	// into dst.
	Inter(dst []int32, a Area, mv MotionVector, ref *Picture)
}

// DCPredictor predicts intra units with the rounded mean of their
// neighbours and inter units by copying the displaced reference block,
// clamping coordinates to the picture.
type DCPredictor struct{}

// Intra implements Predictor.
func (DCPredictor) Intra(dst []int32, a Area, nb Neighbours, bitDepth int) {
	var sum int64
	n := len(nb.Above) + len(nb.Left)
	for _, v := range nb.Above {
		sum += int64(v)
	}
	for _, v := range nb.Left {
		sum += int64(v)
	}
	dc := int32(1) << (bitDepth - 1)
	if n > 0 {
		dc = int32((sum + int64(n>>1)) / int64(n))
	}
	dst = dst[:a.W*a.H]
	for i := range dst {
		dst[i] = dc
	}
}

// Inter implements Predictor.
func (DCPredictor) Inter(dst []int32, a Area, mv MotionVector, ref *Picture) {
	x0, y0 := a.X+int(mv.X), a.Y+int(mv.Y)
	inside := x0 >= 0 && y0 >= 0 && x0+a.W <= ref.Width && y0+a.H <= ref.Height
	for y := 0; y < a.H; y++ {
		row := dst[y*a.W : (y+1)*a.W]
		if inside {
			o := (y0+y)*ref.Width + x0
			copy(row, ref.Pix[o:o+a.W])
			continue
		}
		for x := range row {
			row[x] = ref.at(x0+x, y0+y)
		}
	}
}

// canvas is a window of reconstructed samples whose top-left sample sits
// at (x0, y0) in picture coordinates.
type canvas struct {
	x0, y0 int
	stride int
	pix    []int32
}

func pictureCanvas(p *Picture) *canvas {
	return &canvas{stride: p.Width, pix: p.Pix}
}

func (c *canvas) clone() *canvas {
	n := *c
	n.pix = append([]int32(nil), c.pix...)
	return &n
}

func (c *canvas) set(a Area, src []int32) {
	for y := 0; y < a.H; y++ {
		o := (a.Y+y-c.y0)*c.stride + a.X - c.x0
		copy(c.pix[o:o+a.W], src[y*a.W:(y+1)*a.W])
	}
}

// neighbours gathers the row above and the column left of a into above
// and left, which must hold a.W and a.H samples.
func (c *canvas) neighbours(a Area, above, left []int32) Neighbours {
	var nb Neighbours
	if a.Y > 0 {
		o := (a.Y-1-c.y0)*c.stride + a.X - c.x0
		nb.Above = above[:a.W]
		copy(nb.Above, c.pix[o:o+a.W])
	}
	if a.X > 0 {
		nb.Left = left[:a.H]
		o := (a.Y-c.y0)*c.stride + a.X - 1 - c.x0
		for y := range nb.Left {
			nb.Left[y] = c.pix[o+y*c.stride]
		}
	}
	return nb
}
