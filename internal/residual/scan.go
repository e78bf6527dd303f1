package residual

// Pos is a coefficient position inside the coded region.
type Pos struct{ X, Y uint8 }

// Scan is the coefficient order of a coded region: coefficient groups in
// diagonal up-right order, and diagonal up-right order inside each group.
// Scans are shared and read-only.
type Scan struct {
	W, H       int
	CGW, CGH   int // coefficient group dimensions
	Log2CGSize int // log2 of the number of coefficients per group
	NumCG      int
	Pos        []Pos    // scan index to position
	CG         []Pos    // group index to group coordinates (in groups)
	Index      []uint16 // y*W+x to scan index
}

// MaxCodedLog2 is the largest side of a coded region. Larger transforms
// zero out their high frequencies down to this size.
const MaxCodedLog2 = 5

var scans [MaxCodedLog2 + 1][MaxCodedLog2 + 1]*Scan

func init() {
	for lw := 1; lw <= MaxCodedLog2; lw++ {
		for lh := 1; lh <= MaxCodedLog2; lh++ {
			scans[lw][lh] = buildScan(1<<lw, 1<<lh)
		}
	}
}

// ScanFor returns the scan of a w×h coded region.
func ScanFor(w, h int) *Scan {
	return scans[log2Of(w)][log2Of(h)]
}

func log2Of(v int) int {
	n := 0
	for 1<<n < v {
		n++
	}
	return n
}

// diagonal returns the up-right diagonal order of a w×h grid: diagonals
// of increasing x+y, each walked from bottom-left to top-right.
func diagonal(w, h int) []Pos {
	out := make([]Pos, 0, w*h)
	for d := 0; d < w+h-1; d++ {
		y := d
		if y > h-1 {
			y = h - 1
		}
		for ; y >= 0; y-- {
			x := d - y
			if x >= w {
				break
			}
			out = append(out, Pos{uint8(x), uint8(y)})
		}
	}
	return out
}

func buildScan(w, h int) *Scan {
	cgw, cgh := min(4, w), min(4, h)
	s := &Scan{
		W: w, H: h,
		CGW: cgw, CGH: cgh,
		Log2CGSize: log2Of(cgw * cgh),
		CG:         diagonal(w/cgw, h/cgh),
		Index:      make([]uint16, w*h),
	}
	s.NumCG = len(s.CG)
	inner := diagonal(cgw, cgh)
	s.Pos = make([]Pos, 0, w*h)
	for _, cg := range s.CG {
		for _, p := range inner {
			x := int(cg.X)*cgw + int(p.X)
			y := int(cg.Y)*cgh + int(p.Y)
			s.Index[y*w+x] = uint16(len(s.Pos))
			s.Pos = append(s.Pos, Pos{uint8(x), uint8(y)})
		}
	}
	return s
}

// groupIdx maps a last-position coordinate to its prefix group.
var groupIdx [1 << MaxCodedLog2]uint8

// minInGroup is the first coordinate of every prefix group.
var minInGroup = [...]int{0, 1, 2, 3, 4, 6, 8, 12, 16, 24, 32, 48, 64, 96}

func init() {
	g := 0
	for i := range groupIdx {
		for g+1 < len(minInGroup) && minInGroup[g+1] <= i {
			g++
		}
		groupIdx[i] = uint8(g)
	}
}
