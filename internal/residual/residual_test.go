package residual

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/deepteams/vvc/internal/bitio"
)

// binRecorder records every bin and implements both sides of the coder.
type binRecorder struct {
	bins []recBin
}

type recBin struct {
	ctx int // -1 for bypass
	bin uint32
}

func (r *binRecorder) EncodeBin(bin uint32, ctx int) { r.bins = append(r.bins, recBin{ctx, bin}) }
func (r *binRecorder) EncodeBinEP(bin uint32)        { r.bins = append(r.bins, recBin{-1, bin}) }
func (r *binRecorder) EncodeBinsEP(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		r.EncodeBinEP((v >> uint(i)) & 1)
	}
}

type flatRates struct{}

func (flatRates) Cost(int, uint32) uint32 { return 256 }

func randomLevels(rng *rand.Rand, sh Shape, density float64) []int32 {
	levels := make([]int32, sh.Size())
	stride := sh.Stride()
	for y := 0; y < sh.CodedH; y++ {
		for x := 0; x < sh.CodedW; x++ {
			if rng.Float64() >= density {
				continue
			}
			var a int32
			switch r := rng.Intn(20); {
			case r < 12:
				a = 1
			case r < 17:
				a = int32(2 + rng.Intn(3))
			case r < 19:
				a = int32(5 + rng.Intn(60))
			default:
				a = int32(1 + rng.Intn(MaxLevel))
			}
			if rng.Intn(2) == 0 {
				a = -a
			}
			levels[y*stride+x] = a
		}
	}
	return levels
}

// fixHiddenSigns makes every hidden sign consistent with its group parity.
func fixHiddenSigns(levels []int32, sh Shape) {
	scan := ScanFor(sh.CodedW, sh.CodedH)
	stride := sh.Stride()
	for cg := 0; cg < scan.NumCG; cg++ {
		first, hidden := HiddenSign(levels, sh, scan, cg)
		if !hidden {
			continue
		}
		var sum int32
		for s := cg << scan.Log2CGSize; s < (cg+1)<<scan.Log2CGSize; s++ {
			p := scan.Pos[s]
			sum += absLevel(levels[int(p.Y)*stride+int(p.X)])
		}
		p := scan.Pos[first]
		i := int(p.Y)*stride + int(p.X)
		if (sum&1 == 1) != (levels[i] < 0) {
			levels[i] = -levels[i]
		}
	}
}

func shapes() []Shape {
	return []Shape{
		NewShape(1, 1, 2, 2, false),
		NewShape(2, 2, 4, 4, false),
		NewShape(2, 2, 4, 4, true),
		NewShape(3, 3, 8, 8, true),
		NewShape(1, 3, 2, 8, false),
		NewShape(4, 2, 16, 4, true),
		NewShape(5, 5, 32, 32, false),
		NewShape(5, 5, 16, 16, true),
		NewShape(6, 6, 32, 32, true),
		NewShape(7, 1, 32, 2, false),
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(301))
	for _, sh := range shapes() {
		for _, density := range []float64{0, 0.02, 0.2, 0.9} {
			name := fmt.Sprintf("%dx%d/coded%dx%d/sbh%v/d%.2f", 1<<sh.Log2W, 1<<sh.Log2H, sh.CodedW, sh.CodedH, sh.SignHiding, density)
			t.Run(name, func(t *testing.T) {
				blocks := make([][]int32, 8)
				bw := bitio.NewBinWriter(bitio.NewContextSet(NumContexts), 0)
				for i := range blocks {
					blocks[i] = randomLevels(rng, sh, density)
					fixHiddenSigns(blocks[i], sh)
					Encode(bw, blocks[i], sh)
				}
				data := bw.Finish()
				br := bitio.NewBinReader(bitio.NewContextSet(NumContexts), data)
				got := make([]int32, sh.Size())
				for i, want := range blocks {
					if err := Decode(br, got, sh); err != nil {
						t.Fatalf("block %d: %v", i, err)
					}
					for j := range want {
						if got[j] != want[j] {
							t.Fatalf("block %d index %d: got %d, want %d", i, j, got[j], want[j])
						}
					}
				}
			})
		}
	}
}

func TestEstimateBitsMatchesBinCount(t *testing.T) {
	rng := rand.New(rand.NewSource(302))
	for _, sh := range shapes() {
		levels := randomLevels(rng, sh, 0.3)
		fixHiddenSigns(levels, sh)
		var rec binRecorder
		Encode(&rec, levels, sh)
		if got, want := EstimateBits(flatRates{}, levels, sh), uint64(len(rec.bins))*256; got != want {
			t.Errorf("%+v: estimate %d, want %d", sh, got, want)
		}
	}
}

func TestEstimateBitsMatchesCounter(t *testing.T) {
	// With no adaptation between bins, frozen rates and an adapting
	// counter only differ by the adaptation itself: a single bin block
	// must agree exactly.
	sh := NewShape(2, 2, 4, 4, false)
	levels := make([]int32, 16)
	ctx := bitio.NewContextSet(NumContexts)
	bc := bitio.NewBinCounter(ctx.Clone())
	Encode(bc, levels, sh)
	if got := EstimateBits(ctx, levels, sh); got != bc.FracBits() {
		t.Fatalf("estimate %d, counter %d", got, bc.FracBits())
	}
}

func TestLastPositionRoundTrip(t *testing.T) {
	for lw := 1; lw <= MaxCodedLog2; lw++ {
		for lh := 1; lh <= MaxCodedLog2; lh++ {
			w, h := 1<<lw, 1<<lh
			bw := bitio.NewBinWriter(bitio.NewContextSet(NumContexts), 0)
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					encodeLast(bw, x, y, w, h)
				}
			}
			br := bitio.NewBinReader(bitio.NewContextSet(NumContexts), bw.Finish())
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					gx, gy, err := decodeLast(br, w, h)
					if err != nil || gx != x || gy != y {
						t.Fatalf("%dx%d: got (%d,%d,%v), want (%d,%d)", w, h, gx, gy, err, x, y)
					}
				}
			}
		}
	}
}

func TestRemainderRoundTrip(t *testing.T) {
	for r := 0; r <= 3; r++ {
		var rec binRecorder
		for sym := uint32(0); sym < 17000; sym += 7 {
			encodeRemainder(&rec, sym, r)
		}
		dec := &recDecoder{bins: rec.bins}
		for sym := uint32(0); sym < 17000; sym += 7 {
			got, err := decodeRemainder(dec, r)
			if err != nil || got != sym {
				t.Fatalf("rice %d: got %d (%v), want %d", r, got, err, sym)
			}
		}
	}
}

type recDecoder struct {
	bins []recBin
	pos  int
}

func (d *recDecoder) next() uint32 {
	b := d.bins[d.pos]
	d.pos++
	return b.bin
}
func (d *recDecoder) DecodeBin(int) uint32 { return d.next() }
func (d *recDecoder) DecodeBinEP() uint32  { return d.next() }
func (d *recDecoder) DecodeBinsEP(n int) uint32 {
	var v uint32
	for i := 0; i < n; i++ {
		v = v<<1 | d.next()
	}
	return v
}

func TestDecodeGarbageDoesNotPanic(t *testing.T) {
	rng := rand.New(rand.NewSource(303))
	sh := NewShape(4, 4, 16, 16, true)
	levels := make([]int32, sh.Size())
	for i := 0; i < 200; i++ {
		data := make([]byte, rng.Intn(64))
		rng.Read(data)
		br := bitio.NewBinReader(bitio.NewContextSet(NumContexts), data)
		for j := 0; j < 4; j++ {
			if err := Decode(br, levels, sh); err != nil {
				break
			}
			for _, l := range levels {
				if l > MaxLevel || l < -MaxLevel {
					t.Fatalf("level %d out of range", l)
				}
			}
		}
	}
}

func TestScanOrder(t *testing.T) {
	for lw := 1; lw <= MaxCodedLog2; lw++ {
		for lh := 1; lh <= MaxCodedLog2; lh++ {
			scan := ScanFor(1<<lw, 1<<lh)
			seen := make([]bool, scan.W*scan.H)
			for s, p := range scan.Pos {
				i := int(p.Y)*scan.W + int(p.X)
				if seen[i] {
					t.Fatalf("%dx%d: position %v scanned twice", scan.W, scan.H, p)
				}
				seen[i] = true
				if int(scan.Index[i]) != s {
					t.Fatalf("%dx%d: index mismatch at %v", scan.W, scan.H, p)
				}
				// Template neighbours are coded before p in reverse order.
				for _, d := range [][2]int{{1, 0}, {2, 0}, {0, 1}, {0, 2}, {1, 1}} {
					nx, ny := int(p.X)+d[0], int(p.Y)+d[1]
					if nx < scan.W && ny < scan.H && int(scan.Index[ny*scan.W+nx]) < s {
						t.Fatalf("%dx%d: neighbour (%d,%d) of %v precedes it", scan.W, scan.H, nx, ny, p)
					}
				}
			}
			if scan.Pos[0] != (Pos{}) {
				t.Fatalf("scan does not start at DC")
			}
		}
	}
}
