package bitio

import (
	"math/rand"
	"testing"
)

type binOp struct {
	bypass bool
	ctx    int
	bin    uint32
	n      int // bypass run length, 0 for a single bin
}

func randomOps(rng *rand.Rand, count, numCtx int) []binOp {
	ops := make([]binOp, count)
	for i := range ops {
		switch r := rng.Intn(10); {
		case r < 6:
			ctx := rng.Intn(numCtx)
			// Skewed sources so the models actually adapt.
			bin := uint32(0)
			if rng.Intn(100) < 10+ctx*20 {
				bin = 1
			}
			ops[i] = binOp{ctx: ctx, bin: bin}
		case r < 8:
			ops[i] = binOp{bypass: true, bin: uint32(rng.Intn(2))}
		default:
			n := 1 + rng.Intn(16)
			ops[i] = binOp{bypass: true, n: n, bin: uint32(rng.Intn(1 << n))}
		}
	}
	return ops
}

func TestBinWriterReaderRoundTrip(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		ops := randomOps(rng, 2000+rng.Intn(2000), 5)

		bw := NewBinWriter(NewContextSet(5), 0)
		for _, op := range ops {
			switch {
			case !op.bypass:
				bw.EncodeBin(op.bin, op.ctx)
			case op.n == 0:
				bw.EncodeBinEP(op.bin)
			default:
				bw.EncodeBinsEP(op.bin, op.n)
			}
		}
		data := bw.Finish()

		br := NewBinReader(NewContextSet(5), data)
		for i, op := range ops {
			var got uint32
			switch {
			case !op.bypass:
				got = br.DecodeBin(op.ctx)
			case op.n == 0:
				got = br.DecodeBinEP()
			default:
				got = br.DecodeBinsEP(op.n)
			}
			if got != op.bin {
				t.Fatalf("seed %d op %d: got %d, want %d", seed, i, got, op.bin)
			}
		}
		if br.Overrun() {
			t.Fatalf("seed %d: reader overran %d-byte stream", seed, len(data))
		}
	}
}

func TestBinCounterPredictsSize(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ops := randomOps(rng, 20000, 5)

	bw := NewBinWriter(NewContextSet(5), 0)
	bc := NewBinCounter(NewContextSet(5))
	for _, op := range ops {
		switch {
		case !op.bypass:
			bw.EncodeBin(op.bin, op.ctx)
			bc.EncodeBin(op.bin, op.ctx)
		case op.n == 0:
			bw.EncodeBinEP(op.bin)
			bc.EncodeBinEP(op.bin)
		default:
			bw.EncodeBinsEP(op.bin, op.n)
			bc.EncodeBinsEP(op.bin, op.n)
		}
	}
	actual := float64(len(bw.Finish()) * 8)
	estimated := float64(bc.FracBits()) / CostOneBit
	if d := estimated/actual - 1; d > 0.05 || d < -0.05 {
		t.Fatalf("estimated %.0f bits, actual %.0f", estimated, actual)
	}
	if bc.Contexts().Model(0).P1() != bw.Contexts().Model(0).P1() {
		t.Fatal("counter and writer contexts diverged")
	}
}

func TestContextModelAdapts(t *testing.T) {
	cs := NewContextSet(1)
	m := cs.Model(0)
	if m.P1() != ProbOne/2 {
		t.Fatalf("initial P1 = %d", m.P1())
	}
	before := m.Cost(1)
	for i := 0; i < 50; i++ {
		m.Update(1)
	}
	if m.P1() <= ProbOne*3/4 {
		t.Fatalf("P1 after ones = %d", m.P1())
	}
	if m.Cost(1) >= before || m.Cost(0) <= before {
		t.Fatalf("costs did not follow the model: c1=%d c0=%d before=%d", m.Cost(1), m.Cost(0), before)
	}
	for i := 0; i < 100000; i++ {
		m.Update(0)
	}
	if m.P1() == 0 || m.prob8() != 255 {
		t.Fatalf("saturated model: P1=%d prob8=%d", m.P1(), m.prob8())
	}
}

func TestContextSetSnapshot(t *testing.T) {
	cs := NewContextSet(3)
	snap := cs.Clone()
	cs.Model(1).Update(1)
	if cs.Model(1).P1() == snap.Model(1).P1() {
		t.Fatal("clone shares state")
	}
	cs.CopyFrom(snap)
	if cs.Model(1).P1() != ProbOne/2 {
		t.Fatal("CopyFrom did not restore")
	}
	defer func() {
		if recover() == nil {
			t.Fatal("size mismatch did not panic")
		}
	}()
	cs.CopyFrom(NewContextSet(2))
}

func TestEntropyCost(t *testing.T) {
	if entropyCost[128] != 256 || entropyCost[256] != 0 || entropyCost[64] != 512 {
		t.Fatalf("cost table: 1/2=%d 1=%d 1/4=%d", entropyCost[128], entropyCost[256], entropyCost[64])
	}
}

func TestFieldWriterReaderRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	type field struct {
		v uint32
		n int
	}
	fields := make([]field, 500)
	fw := NewFieldWriter(16)
	for i := range fields {
		n := rng.Intn(33)
		v := rng.Uint32()
		if n < 32 {
			v &= 1<<uint(n) - 1
		}
		fields[i] = field{v, n}
		fw.WriteBits(v, n)
	}
	size := fw.NumBytes()
	data := fw.Finish()
	if len(data) != size {
		t.Fatalf("NumBytes %d, Finish returned %d", size, len(data))
	}
	fr := NewFieldReader(data)
	for i, f := range fields {
		if got := fr.ReadBits(f.n); got != f.v {
			t.Fatalf("field %d: got %#x, want %#x", i, got, f.v)
		}
	}
	if fr.IsEndOfStream() {
		t.Fatal("unexpected end of stream")
	}
	fr.ReadBits(16)
	fr.ReadBits(16)
	if !fr.IsEndOfStream() {
		t.Fatal("reading past the end not reported")
	}
}
