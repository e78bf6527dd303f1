package vvc

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"math"
	"math/rand"
	"slices"
	"strings"
	"testing"
)

// testPicture returns a gradient with a checkerboard and a little noise.
func testPicture(w, h, bitDepth int, seed int64) *Picture {
	rng := rand.New(rand.NewSource(seed))
	p := NewPicture(w, h, bitDepth)
	hi := int32(1)<<bitDepth - 1
	scale := int32(1) << (bitDepth - 8)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := int32(32+x+y/2+24*((x/8+y/8)&1)+rng.Intn(5)-2) * scale
			p.Pix[y*w+x] = min(max(v, 0), hi)
		}
	}
	return p
}

// shifted returns p displaced by (dx, dy) with edge samples repeated.
func shifted(p *Picture, dx, dy int) *Picture {
	s := p.Clone()
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			s.Pix[y*p.Width+x] = p.at(x-dx, y-dy)
		}
	}
	return s
}

func psnr(a, b *Picture) float64 {
	var sse float64
	for i, v := range a.Pix {
		d := float64(v - b.Pix[i])
		sse += d * d
	}
	if sse == 0 {
		return math.Inf(1)
	}
	peak := float64(int(1)<<a.BitDepth - 1)
	return 10 * math.Log10(peak*peak*float64(len(a.Pix))/sse)
}

// encodeDecode encodes pic against ref, decodes the stream against
// decRef and checks that the decoder reproduces the encoder's
// reconstruction.
func encodeDecode(t *testing.T, cfg *Config, pic, ref, decRef *Picture) ([]byte, *Picture) {
	t.Helper()
	enc, err := NewEncoder(cfg, nil)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	data, rec, err := enc.Encode(pic, ref)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	dec, err := NewDecoder(nil)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	out, err := dec.Decode(data, decRef)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Width != rec.Width || out.Height != rec.Height {
		t.Fatalf("decoded %dx%d, encoded %dx%d", out.Width, out.Height, rec.Width, rec.Height)
	}
	for i, v := range rec.Pix {
		if out.Pix[i] != v {
			t.Fatalf("sample (%d,%d): decoded %d, encoder reconstructed %d",
				i%rec.Width, i/rec.Width, out.Pix[i], v)
		}
	}
	return data, rec
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(27)
	if cfg.QP != 27 || !cfg.RDOQ || !cfg.SignHiding {
		t.Errorf("DefaultConfig(27) = QP %d RDOQ %v SignHiding %v", cfg.QP, cfg.RDOQ, cfg.SignHiding)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := DefaultConfig(100).QP; got != 63 {
		t.Errorf("DefaultConfig(100).QP = %d, want 63", got)
	}
	if got := DefaultConfig(-20).QP; got != 0 {
		t.Errorf("DefaultConfig(-20).QP = %d, want 0", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"qp above max", func(c *Config) { c.QP = 64 }},
		{"qp below bit depth min", func(c *Config) { c.QP = -1 }},
		{"negative lambda", func(c *Config) { c.Lambda = -5 }},
		{"search range", func(c *Config) { c.SearchRange = MaxSearchRange + 1 }},
		{"bit depth", func(c *Config) { c.Transform.BitDepth = 7 }},
		{"transform size", func(c *Config) { c.Transform.MaxTransformLog2 = 8 }},
		{"ctu not pow2", func(c *Config) { c.Tree.CTUSize = 48 }},
		{"ctu too large", func(c *Config) { c.Tree.CTUSize = 256 }},
		{"min qt below min cu", func(c *Config) { c.Tree.MinQTSize = 2 }},
		{"mt depth", func(c *Config) { c.Tree.MaxMTDepth = 16 }},
		{"bt size", func(c *Config) { c.Tree.MaxBTSize = 256 }},
		{"pcm window", func(c *Config) { c.Tree.EnablePCM, c.Tree.PCMMinSize, c.Tree.PCMMaxSize = true, 16, 8 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(27)
			tt.modify(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrConfig) {
				t.Fatalf("Validate = %v, want ErrConfig", err)
			}
			if _, err := NewEncoder(cfg, nil); !errors.Is(err, ErrConfig) {
				t.Fatalf("NewEncoder = %v, want ErrConfig", err)
			}
		})
	}
}

func TestEncodeDecodeIntra(t *testing.T) {
	tests := []struct {
		name     string
		bitDepth int
		modify   func(*Config)
		minPSNR  float64
	}{
		{"default", 8, func(*Config) {}, 26},
		{"low qp", 8, func(c *Config) { c.QP = 12 }, 34},
		{"scalar quant", 8, func(c *Config) { c.RDOQ, c.SignHiding = false, false }, 26},
		{"ctu32 pcm", 8, func(c *Config) {
			c.Tree.CTUSize, c.Tree.EnablePCM, c.Tree.PCMMinSize, c.Tree.PCMMaxSize = 32, true, 8, 16
		}, 26},
		{"ctu128 tu32", 8, func(c *Config) {
			c.Tree.CTUSize = 128
			c.Transform.MaxTransformLog2 = 5
		}, 26},
		{"binary only", 8, func(c *Config) { c.Tree.EnableTT, c.Tree.MaxMTDepth = false, 3 }, 26},
		{"10 bit klt", 10, func(c *Config) {
			c.Transform.BitDepth = 10
			c.Transform.EnableKLT, c.Transform.KLTHighPrecision = true, true
		}, 26},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(27)
			tt.modify(cfg)
			pic := testPicture(72, 40, tt.bitDepth, 1)
			_, rec := encodeDecode(t, cfg, pic, nil, nil)
			if p := psnr(pic, rec); p < tt.minPSNR {
				t.Errorf("PSNR %.2f dB, want at least %.0f", p, tt.minPSNR)
			}
		})
	}
}

func TestEncodeDecodeInter(t *testing.T) {
	cfg := DefaultConfig(27)
	pic0 := testPicture(64, 48, 8, 2)
	data0, rec0 := encodeDecode(t, cfg, pic0, nil, nil)

	dec, err := NewDecoder(nil)
	if err != nil {
		t.Fatal(err)
	}
	dec0, err := dec.Decode(data0, nil)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("motion", func(t *testing.T) {
		pic1 := shifted(pic0, 2, -1)
		_, rec1 := encodeDecode(t, cfg, pic1, rec0, dec0)
		if p := psnr(pic1, rec1); p < 26 {
			t.Errorf("PSNR %.2f dB, want at least 26", p)
		}
	})

	t.Run("static", func(t *testing.T) {
		data1, _ := encodeDecode(t, cfg, rec0, rec0, dec0)
		if len(data1)*2 >= len(data0) {
			t.Errorf("static picture took %d bytes, intra %d", len(data1), len(data0))
		}
	})
}

func TestParallelSplitDeterministic(t *testing.T) {
	pic := testPicture(72, 40, 8, 3)
	ref := shifted(pic, 1, 1)
	for _, inter := range []bool{false, true} {
		var r *Picture
		if inter {
			r = ref
		}
		var streams [2][]byte
		var stats [2]SearchStats
		for i, parallel := range []bool{false, true} {
			cfg := DefaultConfig(30)
			cfg.Tree.ParallelSplit = parallel
			enc, err := NewEncoder(cfg, nil)
			if err != nil {
				t.Fatal(err)
			}
			data, _, err := enc.Encode(pic, r)
			if err != nil {
				t.Fatal(err)
			}
			streams[i], stats[i] = data, enc.Stats()
		}
		if !bytes.Equal(streams[0], streams[1]) {
			t.Errorf("inter=%v: parallel stream differs from sequential", inter)
		}
		if stats[0] != stats[1] {
			t.Errorf("inter=%v: stats %+v vs %+v", inter, stats[0], stats[1])
		}
		if stats[0].Forks == 0 {
			t.Errorf("inter=%v: no binary split pair was forked", inter)
		}
	}
}

func TestSplitHintsReuse(t *testing.T) {
	pic := testPicture(64, 64, 8, 4)
	enc, err := NewEncoder(DefaultConfig(32), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := enc.Encode(pic, nil); err != nil {
		t.Fatal(err)
	}
	hints, err := enc.Hints()
	if err != nil {
		t.Fatalf("Hints: %v", err)
	}

	cfg := DefaultConfig(32)
	cfg.Tree.UseSplitHints = true
	enc2, err := NewEncoder(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc2.LoadHints(hints); err != nil {
		t.Fatalf("LoadHints: %v", err)
	}
	data, rec, err := enc2.Encode(pic, nil)
	if err != nil {
		t.Fatal(err)
	}
	dec, _ := NewDecoder(nil)
	out, err := dec.Decode(data, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(out.Pix, rec.Pix) {
		t.Fatal("decoder disagrees with hinted encoder")
	}
	if err := enc2.LoadHints([]byte("bogus")); err == nil {
		t.Fatal("LoadHints accepted garbage")
	}
}

func TestEncoderLogsCTUs(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig(27)
	cfg.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	enc, err := NewEncoder(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := enc.Encode(testPicture(128, 64, 8, 5), nil); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "vvc: ctu"); n != 2 {
		t.Errorf("logged %d CTUs, want 2:\n%s", n, buf.String())
	}
}

func TestEncodeErrors(t *testing.T) {
	enc, err := NewEncoder(DefaultConfig(27), nil)
	if err != nil {
		t.Fatal(err)
	}
	pic := testPicture(32, 32, 8, 6)
	outOfRange := NewPicture(4, 4, 8)
	outOfRange.Pix[5] = 256
	tests := []struct {
		name     string
		pic, ref *Picture
	}{
		{"nil picture", nil, nil},
		{"short samples", &Picture{Width: 8, Height: 8, BitDepth: 8, Pix: make([]int32, 10)}, nil},
		{"bit depth", testPicture(32, 32, 10, 6), nil},
		{"size not multiple of min CU", testPicture(30, 32, 8, 6), nil},
		{"sample range", outOfRange, nil},
		{"reference size", pic, testPicture(16, 32, 8, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := enc.Encode(tt.pic, tt.ref); !errors.Is(err, ErrPictureSize) {
				t.Fatalf("Encode = %v, want ErrPictureSize", err)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	cfg := DefaultConfig(27)
	pic := testPicture(32, 32, 8, 7)
	enc, _ := NewEncoder(cfg, nil)
	intra, rec, err := enc.Encode(pic, nil)
	if err != nil {
		t.Fatal(err)
	}
	inter, _, err := enc.Encode(pic, rec)
	if err != nil {
		t.Fatal(err)
	}
	dec, _ := NewDecoder(nil)

	if _, err := dec.Decode(nil, nil); !errors.Is(err, ErrCorrupt) {
		t.Errorf("empty stream: %v", err)
	}
	bad := slices.Clone(intra)
	bad[0] = 'X'
	if _, err := dec.Decode(bad, nil); !errors.Is(err, ErrCorrupt) {
		t.Errorf("bad magic: %v", err)
	}
	if _, err := dec.Decode(intra[:6], nil); !errors.Is(err, ErrCorrupt) {
		t.Errorf("truncated header: %v", err)
	}
	if _, err := dec.Decode(inter, nil); !errors.Is(err, ErrNoReference) {
		t.Errorf("inter without reference: %v", err)
	}
	if _, err := dec.Decode(inter, testPicture(16, 16, 8, 7)); !errors.Is(err, ErrPictureSize) {
		t.Errorf("reference size: %v", err)
	}
	small, _ := NewDecoder(&DecoderConfig{MaxPixels: 16 * 16})
	if _, err := small.Decode(intra, nil); !errors.Is(err, ErrPictureSize) {
		t.Errorf("pixel limit: %v", err)
	}
	if _, err := NewDecoder(&DecoderConfig{MaxPixels: -1}); !errors.Is(err, ErrConfig) {
		t.Errorf("negative MaxPixels: %v", err)
	}
	// Truncated payloads may decode to garbage but must not panic.
	for n := len(intra) - 1; n > len(intra)/2; n-- {
		dec.Decode(intra[:n], nil)
	}
}

func TestDCPredictor(t *testing.T) {
	var p DCPredictor
	dst := make([]int32, 4)
	a := Area{X: 4, Y: 4, W: 2, H: 2}

	p.Intra(dst, a, Neighbours{}, 10)
	if dst[0] != 512 || dst[3] != 512 {
		t.Errorf("no neighbours: %v, want 512", dst)
	}
	p.Intra(dst, a, Neighbours{Above: []int32{10, 20}, Left: []int32{30, 41}}, 8)
	if want := int32((101 + 2) / 4); dst[1] != want {
		t.Errorf("DC = %d, want %d", dst[1], want)
	}

	ref := NewPicture(4, 4, 8)
	for i := range ref.Pix {
		ref.Pix[i] = int32(i)
	}
	p.Inter(dst, Area{X: 0, Y: 0, W: 2, H: 2}, MotionVector{X: -1, Y: 3}, ref)
	if want := []int32{12, 12, 12, 12}; !slices.Equal(dst, want) {
		t.Errorf("clamped inter = %v, want %v", dst, want)
	}
	p.Inter(dst, Area{X: 0, Y: 0, W: 2, H: 2}, MotionVector{X: 1, Y: 1}, ref)
	if want := []int32{5, 6, 9, 10}; !slices.Equal(dst, want) {
		t.Errorf("inter = %v, want %v", dst, want)
	}
}

func TestPictureImage(t *testing.T) {
	img := image.NewGray(image.Rect(2, 3, 10, 7))
	for y := 3; y < 7; y++ {
		for x := 2; x < 10; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * y)})
		}
	}
	p := PictureFromImage(img)
	if p.Width != 8 || p.Height != 4 || p.Pix[0] != 6 {
		t.Fatalf("PictureFromImage = %dx%d, first sample %d", p.Width, p.Height, p.Pix[0])
	}
	g := p.Gray()
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			if got, want := g.GrayAt(x, y).Y, img.GrayAt(x+2, y+3).Y; got != want {
				t.Fatalf("(%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}

	rgba := image.NewRGBA(image.Rect(0, 0, 2, 1))
	rgba.Set(1, 0, color.White)
	if q := PictureFromImage(rgba); q.Pix[0] != 0 || q.Pix[1] != 255 {
		t.Errorf("RGBA luma = %v", q.Pix)
	}
}

func BenchmarkEncodeIntra(b *testing.B) {
	pic := testPicture(128, 128, 8, 8)
	enc, err := NewEncoder(DefaultConfig(32), nil)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := enc.Encode(pic, nil); err != nil {
			b.Fatal(err)
		}
	}
}
