package vvc

import (
	"fmt"
	"log/slog"

	"github.com/deepteams/vvc/internal/bitio"
	"github.com/deepteams/vvc/internal/modectrl"
	"github.com/deepteams/vvc/internal/residual"
)

// DefaultMaxPixels is the default picture size limit of a Decoder.
const DefaultMaxPixels = 1 << 26

// DecoderConfig controls decoding.
type DecoderConfig struct {
	// Predictor must match the encoder's. Nil selects DCPredictor.
	Predictor Predictor

	// MaxPixels rejects pictures with more samples (0 selects
	// DefaultMaxPixels).
	MaxPixels int

	// Logger receives per-picture summaries at debug level. Nil discards
	// them.
	Logger *slog.Logger
}

// Decoder reconstructs pictures from streams written by Encoder.
type Decoder struct {
	pred      Predictor
	maxPixels int
	log       *slog.Logger
}

// NewDecoder returns a decoder. A nil cfg selects the defaults.
func NewDecoder(cfg *DecoderConfig) (*Decoder, error) {
	if cfg == nil {
		cfg = &DecoderConfig{}
	}
	if cfg.MaxPixels < 0 {
		return nil, fmt.Errorf("%w: MaxPixels %d", ErrConfig, cfg.MaxPixels)
	}
	d := &Decoder{pred: cfg.Predictor, maxPixels: cfg.MaxPixels, log: cfg.Logger}
	if d.pred == nil {
		d.pred = DCPredictor{}
	}
	if d.maxPixels == 0 {
		d.maxPixels = DefaultMaxPixels
	}
	if d.log == nil {
		d.log = slog.New(slog.DiscardHandler)
	}
	return d, nil
}

// Decode reconstructs the picture coded in data. Inter pictures need the
// reference the encoder used.
func (d *Decoder) Decode(data []byte, ref *Picture) (*Picture, error) {
	h, payload, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	t := h.cp.tree
	if t.PictureW*t.PictureH > d.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d samples", ErrPictureSize, t.PictureW, t.PictureH, d.maxPixels)
	}
	if h.inter {
		if ref == nil {
			return nil, ErrNoReference
		}
		if ref.Width != t.PictureW || ref.Height != t.PictureH || ref.BitDepth != h.cp.params.BitDepth || len(ref.Pix) != ref.Width*ref.Height {
			return nil, fmt.Errorf("%w: reference %dx%d for a %dx%d picture", ErrPictureSize, ref.Width, ref.Height, t.PictureW, t.PictureH)
		}
	}

	pd := &pictureDecoder{
		cp:   h.cp,
		pred: d.pred,
		ref:  ref,
		pic:  NewPicture(t.PictureW, t.PictureH, h.cp.params.BitDepth),
		br:   bitio.NewBinReader(bitio.NewContextSet(numContexts), payload),
	}
	pd.rec = pictureCanvas(pd.pic)
	for y := 0; y < t.PictureH; y += t.CTUSize {
		for x := 0; x < t.PictureW; x += t.CTUSize {
			root := modectrl.Node{Area: Area{X: x, Y: y, W: t.CTUSize, H: t.CTUSize}, QP: h.cp.qp}
			if err := pd.tree(root); err != nil {
				return nil, err
			}
		}
	}
	d.log.Debug("vvc: decoded picture",
		slog.Int("width", t.PictureW),
		slog.Int("height", t.PictureH),
		slog.Bool("inter", h.inter),
		slog.Int("cus", pd.numCUs),
	)
	return pd.pic, nil
}

// pictureDecoder parses the coding trees of one picture.
type pictureDecoder struct {
	cp     *codingParams
	pred   Predictor
	ref    *Picture
	pic    *Picture
	rec    *canvas
	br     *bitio.BinReader
	numCUs int

	above, left [maxCTUSize]int32
}

func (pd *pictureDecoder) tree(n modectrl.Node) error {
	t := pd.cp.tree
	a := n.Area
	terms := t.TerminalKinds(a)
	s, err := decodeSplit(pd.br, n, t.AllowedSplits(a, n.QTDepth, n.MTDepth), len(terms) > 0)
	if err != nil {
		return err
	}
	if s == modectrl.NoSplit {
		return pd.cu(a, terms)
	}
	qt, mt := modectrl.ChildDepths(s, n.QTDepth, n.MTDepth)
	for _, c := range modectrl.Partition(a, s) {
		if !t.Visible(c) {
			continue
		}
		if err := pd.tree(modectrl.Node{Area: c, QTDepth: qt, MTDepth: mt, QP: n.QP}); err != nil {
			return err
		}
	}
	return nil
}

func (pd *pictureDecoder) cu(a Area, terms []modectrl.Kind) error {
	cp := pd.cp
	k := terms[decodeIndex(pd.br, len(terms), ctxMode)]
	recon := make([]int32, a.Size())
	pd.numCUs++

	switch k {
	case modectrl.KindMergeSkip:
		pd.pred.Inter(recon, a, MotionVector{}, pd.ref)
		return pd.commit(a, recon)
	case modectrl.KindPCM:
		for i := range recon {
			recon[i] = int32(pd.br.DecodeBinsEP(cp.params.BitDepth))
		}
		return pd.commit(a, recon)
	}

	pred := make([]int32, a.Size())
	intra := k == modectrl.KindIntra
	useKLT := false
	if intra {
		if cp.kltAllowed(a) {
			useKLT = pd.br.DecodeBin(ctxKLT) != 0
		}
		pd.pred.Intra(pred, a, pd.rec.neighbours(a, pd.above[:], pd.left[:]), cp.params.BitDepth)
	} else {
		mv, err := decodeMVD(pd.br)
		if err != nil {
			return err
		}
		pd.pred.Inter(pred, a, mv, pd.ref)
	}

	tw, th := cp.tuSize(a)
	lw, lh := Area{W: tw, H: th}.Log2()
	levels := make([]int32, tw*th)
	for ty := 0; ty < a.H; ty += th {
		for tx := 0; tx < a.W; tx += tw {
			tu := modectrl.TransformUnit{
				Area:   Area{X: a.X + tx, Y: a.Y + ty, W: tw, H: th},
				Set:    cp.params.Select(lw, lh, intra, useKLT),
				Levels: levels,
			}
			if err := residual.Decode(pd.br, levels, cp.shape(&tu)); err != nil {
				return fmt.Errorf("%w: %w", ErrCorrupt, err)
			}
			for _, l := range levels {
				if l != 0 {
					tu.NumNonZero++
				}
			}
			cp.reconstruct(&tu, a, pred, recon)
		}
	}
	return pd.commit(a, recon)
}

func (pd *pictureDecoder) commit(a Area, recon []int32) error {
	if pd.br.Overrun() {
		return fmt.Errorf("%w: payload overrun at %v", ErrCorrupt, a)
	}
	pd.rec.set(a, recon)
	return nil
}
