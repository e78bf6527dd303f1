package vvc

import (
	"fmt"
	"log/slog"

	"github.com/deepteams/vvc/internal/bitio"
	"github.com/deepteams/vvc/internal/modectrl"
)

// SearchStats counts the work of the coding-tree search of a picture.
type SearchStats = modectrl.SearchStats

// Encoder codes pictures. It keeps the split decisions of the last picture
// so a later pass can reuse them. An Encoder is not safe for concurrent
// use.
type Encoder struct {
	cfg   Config
	pred  Predictor
	log   *slog.Logger
	prior *modectrl.SplitHintCache
	hints *modectrl.SplitHintCache
	stats SearchStats
}

// NewEncoder validates cfg and returns an encoder. A nil cfg selects
// DefaultConfig(32); pred nil selects DCPredictor.
func NewEncoder(cfg *Config, pred Predictor) (*Encoder, error) {
	if cfg == nil {
		cfg = DefaultConfig(32)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if pred == nil {
		pred = DCPredictor{}
	}
	return &Encoder{cfg: *cfg, pred: pred, log: cfg.logger()}, nil
}

// Encode codes pic, predicting inter units from ref when it is non-nil,
// and returns the stream with the reconstruction a decoder will produce.
func (e *Encoder) Encode(pic, ref *Picture) ([]byte, *Picture, error) {
	if pic == nil || len(pic.Pix) != pic.Width*pic.Height {
		return nil, nil, fmt.Errorf("%w: missing samples", ErrPictureSize)
	}
	bd := e.cfg.Transform.BitDepth
	if pic.BitDepth != bd {
		return nil, nil, fmt.Errorf("%w: %d-bit picture for a %d-bit configuration", ErrPictureSize, pic.BitDepth, bd)
	}
	hi := int32(1)<<bd - 1
	for _, v := range pic.Pix {
		if v < 0 || v > hi {
			return nil, nil, fmt.Errorf("%w: sample %d outside [0, %d]", ErrPictureSize, v, hi)
		}
	}
	if ref != nil && (ref.Width != pic.Width || ref.Height != pic.Height || ref.BitDepth != bd || len(ref.Pix) != len(pic.Pix)) {
		return nil, nil, fmt.Errorf("%w: reference %dx%d for a %dx%d picture", ErrPictureSize, ref.Width, ref.Height, pic.Width, pic.Height)
	}
	tree, err := e.cfg.treeFor(pic.Width, pic.Height, ref != nil)
	if err != nil {
		return nil, nil, err
	}
	ctrl, err := modectrl.NewController(tree)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	ctrl.SetPriorHints(e.prior)
	search := modectrl.NewSearch(ctrl)

	cp := &codingParams{tree: ctrl.Config(), params: e.cfg.Transform, qp: e.cfg.QP, signHiding: e.cfg.SignHiding}
	hdr := header{cp: cp, inter: ref != nil}
	rec := NewPicture(pic.Width, pic.Height, bd)
	bw := bitio.NewBinWriter(bitio.NewContextSet(numContexts), pic.Width*pic.Height/4)

	size := tree.CTUSize
	for y := 0; y < pic.Height; y += size {
		for x := 0; x < pic.Width; x += size {
			ctu := Area{X: x, Y: y, W: size, H: size}
			sh := newCTUShared(&e.cfg, cp, e.pred, pic, ref, bw.Contexts().Clone())
			root := modectrl.Node{Area: ctu, QP: e.cfg.QP}
			best := search.Run(newCTUEval(sh, rec, ctu), root)

			cp.writeTree(bw, root, best)
			for _, cu := range best.CUs {
				rec.setBlock(cu.Area, cu.Recon)
			}
			e.log.Debug("vvc: ctu",
				slog.String("area", ctu.String()),
				slog.String("split", best.Mode.Kind().String()),
				slog.Int("cus", len(best.CUs)),
				slog.Uint64("dist", best.Dist),
				slog.Uint64("bits", best.FracBits>>8),
			)
		}
	}

	e.hints = ctrl.Hints()
	e.stats = search.Stats()
	out := hdr.marshal()
	out = append(out, bw.Finish()...)
	e.log.Debug("vvc: picture",
		slog.Int("width", pic.Width),
		slog.Int("height", pic.Height),
		slog.Bool("inter", ref != nil),
		slog.Int("bytes", len(out)),
		slog.Int64("nodes", e.stats.Nodes),
		slog.Int64("pruned", e.stats.Pruned),
	)
	return out, rec, nil
}

// Stats returns the search counters of the last picture.
func (e *Encoder) Stats() SearchStats { return e.stats }

// Hints serializes the split decisions of the last picture.
func (e *Encoder) Hints() ([]byte, error) {
	if e.hints == nil {
		return modectrl.NewSplitHintCache().MarshalBinary()
	}
	return e.hints.MarshalBinary()
}

// LoadHints installs split decisions saved by Hints. They bias the search
// of the following pictures when Config.Tree.UseSplitHints is set.
func (e *Encoder) LoadHints(data []byte) error {
	h := modectrl.NewSplitHintCache()
	if err := h.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("vvc: loading split hints: %w", err)
	}
	e.prior = h
	return nil
}
