package vvc

import (
	"fmt"
	"log/slog"

	"github.com/deepteams/vvc/internal/modectrl"
	"github.com/deepteams/vvc/internal/tq"
)

// MaxDimension is the largest picture width or height the stream header
// carries.
const MaxDimension = 1 << 16

// MaxSearchRange bounds the full-sample motion search radius.
const MaxSearchRange = 64

const maxMTDepth = 15

// Config controls encoding. It is read-only while a picture is coded.
type Config struct {
	// QP is the quantization parameter, tq.MaxQP at most and no lower than
	// the minimum of the bit depth.
	QP int

	// Lambda is the Lagrange multiplier in 1/256 units. Zero derives it
	// from QP.
	Lambda int64

	// Transform configures bit depth, the largest transform and the
	// optional transform kernels.
	Transform tq.Params

	// Tree constrains the coding tree. The picture size fields are
	// ignored and taken from each coded picture. InterSlice is set per
	// picture from the presence of a reference.
	Tree modectrl.Config

	// RDOQ enables rate-distortion optimised quantization.
	RDOQ bool

	// SignHiding hides one sign per coefficient group in the level parity.
	SignHiding bool

	// SearchRange is the full-sample motion search radius around the
	// start vector (0 tests the start vector only).
	SearchRange int

	// Logger receives per-CTU decision summaries at debug level. Nil
	// discards them.
	Logger *slog.Logger
}

// DefaultConfig returns an 8-bit configuration at qp, clamped to the valid
// range.
func DefaultConfig(qp int) *Config {
	p := tq.DefaultParams()
	qp = max(p.MinQP(), min(qp, tq.MaxQP))
	return &Config{
		QP:          qp,
		Transform:   p,
		Tree:        modectrl.DefaultConfig(0, 0),
		RDOQ:        true,
		SignHiding:  true,
		SearchRange: 4,
	}
}

// Validate reports configuration errors before any picture is coded.
func (c *Config) Validate() error {
	if err := c.Transform.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := c.quant(true).Validate(c.Transform); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if c.Lambda < 0 {
		return fmt.Errorf("%w: negative lambda %d", ErrConfig, c.Lambda)
	}
	if c.SearchRange < 0 || c.SearchRange > MaxSearchRange {
		return fmt.Errorf("%w: search range %d (must be 0-%d)", ErrConfig, c.SearchRange, MaxSearchRange)
	}
	if c.Tree.MaxMTDepth > maxMTDepth {
		return fmt.Errorf("%w: MT depth %d (must be 0-%d)", ErrConfig, c.Tree.MaxMTDepth, maxMTDepth)
	}
	if c.Tree.MaxBTSize > maxCTUSize || c.Tree.MaxTTSize > maxCTUSize || c.Tree.EnablePCM && c.Tree.PCMMaxSize > maxCTUSize {
		return fmt.Errorf("%w: BT, TT and PCM sizes are limited to %d", ErrConfig, maxCTUSize)
	}
	tree := c.Tree
	tree.PictureW = max(tree.CTUSize, 1)
	tree.PictureH = tree.PictureW
	if err := tree.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return nil
}

// treeFor returns the coding tree configuration of a w×h picture.
func (c *Config) treeFor(w, h int, inter bool) (modectrl.Config, error) {
	tree := c.Tree
	tree.PictureW, tree.PictureH = w, h
	tree.InterSlice = inter
	if w > MaxDimension || h > MaxDimension {
		return tree, fmt.Errorf("%w: %dx%d exceeds %d", ErrPictureSize, w, h, MaxDimension)
	}
	if err := tree.Validate(); err != nil {
		return tree, fmt.Errorf("%w: %w", ErrPictureSize, err)
	}
	return tree, nil
}

func (c *Config) quant(intra bool) tq.QuantContext {
	return tq.QuantContext{
		QP:         c.QP,
		Intra:      intra,
		Lambda:     c.Lambda,
		RDOQ:       c.RDOQ,
		SignHiding: c.SignHiding,
	}
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}
