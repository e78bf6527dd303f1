package modectrl

import (
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// layered is an area-keyed map whose forks see the parent's entries and
// write only to their own layer. A parent must not be written while forks
// of it are alive.
type layered[V any] struct {
	parent *layered[V]
	m      map[Area]V
}

func newLayered[V any]() *layered[V] {
	return &layered[V]{m: make(map[Area]V)}
}

func (l *layered[V]) get(a Area) (V, bool) {
	for x := l; x != nil; x = x.parent {
		if v, ok := x.m[a]; ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

func (l *layered[V]) set(a Area, v V) { l.m[a] = v }

func (l *layered[V]) fork() *layered[V] {
	return &layered[V]{parent: l, m: make(map[Area]V)}
}

// merge folds the writes of a fork of l into l.
func (l *layered[V]) merge(child *layered[V]) {
	if child.parent != l {
		panic("modectrl: merge of a foreign cache layer")
	}
	for k, v := range child.m {
		l.m[k] = v
	}
}

// flatten returns every visible entry.
func (l *layered[V]) flatten() map[Area]V {
	out := make(map[Area]V)
	var chain []*layered[V]
	for x := l; x != nil; x = x.parent {
		chain = append(chain, x)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].m {
			out[k] = v
		}
	}
	return out
}

// BlockInfo is what a committed coding unit leaves behind for later
// trials over the same area.
type BlockInfo struct {
	Mode    Kind
	Cost    uint64
	MV      MotionVector
	MVValid bool
}

// BlockInfoCache keeps the committed result of every area. Lookups may
// miss, callers then run the full trial.
type BlockInfoCache struct {
	l *layered[BlockInfo]
}

// NewBlockInfoCache returns an empty cache.
func NewBlockInfoCache() *BlockInfoCache {
	return &BlockInfoCache{l: newLayered[BlockInfo]()}
}

// Lookup returns the info stored for a.
func (c *BlockInfoCache) Lookup(a Area) (BlockInfo, bool) { return c.l.get(a) }

// Store records the info of a.
func (c *BlockInfoCache) Store(a Area, bi BlockInfo) { c.l.set(a, bi) }

func (c *BlockInfoCache) fork() *BlockInfoCache { return &BlockInfoCache{l: c.l.fork()} }

func (c *BlockInfoCache) merge(f *BlockInfoCache) { c.l.merge(f.l) }

// SplitHint is the decision recorded for an area in an earlier pass or
// along an earlier partition path.
type SplitHint struct {
	Split SplitKind
	QP    int
}

// SplitHintCache keeps the best split of every committed area and can be
// saved between encoding passes.
type SplitHintCache struct {
	l *layered[SplitHint]
}

// NewSplitHintCache returns an empty cache.
func NewSplitHintCache() *SplitHintCache {
	return &SplitHintCache{l: newLayered[SplitHint]()}
}

// Lookup returns the hint stored for a.
func (c *SplitHintCache) Lookup(a Area) (SplitHint, bool) { return c.l.get(a) }

// Store records the hint of a.
func (c *SplitHintCache) Store(a Area, h SplitHint) { c.l.set(a, h) }

// Len returns the number of visible hints.
func (c *SplitHintCache) Len() int { return len(c.l.flatten()) }

func (c *SplitHintCache) fork() *SplitHintCache { return &SplitHintCache{l: c.l.fork()} }

func (c *SplitHintCache) merge(f *SplitHintCache) { c.l.merge(f.l) }

// ErrHintSnapshot is returned when a hint snapshot cannot be parsed.
var ErrHintSnapshot = errors.New("modectrl: invalid split hint snapshot")

var hintMagic = [4]byte{'V', 'S', 'H', '1'}

var (
	zstdEncPool = sync.Pool{New: func() any { return mustNewZstdEncoder() }}
	zstdDecPool = sync.Pool{New: func() any { return mustNewZstdDecoder() }}
)

func mustNewZstdEncoder() *zstd.Encoder {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		panic(err)
	}
	return enc
}

func mustNewZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		panic(err)
	}
	return dec
}

// MarshalBinary serializes the visible hints, sorted by area, into a
// zstd-compressed snapshot.
func (c *SplitHintCache) MarshalBinary() ([]byte, error) {
	all := c.l.flatten()
	keys := make([]Area, 0, len(all))
	for a := range all {
		keys = append(keys, a)
	}
	slices.SortFunc(keys, func(a, b Area) int {
		return cmp.Or(cmp.Compare(a.Y, b.Y), cmp.Compare(a.X, b.X), cmp.Compare(a.H, b.H), cmp.Compare(a.W, b.W))
	})

	raw := append([]byte(nil), hintMagic[:]...)
	raw = binary.AppendUvarint(raw, uint64(len(keys)))
	for _, a := range keys {
		h := all[a]
		raw = binary.AppendUvarint(raw, uint64(a.X))
		raw = binary.AppendUvarint(raw, uint64(a.Y))
		raw = binary.AppendUvarint(raw, uint64(a.W))
		raw = binary.AppendUvarint(raw, uint64(a.H))
		raw = append(raw, byte(h.Split))
		raw = binary.AppendVarint(raw, int64(h.QP))
	}

	enc := zstdEncPool.Get().(*zstd.Encoder)
	defer zstdEncPool.Put(enc)
	return enc.EncodeAll(raw, nil), nil
}

// UnmarshalBinary replaces the hints with those of a snapshot.
func (c *SplitHintCache) UnmarshalBinary(data []byte) error {
	dec := zstdDecPool.Get().(*zstd.Decoder)
	defer zstdDecPool.Put(dec)
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("%w: zstd decode: %w", ErrHintSnapshot, err)
	}
	if len(raw) < len(hintMagic) || [4]byte(raw[:4]) != hintMagic {
		return fmt.Errorf("%w: bad magic", ErrHintSnapshot)
	}
	raw = raw[4:]

	next := func() (uint64, error) {
		v, n := binary.Uvarint(raw)
		if n <= 0 {
			return 0, fmt.Errorf("%w: truncated", ErrHintSnapshot)
		}
		raw = raw[n:]
		return v, nil
	}
	count, err := next()
	if err != nil {
		return err
	}
	m := make(map[Area]SplitHint, min(count, 1<<16))
	for i := uint64(0); i < count; i++ {
		var f [4]uint64
		for j := range f {
			if f[j], err = next(); err != nil {
				return err
			}
			if f[j] > 1<<20 {
				return fmt.Errorf("%w: area field %d", ErrHintSnapshot, f[j])
			}
		}
		if len(raw) < 1 {
			return fmt.Errorf("%w: truncated", ErrHintSnapshot)
		}
		split := SplitKind(raw[0])
		raw = raw[1:]
		if split >= NumSplitKinds {
			return fmt.Errorf("%w: split kind %d", ErrHintSnapshot, split)
		}
		qp, n := binary.Varint(raw)
		if n <= 0 {
			return fmt.Errorf("%w: truncated", ErrHintSnapshot)
		}
		raw = raw[n:]
		m[Area{int(f[0]), int(f[1]), int(f[2]), int(f[3])}] = SplitHint{Split: split, QP: int(qp)}
	}
	c.l = &layered[SplitHint]{m: m}
	return nil
}
