// Package vvc is a block-based video coding core: a luma-only intra/inter
// picture encoder and decoder built on integer transforms, scalar and
// rate-distortion optimised quantization, context-adaptive binary
// arithmetic coding of residuals and a recursive coding-tree search.
//
// The encoder partitions each coding tree unit with quad, binary and
// ternary splits, tries merge-skip, motion-compensated, DC intra and PCM
// coding for every leaf and keeps the cheapest tree under the Lagrangian
// cost dist + lambda*rate. The decoder parses the same syntax and
// reproduces the encoder's reconstruction exactly.
//
// Basic usage:
//
//	enc, err := vvc.NewEncoder(vvc.DefaultConfig(32), nil)
//	data, recon, err := enc.Encode(pic, nil)
//	dec, err := vvc.NewDecoder(nil)
//	out, err := dec.Decode(data, nil)
package vvc
