//go:build !amd64 && !arm64

package dsp

// detectLanes reports no vector support; every kernel runs scalar.
func detectLanes() int { return 0 }
