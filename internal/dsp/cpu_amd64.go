//go:build amd64

package dsp

import "golang.org/x/sys/cpu"

// detectLanes probes the vector width the matrix lane kernels may use.
func detectLanes() int {
	switch {
	case cpu.X86.HasAVX2:
		return 8
	case cpu.X86.HasSSE41:
		return 4
	}
	return 0
}
