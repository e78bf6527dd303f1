//go:build arm64

package dsp

import "golang.org/x/sys/cpu"

func detectLanes() int {
	if cpu.ARM64.HasASIMD {
		return 4
	}
	return 0
}
