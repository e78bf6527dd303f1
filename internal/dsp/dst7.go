package dsp

// Fast 4-point DST-VII. Larger DST-VII sizes run through the matrix
// kernels.

func fwdDST7B4(src, dst []int32, shift, line, skipLine, skipLine2 int) {
	active := line - skipLine
	rows := 4 - skipLine2
	var out [4]int64
	for j := 0; j < active; j++ {
		x0, x1, x2, x3 := int64(src[4*j]), int64(src[4*j+1]), int64(src[4*j+2]), int64(src[4*j+3])
		c0 := x0 + x3
		c1 := x1 + x3
		c2 := x0 - x1
		c3 := 74 * x2
		out[0] = 29*c0 + 55*c1 + c3
		out[1] = 74 * (x0 + x1 - x3)
		out[2] = 29*c2 + 55*c0 - c3
		out[3] = 55*c2 - 29*c1 + c3
		for k := 0; k < rows; k++ {
			dst[k*line+j] = int32(roundShift(out[k], shift))
		}
	}
	zeroForwardTail(dst, 4, line, active, rows)
}

func invDST7B4(src, dst []int32, shift, line, skipLine, skipLine2 int, outMin, outMax int32) {
	active := line - skipLine
	rows := 4 - skipLine2
	for j := 0; j < active; j++ {
		var c [4]int64
		for k := 0; k < rows; k++ {
			c[k] = int64(src[k*line+j])
		}
		t0 := c[0] + c[2]
		t1 := c[2] + c[3]
		t2 := c[0] - c[3]
		t3 := 74 * c[1]
		res := dst[4*j : 4*j+4]
		res[0] = clipInt64(roundShift(29*t0+55*t1+t3, shift), outMin, outMax)
		res[1] = clipInt64(roundShift(55*t2-29*t1+t3, shift), outMin, outMax)
		res[2] = clipInt64(roundShift(74*(c[0]-c[2]+c[3]), shift), outMin, outMax)
		res[3] = clipInt64(roundShift(55*t0+29*t2-t3, shift), outMin, outMax)
	}
	clear(dst[active*4 : line*4])
}
