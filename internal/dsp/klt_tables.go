package dsp

// KLT basis tables: eigenvectors of a first-order autoregressive source
// (rho = 0.95), rows ordered by decreasing eigenvalue with a positive first
// tap. Standard precision rows have norm 64*sqrt(N), high precision rows
// are scaled by a further 4.

var kltCoeffs4 = [4 * 4]int32{
	63, 65, 65, 63,
	83, 35, -35, -83,
	65, -63, -63, 65,
	35, -83, 83, -35,
}

var kltCoeffsHP4 = [4 * 4]int32{
	253, 259, 259, 253,
	334, 141, -141, -334,
	259, -253, -253, 259,
	141, -334, 334, -141,
}

var kltCoeffs8 = [8 * 8]int32{
	61, 64, 65, 66, 66, 65, 64, 61,
	87, 76, 52, 18, -18, -52, -76, -87,
	84, 37, -32, -82, -82, -32, 37, 84,
	76, -15, -88, -50, 50, 88, 15, -76,
	65, -63, -64, 64, 64, -64, -63, 65,
	51, -88, 17, 75, -75, -17, 88, -51,
	35, -84, 83, -34, -34, 83, -84, 35,
	18, -50, 75, -89, 89, -75, 50, -18,
}

var kltCoeffsHP8 = [8 * 8]int32{
	245, 254, 261, 264, 264, 261, 254, 245,
	348, 304, 207, 73, -73, -207, -304, -348,
	338, 150, -130, -330, -330, -130, 150, 338,
	306, -62, -352, -202, 202, 352, 62, -306,
	261, -251, -258, 254, 254, -258, -251, 261,
	205, -353, 68, 301, -301, -68, 353, -205,
	141, -335, 333, -138, -138, 333, -335, 141,
	72, -202, 301, -355, 355, -301, 202, -72,
}

var kltCoeffs16 = [16 * 16]int32{
	57, 60, 62, 64, 66, 67, 67, 68, 68, 67, 67, 66, 64, 62, 60, 57,
	85, 85, 81, 72, 60, 45, 28, 10, -10, -28, -45, -60, -72, -81, -85, -85,
	89, 78, 55, 23, -13, -46, -73, -87, -87, -73, -46, -13, 23, 55, 78, 89,
	88, 61, 14, -39, -78, -89, -70, -26, 26, 70, 89, 78, 39, -14, -61, -88,
	85, 39, -31, -82, -84, -36, 33, 83, 83, 33, -36, -84, -82, -31, 39, 85,
	81, 12, -68, -87, -28, 56, 90, 43, -43, -90, -56, 28, 87, 68, -12, -81,
	77, -15, -88, -52, 49, 89, 18, -75, -75, 18, 89, 49, -52, -88, -15, 77,
	71, -41, -87, 7, 90, 27, -79, -57, 57, 79, -27, -90, -7, 87, 41, -71,
	65, -63, -65, 63, 65, -63, -64, 64, 64, -64, -63, 65, 63, -65, -63, 65,
	59, -79, -27, 90, -8, -87, 42, 70, -70, -42, 87, 8, -90, 27, 79, -59,
	51, -88, 17, 76, -75, -18, 89, -50, -50, 89, -18, -75, 76, 17, -88, 51,
	44, -90, 57, 27, -87, 70, 9, -80, 80, -9, -70, 87, -27, -57, 90, -44,
	35, -84, 83, -34, -35, 84, -83, 35, 35, -83, 84, -35, -34, 83, -84, 35,
	27, -70, 90, -80, 42, 9, -57, 87, -87, 57, -9, -42, 80, -90, 70, -27,
	18, -51, 75, -89, 89, -75, 50, -18, -18, 50, -75, 89, -89, 75, -51, 18,
	9, -26, 43, -57, 70, -80, 87, -90, 90, -87, 80, -70, 57, -43, 26, -9,
}

var kltCoeffsHP16 = [16 * 16]int32{
	230, 240, 249, 256, 262, 267, 270, 271, 271, 270, 267, 262, 256, 249, 240, 230,
	340, 340, 323, 289, 242, 182, 113, 38, -38, -113, -182, -242, -289, -323, -340, -340,
	354, 314, 222, 93, -50, -186, -291, -348, -348, -291, -186, -50, 93, 222, 314, 354,
	350, 246, 55, -154, -310, -358, -281, -106, 106, 281, 358, 310, 154, -55, -246, -350,
	340, 154, -124, -328, -336, -144, 134, 332, 332, 134, -144, -336, -328, -124, 154, 340,
	325, 49, -271, -348, -112, 225, 359, 171, -171, -359, -225, 112, 348, 271, -49, -325,
	307, -59, -352, -207, 196, 355, 73, -300, -300, 73, 355, 196, -207, -352, -59, 307,
	286, -162, -348, 29, 359, 108, -318, -230, 230, 318, -108, -359, -29, 348, 162, -286,
	262, -250, -260, 252, 258, -254, -257, 255, 255, -257, -254, 258, 252, -260, -250, 262,
	235, -316, -110, 359, -32, -347, 169, 280, -280, -169, 347, 32, -359, 110, 316, -235,
	206, -354, 66, 303, -299, -72, 355, -201, -201, 355, -72, -299, 303, 66, -354, 206,
	175, -360, 227, 108, -347, 279, 36, -319, 319, -36, -279, 347, -108, -227, 360, -175,
	142, -335, 333, -136, -140, 335, -334, 138, 138, -334, 335, -140, -136, 333, -335, 142,
	108, -281, 360, -318, 169, 36, -230, 346, -346, 230, -36, -169, 318, -360, 281, -108,
	72, -202, 301, -355, 355, -300, 201, -70, -70, 201, -300, 355, -355, 301, -202, 72,
	36, -106, 171, -230, 280, -319, 346, -360, 360, -346, 319, -280, 230, -171, 106, -36,
}
