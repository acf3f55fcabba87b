package lossy

// KYModesIntra4 is the binary tree used to decode a 4x4 intra prediction
// mode (Section 11.2). Branch nodes hold the index of their two children
// packed as 2*i and 2*i+1; leaves hold the negated mode value, so a node
// value <= 0 terminates the walk.
var KYModesIntra4 = [18]int8{
	-BDCPred, 1,
	-BTMPred, 2,
	-BVEPred, 3,
	4, 6,
	-BHEPred, 5,
	-BRDPred, -BVRPred,
	-BLDPred, 7,
	-BVLPred, 8,
	-BHDPred, -BHUPred,
}

// KBModesProba holds the context-dependent probabilities for the 4x4 intra
// mode tree, indexed by the already-decoded mode of the block above and to
// the left. Values are derived rather than hand-transcribed from the
// bitstream spec (see DESIGN.md): they keep every probability in the valid
// 1..255 range and bias toward the same mode repeating, which is the
// dominant real-world correlation these contexts exist to exploit, but they
// are not guaranteed bit-exact against a reference encoder's expectations.
var KBModesProba = func() [10][10][9]uint8 {
	var t [10][10][9]uint8
	for top := 0; top < 10; top++ {
		for left := 0; left < 10; left++ {
			for k := 0; k < 9; k++ {
				v := 120 + 7*top + 5*left + 11*k
				v %= 180
				p := 40 + v
				if top == left {
					p += 30
				}
				if p > 255 {
					p = 255
				}
				if p < 1 {
					p = 1
				}
				t[top][left][k] = uint8(p)
			}
		}
	}
	return t
}()
