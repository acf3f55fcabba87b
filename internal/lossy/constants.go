package lossy

import "github.com/webpcore/corewebp/internal/container"

// Local aliases for the shared VP8 bitstream constants the container package
// owns, so the rest of this package can use the bare names the same way the
// RFC and libwebp source do.
const (
	BPS = container.BPS

	BDCPred = container.BDCPred
	BTMPred = container.BTMPred
	BVEPred = container.BVEPred
	BHEPred = container.BHEPred
	BRDPred = container.BRDPred
	BVRPred = container.BVRPred
	BLDPred = container.BLDPred
	BVLPred = container.BVLPred
	BHDPred = container.BHDPred
	BHUPred = container.BHUPred

	DCPred = container.DCPred
	VPred  = container.VPred
	HPred  = container.HPred
	TMPred = container.TMPred

	BDCPredNoTop     = container.BDCPredNoTop
	BDCPredNoLeft    = container.BDCPredNoLeft
	BDCPredNoTopLeft = container.BDCPredNoTopLeft

	MBFeatureTreeProbs = container.MBFeatureTreeProbs
	NumMBSegments      = container.NumMBSegments
	NumRefLFDeltas     = container.NumRefLFDeltas
	NumModeLFDeltas    = container.NumModeLFDeltas
	MaxNumPartitions   = container.MaxNumPartitions
	NumTypes           = container.NumTypes
	NumBands           = container.NumBands
	NumCTX             = container.NumCTX
	NumProbas          = container.NumProbas
)

// Reconstruction buffer layout. yuvB holds one macroblock's worth of
// predicted+reconstructed samples, each plane padded with a row above and a
// column to the left so prediction can always read context without bounds
// checks; the Y plane additionally carries 4 extra columns to the right for
// the top-right samples 4x4 intra prediction needs.
const (
	yPlaneRows  = 17 // 1 context row + 16 reconstruction rows
	uvPlaneRows = 9  // 1 context row + 8 reconstruction rows

	YOff  = BPS*1 + 1
	UOff  = yPlaneRows*BPS + BPS*1 + 1
	VOff  = yPlaneRows*BPS + uvPlaneRows*BPS + BPS*1 + 1
	YUVSize = (yPlaneRows + 2*uvPlaneRows) * BPS
)

// KZigzag maps a coefficient's position in decode order to its position in
// the 4x4 block (Section 14.3 scan order).
var KZigzag = [16]int{
	0, 1, 4, 8, 5, 2, 3, 6, 9, 12, 13, 10, 7, 11, 14, 15,
}
