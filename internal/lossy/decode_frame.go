package lossy

import "github.com/webpcore/corewebp/internal/dsp"

// checkMode adjusts DC prediction mode for boundary macroblocks.
func checkMode(mbX, mbY, mode int) int {
	if mode == BDCPred {
		if mbX == 0 {
			if mbY == 0 {
				return BDCPredNoTopLeft
			}
			return BDCPredNoLeft
		}
		if mbY == 0 {
			return BDCPredNoTop
		}
	}
	return mode
}

// doTransform applies the appropriate inverse transform based on the 2-bit code.
func doTransform(bits uint32, src []int16, dst []byte) {
	switch bits >> 30 {
	case 3:
		dsp.Transform(src, dst, false)
	case 2:
		dsp.TransformAC3(src, dst)
	case 1:
		// Inline DC-only transform: avoids function-variable dispatch overhead.
		// All 16 pixels get the same DC add value.
		add := (int(src[0]) + 4) >> 3
		_ = dst[3+3*BPS] // BCE hint
		for j := 0; j < 4; j++ {
			off := j * BPS
			dst[off+0] = dsp.Clip8b(int(dst[off+0]) + add)
			dst[off+1] = dsp.Clip8b(int(dst[off+1]) + add)
			dst[off+2] = dsp.Clip8b(int(dst[off+2]) + add)
			dst[off+3] = dsp.Clip8b(int(dst[off+3]) + add)
		}
	default:
		// code == 0: no coefficients, nothing to do.
	}
}

// doUVTransform applies UV inverse transforms based on the non-zero bits.
func doUVTransform(bits uint32, src []int16, dst []byte) {
	if bits&0xff != 0 {
		if bits&0xaa != 0 {
			dsp.TransformUV(src, dst)
		} else {
			// Inline DC-only UV transform for all 4 chroma blocks.
			if src[0] != 0 {
				doTransformDCBlock(src[0:], dst[0:])
			}
			if src[16] != 0 {
				doTransformDCBlock(src[16:], dst[4:])
			}
			if src[32] != 0 {
				doTransformDCBlock(src[32:], dst[4*BPS:])
			}
			if src[48] != 0 {
				doTransformDCBlock(src[48:], dst[4*BPS+4:])
			}
		}
	}
}

// doTransformDCBlock applies an inlined DC-only 4x4 inverse transform.
func doTransformDCBlock(src []int16, dst []byte) {
	add := (int(src[0]) + 4) >> 3
	_ = dst[3+3*BPS] // BCE hint
	for j := 0; j < 4; j++ {
		off := j * BPS
		dst[off+0] = dsp.Clip8b(int(dst[off+0]) + add)
		dst[off+1] = dsp.Clip8b(int(dst[off+1]) + add)
		dst[off+2] = dsp.Clip8b(int(dst[off+2]) + add)
		dst[off+3] = dsp.Clip8b(int(dst[off+3]) + add)
	}
}

// reconstructRow reconstructs all macroblocks of row mbY from mbData into
// ring slot cacheID. mbData is normally dec.mbData, but the reconstruct+
// filter-parallel pipeline (mtMethod 2) passes the swapped buffer instead so
// the worker can keep reconstructing this row while the parser moves on to
// the next one.
// Uses base-offset approach since Go does not support negative slice indices.
func (dec *Decoder) reconstructRow(mbY int, mbData []MBData, cacheID int) {
	bps := BPS
	buf := dec.yuvB
	yBase := YOff
	uBase := UOff
	vBase := VOff

	// Initialize left-most column border pixels.
	for j := 0; j < 16; j++ {
		buf[yBase+j*bps-1] = 129
	}
	for j := 0; j < 8; j++ {
		buf[uBase+j*bps-1] = 129
		buf[vBase+j*bps-1] = 129
	}

	// Init top-left corner.
	if mbY > 0 {
		buf[yBase-1-bps] = 129
		buf[uBase-1-bps] = 129
		buf[vBase-1-bps] = 129
	} else {
		fillBytes(buf[yBase-bps-1:], 127, 16+4+1)
		fillBytes(buf[uBase-bps-1:], 127, 8+1)
		fillBytes(buf[vBase-bps-1:], 127, 8+1)
	}

	for mbX := 0; mbX < dec.mbW; mbX++ {
		block := &mbData[mbX]

		// Slices pointing into the buffer at the current offset.
		yDst := buf[yBase:]
		uDst := buf[uBase:]
		vDst := buf[vBase:]

		// Rotate left samples from the previous block.
		if mbX > 0 {
			for j := -1; j < 16; j++ {
				copy(buf[yBase+j*bps-4:yBase+j*bps], buf[yBase+j*bps+12:yBase+j*bps+16])
			}
			for j := -1; j < 8; j++ {
				copy(buf[uBase+j*bps-4:uBase+j*bps], buf[uBase+j*bps+4:uBase+j*bps+8])
				copy(buf[vBase+j*bps-4:vBase+j*bps], buf[vBase+j*bps+4:vBase+j*bps+8])
			}
		}

		// Bring top samples into the cache.
		topYUV := &dec.yuvT[mbX]
		coeffs := block.Coeffs[:]
		bits := block.NonZeroY

		if mbY > 0 {
			copy(buf[yBase-bps:], topYUV.Y[:])
			copy(buf[uBase-bps:], topYUV.U[:])
			copy(buf[vBase-bps:], topYUV.V[:])
		}

		// Predict and add residuals.
		if block.IsI4x4 {
			// 4x4 prediction.
			topRight := buf[yBase-bps+16:]

			if mbY > 0 {
				if mbX >= dec.mbW-1 {
					// On rightmost border: replicate last top pixel.
					fillBytes(topRight, topYUV.Y[15], 4)
				} else {
					copy(topRight[:4], dec.yuvT[mbX+1].Y[:4])
				}
			}
			// Replicate top-right below for each sub-block row.
			// C uses uint32_t* with index BPS, so stride = BPS * sizeof(uint32_t) = BPS*4 bytes.
			// This places the replicated values at rows 3, 7, 11 (one row above each sub-block row).
			for r := 1; r <= 3; r++ {
				off := r * 4 * bps
				copy(topRight[off:off+4], topRight[:4])
			}

			for n := 0; n < 16; n++ {
				blockOff := yBase + kScan[n]
				dsp.PredLuma4Direct(int(block.IModes[n]), buf, blockOff)
				doTransform(bits, coeffs[n*16:], buf[blockOff:])
				bits <<= 2
			}
		} else {
			// 16x16 prediction.
			predFunc := checkMode(mbX, mbY, int(block.IModes[0]))
			dsp.PredLuma16[predFunc](buf, yBase)
			if bits != 0 {
				for n := 0; n < 16; n++ {
					doTransform(bits, coeffs[n*16:], buf[yBase+kScan[n]:])
					bits <<= 2
				}
			}
		}

		// Chroma prediction and transform.
		bitsUV := block.NonZeroUV
		predFunc := checkMode(mbX, mbY, int(block.UVMode))
		dsp.PredChroma8[predFunc](buf, uBase)
		dsp.PredChroma8[predFunc](buf, vBase)
		doUVTransform(bitsUV>>0, coeffs[16*16:], uDst)
		doUVTransform(bitsUV>>8, coeffs[20*16:], vDst)

		// Stash top samples for the next row.
		if mbY < dec.mbH-1 {
			copy(topYUV.Y[:], yDst[15*bps:15*bps+16])
			copy(topYUV.U[:], uDst[7*bps:7*bps+8])
			copy(topYUV.V[:], vDst[7*bps:7*bps+8])
		}

		// Transfer reconstructed samples to this row's ring slot.
		yOut := dec.yRing.slot(cacheID)[mbX*16:]
		uOut := dec.uRing.slot(cacheID)[mbX*8:]
		vOut := dec.vRing.slot(cacheID)[mbX*8:]
		for j := 0; j < 16; j++ {
			copy(yOut[j*dec.cacheYStride:j*dec.cacheYStride+16], yDst[j*bps:j*bps+16])
		}
		for j := 0; j < 8; j++ {
			copy(uOut[j*dec.cacheUVStride:j*dec.cacheUVStride+8], uDst[j*bps:j*bps+8])
			copy(vOut[j*dec.cacheUVStride:j*dec.cacheUVStride+8], vDst[j*bps:j*bps+8])
		}
	}
}

// precomputeFilterStrengths computes per-segment, per-mode filter levels.
func (dec *Decoder) precomputeFilterStrengths() {
	if dec.filterType <= 0 {
		return
	}
	hdr := &dec.filterHdr
	for s := 0; s < NumMBSegments; s++ {
		var baseLevel int
		if dec.segHdr.UseSegment {
			baseLevel = int(dec.segHdr.FilterStrength[s])
			if !dec.segHdr.AbsoluteDelta {
				baseLevel += hdr.Level
			}
		} else {
			baseLevel = hdr.Level
		}

		for i4x4 := 0; i4x4 <= 1; i4x4++ {
			info := &dec.fstrengths[s][i4x4]
			level := baseLevel
			if hdr.UseLFDelta {
				level += hdr.RefLFDelta[0]
				if i4x4 != 0 {
					level += hdr.ModeLFDelta[0]
				}
			}
			if level < 0 {
				level = 0
			} else if level > 63 {
				level = 63
			}
			if level > 0 {
				ilevel := level
				if hdr.Sharpness > 0 {
					if hdr.Sharpness > 4 {
						ilevel >>= 2
					} else {
						ilevel >>= 1
					}
					if ilevel > 9-hdr.Sharpness {
						ilevel = 9 - hdr.Sharpness
					}
				}
				if ilevel < 1 {
					ilevel = 1
				}
				info.FILevel = uint8(ilevel)
				info.FLimit = uint8(2*level + ilevel)
				if level >= 40 {
					info.HevThresh = 2
				} else if level >= 15 {
					info.HevThresh = 1
				} else {
					info.HevThresh = 0
				}
			} else {
				info.FLimit = 0
			}
			info.FInner = i4x4 != 0
		}
	}
}

// filterRow applies the loop filter to ring slot cacheID, which holds row
// mbY's reconstructed samples preceded by extraRows of carried-over context.
// fInfo holds this row's per-macroblock filter strengths; the parallel
// pipelines pass a private copy so the parser is free to keep overwriting
// dec.fInfo for the next row while this one is still being filtered.
func (dec *Decoder) filterRow(mbY, cacheID int, fInfo []FInfo) {
	yWin := dec.yRing.window(cacheID)
	uWin := dec.uRing.window(cacheID)
	vWin := dec.vRing.window(cacheID)
	extraY := dec.yRing.extraRows
	extraUV := dec.uRing.extraRows
	for mbX := dec.tlMBX; mbX < dec.brMBX; mbX++ {
		dec.doFilter(mbX, mbY, yWin, uWin, vWin, extraY, extraUV, &fInfo[mbX])
	}
}

// doFilter applies the loop filter to a single macroblock within the given
// ring window. extraY/extraUV rows of carried-over context precede the
// macroblock row's own samples in yWin/uWin/vWin, so the vertical (top-edge)
// filter always has valid context to read even at the top of a ring slot.
func (dec *Decoder) doFilter(mbX, mbY int, yWin, uWin, vWin []byte, extraY, extraUV int, finfo *FInfo) {
	limit := int(finfo.FLimit)
	if limit == 0 {
		return
	}
	ilevel := int(finfo.FILevel)
	yBPS := dec.cacheYStride
	yOff := extraY*yBPS + mbX*16

	if dec.filterType == 1 {
		// Simple filter (luma only).
		if mbX > 0 {
			dsp.SimpleHFilter16(yWin, yOff, yBPS, limit+4)
		}
		if finfo.FInner {
			dsp.SimpleHFilter16i(yWin, yOff, yBPS, limit)
		}
		if mbY > 0 {
			dsp.SimpleVFilter16(yWin, yOff, yBPS, limit+4)
		}
		if finfo.FInner {
			dsp.SimpleVFilter16i(yWin, yOff, yBPS, limit)
		}
	} else {
		// Complex filter (luma + chroma).
		uvBPS := dec.cacheUVStride
		uvOff := extraUV*uvBPS + mbX*8
		hevT := int(finfo.HevThresh)

		if mbX > 0 {
			dsp.HFilter16(yWin, yOff, yBPS, limit+4, ilevel, hevT)
			dsp.HFilter8(uWin, vWin, uvOff, uvOff, uvBPS, limit+4, ilevel, hevT)
		}
		if finfo.FInner {
			dsp.HFilter16i(yWin, yOff, yBPS, limit, ilevel, hevT)
			dsp.HFilter8i(uWin, vWin, uvOff, uvOff, uvBPS, limit, ilevel, hevT)
		}
		if mbY > 0 {
			dsp.VFilter16(yWin, yOff, yBPS, limit+4, ilevel, hevT)
			dsp.VFilter8(uWin, vWin, uvOff, uvOff, uvBPS, limit+4, ilevel, hevT)
		}
		if finfo.FInner {
			dsp.VFilter16i(yWin, yOff, yBPS, limit, ilevel, hevT)
			dsp.VFilter8i(uWin, vWin, uvOff, uvOff, uvBPS, limit, ilevel, hevT)
		}
	}
}

// fillBytes fills n bytes at dst with value v.
func fillBytes(dst []byte, v byte, n int) {
	for i := 0; i < n; i++ {
		dst[i] = v
	}
}
