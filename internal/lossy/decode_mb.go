package lossy

import (
	"errors"

	"github.com/webpcore/corewebp/internal/bitio"
	"github.com/webpcore/corewebp/internal/dsp"
)

var errPrematureEOF = errors.New("vp8: premature end of data")

// extraBitTables groups the category extra-bit tables used once a
// coefficient's magnitude reaches the large-value categories (11 and up).
var extraBitTables = [4][]uint8{
	KCat3[:], KCat4[:], KCat5[:], KCat6[:],
}

// readLargeCategoryValue decodes a coefficient magnitude that has already
// been identified as falling into one of the four large-value categories
// (>= 11): a two-bit category selector picks an extra-bit table, then each
// non-zero probability entry in that table contributes one more bit to
// the magnitude.
func readLargeCategoryValue(br *bitio.BoolReader, p []uint8) int {
	bit1 := br.GetBit(p[8])
	bit0 := br.GetBit(p[9+bit1])
	cat := 2*bit1 + bit0

	v := 0
	for _, prob := range extraBitTables[cat] {
		if prob == 0 {
			break
		}
		v = 2*v + br.GetBit(prob)
	}
	return v + 3 + (8 << uint(cat))
}

// getLargeValue decodes a coefficient magnitude known to be at least 2,
// following the token tree's large-value branch (coefficient decoding,
// large-magnitude path).
func getLargeValue(br *bitio.BoolReader, p []uint8) int {
	if br.GetBit(p[3]) == 0 {
		if br.GetBit(p[4]) == 0 {
			return 2
		}
		return 3 + br.GetBit(p[5])
	}
	if br.GetBit(p[6]) == 0 {
		if br.GetBit(p[7]) == 0 {
			return 5 + br.GetBit(159)
		}
		return 7 + 2*br.GetBit(165) + br.GetBit(145)
	}
	return readLargeCategoryValue(br, p)
}

// dequantIndex picks dq[0] for the DC position (n==0) and dq[1] for every
// AC position.
func dequantIndex(n int) int {
	if n > 0 {
		return 1
	}
	return 0
}

// getCoeffs decodes one sub-block's run of coefficients starting at
// scan position n, writing dequantized values into out in raster order
// (via the zig-zag table). Returns the position just past the last
// non-zero coefficient, which doubles as the sub-block's "any AC energy"
// context for its neighbors.
func getCoeffs(br *bitio.BoolReader, bands [16 + 1]*BandProbas, ctx int, dq [2]int, n int, out []int16) int {
	p := bands[n].Probas[ctx][:]
	for ; n < 16; n++ {
		if br.GetBit(p[0]) == 0 {
			return n
		}
		for br.GetBit(p[1]) == 0 {
			n++
			if n == 16 {
				return 16
			}
			p = bands[n].Probas[0][:]
		}

		var v int
		pCtx := &bands[n+1].Probas
		if br.GetBit(p[2]) == 0 {
			v = 1
			p = pCtx[1][:]
		} else {
			v = getLargeValue(br, p)
			p = pCtx[2][:]
		}

		out[KZigzag[n]] = int16(br.GetSigned(v) * dq[dequantIndex(n)])
	}
	return 16
}

// nzCodeBits packs 2-bit codes describing how many coefficients are non-zero.
func nzCodeBits(nzCoeffs uint32, nz int, dcNz int) uint32 {
	nzCoeffs <<= 2
	if nz > 3 {
		nzCoeffs |= 3
	} else if nz > 1 {
		nzCoeffs |= 2
	} else {
		nzCoeffs |= uint32(dcNz)
	}
	return nzCoeffs
}

// decodeMB decodes one macroblock's residual coefficients from the token
// partition, or clears its non-zero bookkeeping outright when the skip
// flag says the macroblock carries no residual at all.
func (dec *Decoder) decodeMB(tokenBR *bitio.BoolReader) error {
	left := &dec.mbInfo[0]
	mb := &dec.mbInfo[dec.mbX+1]
	block := &dec.mbData[dec.mbX]

	skip := dec.useSkipProba && block.Skip
	if skip {
		clearSkippedResiduals(mb, left, block)
	} else {
		dec.parseResiduals(mb, left, block, tokenBR)
	}

	if dec.filterType > 0 {
		finfo := &dec.fInfo[dec.mbX]
		*finfo = dec.fstrengths[block.Segment][b2i(block.IsI4x4)]
		finfo.FInner = finfo.FInner || !skip
	}

	if tokenBR.EOF() {
		return errPrematureEOF
	}
	return nil
}

// clearSkippedResiduals resets the non-zero-coefficient bookkeeping for a
// macroblock the bitstream marked as having no residual, so its neighbors'
// context reads see "all zero" the same as if every coefficient had been
// decoded and found empty.
func clearSkippedResiduals(mb, left *MB, block *MBData) {
	left.Nz = 0
	mb.Nz = 0
	if !block.IsI4x4 {
		left.NzDC = 0
		mb.NzDC = 0
	}
	block.NonZeroY = 0
	block.NonZeroUV = 0
	block.Dither = 0
}

// b2i converts bool to int (0 or 1).
func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseLumaDC decodes the 16x16-mode macroblock's shared DC block (i16-DC,
// coefficient type 1) and inverse-transforms it into every luma
// sub-block's position 0, or, for a 4x4-mode macroblock, does nothing --
// each 4x4 sub-block carries its own DC instead. Returns the AC scan
// start position and probability table the luma AC pass should use.
func (dec *Decoder) parseLumaDC(mb, leftMB *MB, block *MBData, bands *[NumTypes][16 + 1]*BandProbas, q *QuantMatrix, dst []int16, tokenBR *bitio.BoolReader) (int, [16 + 1]*BandProbas) {
	if block.IsI4x4 {
		return 0, bands[3] // i4-AC = type 3
	}

	var dc [16]int16
	ctx := int(mb.NzDC) + int(leftMB.NzDC)
	nz := getCoeffs(tokenBR, bands[1], ctx, q.Y2Mat, 0, dc[:])

	nzDC := uint8(0)
	if nz > 0 {
		nzDC = 1
	}
	mb.NzDC = nzDC
	leftMB.NzDC = nzDC

	if nz > 1 {
		dsp.TransformWHT(dc[:], dst)
	} else {
		dc0 := int16((int(dc[0]) + 3) >> 3)
		for i := 0; i < 16*16; i += 16 {
			dst[i] = dc0
		}
	}
	return 1, bands[0] // i16-AC = type 0
}

// parseResiduals decodes every residual coefficient for one macroblock:
// the shared luma-DC block for 16x16-mode macroblocks, sixteen luma AC
// sub-blocks, and eight chroma sub-blocks (four U, four V).
func (dec *Decoder) parseResiduals(mb, leftMB *MB, block *MBData, tokenBR *bitio.BoolReader) {
	bands := &dec.proba.BandsPtr
	q := &dec.dqm[block.Segment]
	dst := block.Coeffs[:]

	for i := range block.Coeffs {
		block.Coeffs[i] = 0
	}

	first, acProba := dec.parseLumaDC(mb, leftMB, block, bands, q, dst, tokenBR)

	var nonZeroY uint32
	var nonZeroUV uint32

	// Luma AC.
	tnz := mb.Nz & 0x0f
	lnz := leftMB.Nz & 0x0f
	for y := 0; y < 4; y++ {
		l := lnz & 1
		var nzCoeffs uint32
		for x := 0; x < 4; x++ {
			ctx := int(l) + int(tnz&1)
			nz := getCoeffs(tokenBR, acProba, ctx, q.Y1Mat, first, dst)
			if nz > first {
				l = 1
			} else {
				l = 0
			}
			tnz = (tnz >> 1) | (l << 7)
			dcNz := 0
			if dst[0] != 0 {
				dcNz = 1
			}
			nzCoeffs = nzCodeBits(nzCoeffs, nz, dcNz)
			dst = dst[16:]
		}
		tnz >>= 4
		lnz = (lnz >> 1) | (l << 7)
		nonZeroY = (nonZeroY << 8) | nzCoeffs
	}
	outTNz := tnz
	outLNz := lnz >> 4

	// Chroma.
	for ch := 0; ch < 4; ch += 2 {
		var nzCoeffs uint32
		tnz = (mb.Nz >> (4 + uint(ch)))
		lnz = (leftMB.Nz >> (4 + uint(ch)))
		for y := 0; y < 2; y++ {
			l := lnz & 1
			for x := 0; x < 2; x++ {
				ctx := int(l) + int(tnz&1)
				nz := getCoeffs(tokenBR, bands[2], ctx, q.UVMat, 0, dst)
				if nz > 0 {
					l = 1
				} else {
					l = 0
				}
				tnz = (tnz >> 1) | (l << 3)
				dcNz := 0
				if dst[0] != 0 {
					dcNz = 1
				}
				nzCoeffs = nzCodeBits(nzCoeffs, nz, dcNz)
				dst = dst[16:]
			}
			tnz >>= 2
			lnz = (lnz >> 1) | (l << 5)
		}
		nonZeroUV |= nzCoeffs << uint(4*ch)
		outTNz |= (tnz << 4) << uint(ch)
		outLNz |= (lnz & 0xf0) << uint(ch)
	}

	mb.Nz = outTNz
	leftMB.Nz = outLNz
	block.NonZeroY = nonZeroY
	block.NonZeroUV = nonZeroUV
	block.Dither = 0
	if nonZeroUV&0xaaaa == 0 {
		block.Dither = uint8(q.Dither)
	}
}
