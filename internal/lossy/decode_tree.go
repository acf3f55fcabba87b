package lossy

// parseProba reads the frame's coefficient-probability table update: each
// of the NumTypes*NumBands*NumCTX*NumProbas entries either keeps its
// default (CoeffsProba0) or is overridden by a coin flip weighted by
// CoeffsUpdateProba, then the skip-flag probability follows.
func parseProba(br BoolSource, dec *Decoder) {
	p := &dec.proba

	for t := 0; t < NumTypes; t++ {
		updateBandProbas(br, &p.Bands[t], t)
		linkBandPointers(p, t)
	}

	dec.useSkipProba = br.GetBit(0x80) != 0
	if dec.useSkipProba {
		dec.skipP = uint8(br.GetValue(8))
	}
}

// updateBandProbas reads one coefficient type's band probabilities,
// entry by entry, falling back to the built-in default whenever the
// update flag for that entry is unset.
func updateBandProbas(br BoolSource, bands *[NumBands]BandProbas, t int) {
	for b := 0; b < NumBands; b++ {
		for c := 0; c < NumCTX; c++ {
			for pp := 0; pp < NumProbas; pp++ {
				if br.GetBit(CoeffsUpdateProba[t][b][c][pp]) == 0 {
					bands[b].Probas[c][pp] = CoeffsProba0[t][b][c][pp]
					continue
				}
				bands[b].Probas[c][pp] = uint8(br.GetValue(8))
			}
		}
	}
}

// linkBandPointers rebuilds the 17-entry band lookup (one slot per
// coefficient position 0..15, plus a guard slot at index 16)
// from the band table just parsed for coefficient type t.
func linkBandPointers(p *Proba, t int) {
	for b := 0; b < 16+1; b++ {
		p.BandsPtr[t][b] = &p.Bands[t][KBands[b]]
	}
}

// parseIntraModeRow parses every macroblock's intra prediction mode in
// one row of partition 0.
func (dec *Decoder) parseIntraModeRow() error {
	for mbX := 0; mbX < dec.mbW; mbX++ {
		dec.parseIntraMode(mbX)
	}
	if dec.br.EOF() {
		return errPrematureEOF
	}
	return nil
}

// parseIntraMode parses one macroblock's segment, skip flag, luma
// prediction mode (16x16 or sixteen independent 4x4 modes), and chroma
// prediction mode from partition 0.
func (dec *Decoder) parseIntraMode(mbX int) {
	br := dec.br
	block := &dec.mbData[mbX]

	block.Segment = dec.parseSegmentID(br)
	if dec.useSkipProba {
		block.Skip = br.GetBit(dec.skipP) != 0
	}

	top := dec.intraT[4*mbX : 4*mbX+4]
	left := dec.intraL[:]
	block.IsI4x4 = br.GetBit(145) == 0
	if block.IsI4x4 {
		parseLuma4x4Modes(br, block, top, left)
	} else {
		parseLuma16x16Mode(br, block, top, left)
	}

	block.UVMode = parseChromaMode(br)
}

// parseSegmentID reads a macroblock's segment assignment from the two-bit
// segment tree, or returns 0 when segmentation isn't updating the map.
func (dec *Decoder) parseSegmentID(br BoolSource) uint8 {
	if !dec.segHdr.UpdateMap {
		return 0
	}
	if br.GetBit(dec.proba.Segments[0]) == 0 {
		return uint8(br.GetBit(dec.proba.Segments[1]))
	}
	return uint8(br.GetBit(dec.proba.Segments[2])) + 2
}

// parseLuma16x16Mode reads the whole-block luma prediction mode and
// broadcasts it across the 4x4 top/left context arrays, since a 16x16
// mode behaves as if every sub-block shared it.
func parseLuma16x16Mode(br BoolSource, block *MBData, top, left []uint8) {
	var mode uint8
	switch {
	case br.GetBit(156) == 0:
		if br.GetBit(163) != 0 {
			mode = VPred
		} else {
			mode = DCPred
		}
	case br.GetBit(128) != 0:
		mode = TMPred
	default:
		mode = HPred
	}

	block.IModes[0] = mode
	for i := 0; i < 4; i++ {
		top[i] = mode
		left[i] = mode
	}
}

// parseLuma4x4Modes walks the 4x4 intra-mode tree for each of the sixteen
// luma sub-blocks, left-to-right and top-to-bottom, updating the shared
// top/left context arrays as it goes so each sub-block's tree walk sees
// its true neighbors.
func parseLuma4x4Modes(br BoolSource, block *MBData, top, left []uint8) {
	modes := block.IModes[:]
	for y := 0; y < 4; y++ {
		mode := left[y]
		for x := 0; x < 4; x++ {
			mode = walkIntra4Tree(br, top[x], mode)
			top[x] = mode
			modes[y*4+x] = mode
		}
		left[y] = mode
	}
}

// walkIntra4Tree decodes one 4x4 sub-block's prediction mode by walking
// the shared Huffman-style mode tree, starting from the probability row
// selected by its above and left neighbors.
func walkIntra4Tree(br BoolSource, above, left uint8) uint8 {
	prob := &KBModesProba[above][left]
	i := int(KYModesIntra4[br.GetBit(prob[0])])
	for i > 0 {
		i = int(KYModesIntra4[2*i+br.GetBit(prob[i])])
	}
	return uint8(-i)
}

// parseChromaMode reads the four-way UV prediction mode tree.
func parseChromaMode(br BoolSource) uint8 {
	if br.GetBit(142) == 0 {
		return DCPred
	}
	if br.GetBit(114) == 0 {
		return VPred
	}
	if br.GetBit(183) != 0 {
		return TMPred
	}
	return HPred
}
