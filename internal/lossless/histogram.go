package lossless

import "math"

// Component C5: per-tile symbol histograms and the bit-cost estimator that
// drives every later clustering decision.
//
// A Histogram counts how often each symbol appears in one tile's backward
// reference stream, split into the five channels the VP8L meta-Huffman
// format encodes independently: green+length+cache-index ("literal"),
// red, blue, alpha, and distance. Reference: libwebp/src/enc/histogram_enc.c.

// nonTrivialSym marks a histogram channel that does not have a single,
// unique non-zero symbol.
const nonTrivialSym = 0xffff

// symbolClass indexes the five channels a Histogram tracks.
type symbolClass int

const (
	classLiteral  symbolClass = 0
	classRed      symbolClass = 1
	classBlue     symbolClass = 2
	classAlpha    symbolClass = 3
	classDistance symbolClass = 4
)

// Histogram holds per-symbol frequency counts for one tile's backward
// reference tokens, plus the cached entropy-cost figures every clustering
// pass reads instead of recomputing.
type Histogram struct {
	Literal  []uint32 // green + length-prefix codes + color-cache indices
	Red      [NumLiteralCodes]uint32
	Blue     [NumLiteralCodes]uint32
	Alpha    [NumLiteralCodes]uint32
	Distance [NumDistanceCodes]uint32

	paletteCodeBits int        // color cache bits fixed at allocation (0 = disabled)
	bitCost         float64    // cached total coding cost across all 5 channels
	costs           [5]float64 // cached per-channel coding cost

	isUsed        [5]bool   // does this channel have any non-zero count
	trivialSymbol [5]uint16 // single non-zero symbol index, or nonTrivialSym
	binID         uint16    // entropy bin assigned during the C6 pre-pass
}

// histogramNumCodes returns the literal alphabet size for the given cache
// bits: base literal+length codes, plus one slot per color-cache entry.
func histogramNumCodes(cacheBits int) int {
	n := NumLiteralCodes + NumLengthCodes
	if cacheBits > 0 {
		n += 1 << cacheBits
	}
	return n
}

// NewHistogram allocates a Histogram sized for the given cache bits.
func NewHistogram(cacheBits int) *Histogram {
	h := &Histogram{
		paletteCodeBits: cacheBits,
		Literal:         make([]uint32, histogramNumCodes(cacheBits)),
	}
	h.resetStats()
	return h
}

// resetStats resets the cached trivial-symbol/used/cost bookkeeping without
// touching the frequency counts.
func (h *Histogram) resetStats() {
	for i := 0; i < 5; i++ {
		h.trivialSymbol[i] = nonTrivialSym
		h.isUsed[i] = true
	}
	h.bitCost = 0
	h.costs = [5]float64{}
}

// Clear zeros every frequency count and resets cached stats.
func (h *Histogram) Clear() {
	for i := range h.Literal {
		h.Literal[i] = 0
	}
	h.Red = [NumLiteralCodes]uint32{}
	h.Blue = [NumLiteralCodes]uint32{}
	h.Alpha = [NumLiteralCodes]uint32{}
	h.Distance = [NumDistanceCodes]uint32{}
	h.resetStats()
}

// AddSingle folds one backward-reference token into the tile's per-channel
// counts (C5 of section 4.5's add-symbol contract). Literals split their
// ARGB word across all four color channels; copies and cache hits only
// ever touch the literal channel (plus distance, for copies).
func (h *Histogram) AddSingle(v *PixOrCopy, xsize, cacheBits int) {
	if v.IsLiteral() {
		h.addLiteralPixel(v.Argb())
		return
	}
	if v.IsCacheIdx() {
		h.bumpLiteral(NumLiteralCodes + NumLengthCodes + v.CacheIndex())
		return
	}
	h.addCopy(v)
}

// addLiteralPixel bumps alpha, red, green (stored in the literal channel),
// and blue for one uncompressed ARGB pixel.
func (h *Histogram) addLiteralPixel(argb uint32) {
	h.Alpha[byte(argb>>24)]++
	h.Red[byte(argb>>16)]++
	h.Literal[byte(argb>>8)]++
	h.Blue[byte(argb)]++
}

// addCopy bumps the literal channel's length-prefix slot and the distance
// channel's distance-prefix slot for one LZ77-style back-reference.
func (h *Histogram) addCopy(v *PixOrCopy) {
	lenCode, _ := PrefixEncodeBitsNoLUT(v.Length())
	h.bumpLiteral(NumLiteralCodes + lenCode)

	distCode, _ := PrefixEncodeBitsNoLUT(v.Distance())
	if distCode < NumDistanceCodes {
		h.Distance[distCode]++
	}
}

// bumpLiteral increments the literal channel at idx, guarding against the
// alphabet-size overrun that a corrupt or adversarial token stream could
// otherwise trigger.
func (h *Histogram) bumpLiteral(idx int) {
	if idx < len(h.Literal) {
		h.Literal[idx]++
	}
}

// AddRefs accumulates every token in refs into the histogram.
func (h *Histogram) AddRefs(refs *BackwardRefs, xsize, cacheBits int) {
	for i := range refs.refs {
		h.AddSingle(&refs.refs[i], xsize, cacheBits)
	}
}

// copyFrom overwrites h with src's contents. Both must share paletteCodeBits.
func (h *Histogram) copyFrom(src *Histogram) {
	copy(h.Literal, src.Literal)
	h.Red = src.Red
	h.Blue = src.Blue
	h.Alpha = src.Alpha
	h.Distance = src.Distance
	h.paletteCodeBits = src.paletteCodeBits
	h.bitCost = src.bitCost
	h.costs = src.costs
	h.isUsed = src.isUsed
	h.trivialSymbol = src.trivialSymbol
	h.binID = src.binID
}

// population returns the frequency slice backing one channel.
func (h *Histogram) population(idx symbolClass) []uint32 {
	switch idx {
	case classLiteral:
		return h.Literal
	case classRed:
		return h.Red[:]
	case classBlue:
		return h.Blue[:]
	case classAlpha:
		return h.Alpha[:]
	case classDistance:
		return h.Distance[:]
	}
	return nil
}

// ---------------------------------------------------------------------------
// Entropy computation
// ---------------------------------------------------------------------------

// bitEntropy accumulates the running statistics BitsEntropyRefine needs:
// the raw Shannon sum, how many symbols were non-zero, and the largest
// single count seen (used by the `(2*sum - max)` lower bound).
type bitEntropy struct {
	entropy     float64
	sum         uint32
	nonzeros    int
	maxVal      uint32
	nonzeroCode uint32
}

// streaks counts runs of repeated values (zero and non-zero separately,
// short vs long) that FinalHuffmanCost charges a per-streak-class price for.
type streaks struct {
	counts  [2]int    // [zero, non-zero] number of long (>3) streaks
	streaks [2][2]int // [zero/non-zero][short<=3 / long>3] total run length
}

// flushStreak folds the just-finished run of `streak` copies of valPrev
// into be/st, then advances the (valPrev, iPrev) cursor to (val, i).
func flushStreak(val uint32, i int, valPrev *uint32, iPrev *int, be *bitEntropy, st *streaks) {
	streak := i - *iPrev

	if *valPrev != 0 {
		be.sum += *valPrev * uint32(streak)
		be.nonzeros += streak
		be.nonzeroCode = uint32(*iPrev)
		be.entropy += fastSLog2(*valPrev) * float64(streak)
		if be.maxVal < *valPrev {
			be.maxVal = *valPrev
		}
	}

	isNZ := 0
	if *valPrev != 0 {
		isNZ = 1
	}
	longStreak := 0
	if streak > 3 {
		longStreak = 1
	}
	st.counts[isNZ] += longStreak
	st.streaks[isNZ][longStreak] += streak

	*valPrev = val
	*iPrev = i
}

// getEntropyUnrefined scans a population once, splitting it into runs of
// equal value, and returns the unrefined entropy plus streak statistics.
func getEntropyUnrefined(population []uint32) (bitEntropy, streaks) {
	var be bitEntropy
	var st streaks

	if len(population) == 0 {
		return be, st
	}

	iPrev := 0
	xPrev := population[0]

	for i := 1; i < len(population); i++ {
		x := population[i]
		if x != xPrev {
			flushStreak(x, i, &xPrev, &iPrev, &be, &st)
		}
	}
	flushStreak(0, len(population), &xPrev, &iPrev, &be, &st)

	be.entropy = fastSLog2(be.sum) - be.entropy
	return be, st
}

// getCombinedEntropyUnrefined is getEntropyUnrefined over the element-wise
// sum of X and Y without materializing the sum array. The streak transition
// logic is inlined at both the mid-scan and final-flush call sites -- this
// is the single hottest loop in the whole clustering pipeline, scanned once
// per candidate pair in every merge pass.
func getCombinedEntropyUnrefined(X, Y []uint32) (bitEntropy, streaks) {
	var be bitEntropy
	var st streaks

	length := len(X)
	if length == 0 {
		return be, st
	}

	iPrev := 0
	xyPrev := X[0] + Y[0]

	for i := 1; i < length; i++ {
		xy := X[i] + Y[i]
		if xy != xyPrev {
			streak := i - iPrev
			if xyPrev != 0 {
				be.sum += xyPrev * uint32(streak)
				be.nonzeros += streak
				be.nonzeroCode = uint32(iPrev)
				be.entropy += fastSLog2(xyPrev) * float64(streak)
				if be.maxVal < xyPrev {
					be.maxVal = xyPrev
				}
			}
			isNZ := 0
			if xyPrev != 0 {
				isNZ = 1
			}
			longStreak := 0
			if streak > 3 {
				longStreak = 1
			}
			st.counts[isNZ] += longStreak
			st.streaks[isNZ][longStreak] += streak
			xyPrev = xy
			iPrev = i
		}
	}

	streak := length - iPrev
	if xyPrev != 0 {
		be.sum += xyPrev * uint32(streak)
		be.nonzeros += streak
		be.nonzeroCode = uint32(iPrev)
		be.entropy += fastSLog2(xyPrev) * float64(streak)
		if be.maxVal < xyPrev {
			be.maxVal = xyPrev
		}
	}
	isNZ := 0
	if xyPrev != 0 {
		isNZ = 1
	}
	longStreak := 0
	if streak > 3 {
		longStreak = 1
	}
	st.counts[isNZ] += longStreak
	st.streaks[isNZ][longStreak] += streak

	be.entropy = fastSLog2(be.sum) - be.entropy
	return be, st
}

// bitsEntropyUnrefined is getEntropyUnrefined's cousin for callers that only
// need the entropy figure, not the streak statistics.
func bitsEntropyUnrefined(array []uint32) bitEntropy {
	var be bitEntropy
	for i, v := range array {
		if v != 0 {
			be.sum += v
			be.nonzeroCode = uint32(i)
			be.nonzeros++
			be.entropy += fastSLog2(v)
			if be.maxVal < v {
				be.maxVal = v
			}
		}
	}
	be.entropy = fastSLog2(be.sum) - be.entropy
	return be
}

// fastSLog2LUTSize bounds the precomputed v*log2(v) table. Histogram counts
// rarely exceed a few thousand per tile, so 4096 entries covers almost every
// call without falling back to math.Log2.
const fastSLog2LUTSize = 4096

var fastSLog2LUT [fastSLog2LUTSize]float64

func init() {
	fastSLog2LUT[0] = 0
	for i := 1; i < fastSLog2LUTSize; i++ {
		fv := float64(i)
		fastSLog2LUT[i] = fv * math.Log2(fv)
	}
}

// fastSLog2 returns v*log2(v) for v > 0, and 0 for v == 0.
func fastSLog2(v uint32) float64 {
	if v < fastSLog2LUTSize {
		return fastSLog2LUT[v]
	}
	fv := float64(v)
	return fv * math.Log2(fv)
}

// bitsEntropyRefine mixes the raw Shannon entropy against the lower bound
// `(2*sum - max)`: with few distinct non-zero symbols the Shannon estimate
// alone badly overestimates achievable Huffman cost, so the mix weight grows
// as nonzeros shrinks (section 4.5).
func bitsEntropyRefine(be *bitEntropy) float64 {
	switch be.nonzeros {
	case 0, 1:
		return 0
	case 2:
		return 0.99*float64(be.sum) + 0.01*be.entropy
	}

	// Below 5 distinct symbols the Shannon estimate needs a heavier pull
	// toward the `2*sum - max` lower bound; the mix weight below tapers
	// off once there's enough variety for the raw entropy to be trusted
	// on its own.
	mix := 0.627
	switch be.nonzeros {
	case 3:
		mix = 0.95
	case 4:
		mix = 0.7
	}

	lowerBound := mix*float64(2*be.sum-be.maxVal) + (1.0-mix)*be.entropy
	return math.Max(be.entropy, lowerBound)
}

// BitsEntropy returns the refined entropy estimate for a symbol population.
func BitsEntropy(array []uint32) float64 {
	be := bitsEntropyUnrefined(array)
	return bitsEntropyRefine(&be)
}

// initialHuffmanCost is the fixed bias FinalHuffmanCost starts from: roughly
// the cost of transmitting the code-length alphabet header, less an
// empirical 9.1-bit correction for partial headers.
func initialHuffmanCost() float64 {
	return float64(CodeLengthCodes*3) - 9.1
}

// finalHuffmanCost turns streak statistics into an estimated Huffman-coded
// size: each run-length class (short/long, zero/non-zero) has its own
// empirically-derived per-unit price.
func finalHuffmanCost(st *streaks) float64 {
	retval := initialHuffmanCost()
	retval += float64(st.counts[0]) * 1.5625
	retval += float64(st.streaks[0][1]) * 0.234375
	retval += float64(st.counts[1]) * 2.578125
	retval += float64(st.streaks[1][1]) * 0.703125
	retval += float64(st.streaks[0][0]) * 1.796875
	retval += float64(st.streaks[1][0]) * 3.28125
	return retval
}

// populationCost is BitsEntropyRefine(entropy) + FinalHuffmanCost(streaks)
// for one channel, plus the trivial-symbol and is-used bookkeeping that
// ride along for free once the streak scan has run.
func populationCost(population []uint32) (cost float64, trivialSym uint16, isUsed bool) {
	be, st := getEntropyUnrefined(population)

	if be.nonzeros == 1 {
		trivialSym = uint16(be.nonzeroCode)
	} else {
		trivialSym = nonTrivialSym
	}

	isUsed = st.streaks[1][0] != 0 || st.streaks[1][1] != 0
	cost = bitsEntropyRefine(&be) + finalHuffmanCost(&st)
	return cost, trivialSym, isUsed
}

// PopulationCost sums the estimated coding cost across all 5 channels.
func PopulationCost(h *Histogram) float64 {
	var cost float64
	for i := symbolClass(0); i < 5; i++ {
		pop := h.population(i)
		c, _, _ := populationCost(pop)
		cost += c
	}
	return cost
}

// computeHistogramCost recomputes every cached cost/trivial-symbol/used
// field from the current frequency counts.
func (h *Histogram) computeHistogramCost() {
	for i := symbolClass(0); i < 5; i++ {
		pop := h.population(i)
		c, trivSym, used := populationCost(pop)
		h.costs[i] = c
		h.trivialSymbol[i] = trivSym
		h.isUsed[i] = used
	}
	h.bitCost = h.costs[0] + h.costs[1] + h.costs[2] + h.costs[3] + h.costs[4]
}
