package lossless

import (
	"math"
	"runtime"
	"sync"
)

// Component C9 (remap) plus the GetHistoImageSymbols entry point that
// drives C5 through C9 end to end: build per-tile histograms, shrink them
// through the entropy-bin, stochastic, and greedy passes, then assign every
// original tile to its nearest surviving cluster.

// histogramRemap assigns every original tile histogram to the output
// cluster that costs least to add it to, then rebuilds each output cluster
// from scratch by re-summing its assigned originals (so the final counts
// are exact, not an accumulation of intermediate merge approximations).
func histogramRemap(origHistos []*Histogram, imageHisto *HistoSet, symbols []uint16) {
	outHistos := imageHisto.histos
	outSize := len(outHistos)

	if outSize > 1 {
		n := len(origHistos)
		if n >= 64 {
			remapParallel(origHistos, outHistos, symbols)
		} else {
			remapSerial(origHistos, outHistos, symbols)
		}
	} else {
		for i := range origHistos {
			symbols[i] = 0
		}
	}

	for _, h := range outHistos {
		h.Clear()
	}
	for i, h := range origHistos {
		if h == nil {
			continue
		}
		idx := int(symbols[i])
		histogramAdd(h, outHistos[idx], outHistos[idx])
	}
}

// remapSerial assigns each tile sequentially; an absent tile (nil, meaning
// "no tokens started here") adopts the previous tile's assignment.
func remapSerial(origHistos []*Histogram, outHistos []*Histogram, symbols []uint16) {
	for i, h := range origHistos {
		if h == nil {
			if i > 0 {
				symbols[i] = symbols[i-1]
			}
			continue
		}
		symbols[i] = uint16(bestCluster(outHistos, h))
	}
}

// remapParallel is remapSerial's concurrent form: every tile's best-cluster
// search is independent, so it can run across goroutines, with the
// left-to-right "absent adopts previous" dependency resolved in a cheap
// serial fixup pass afterward.
func remapParallel(origHistos []*Histogram, outHistos []*Histogram, symbols []uint16) {
	const nilSentinel = 0xFFFF
	n := len(origHistos)

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > n {
		numWorkers = n
	}
	chunk := (n + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				h := origHistos[i]
				if h == nil {
					symbols[i] = nilSentinel
					continue
				}
				symbols[i] = uint16(bestCluster(outHistos, h))
			}
		}(start, end)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if symbols[i] == nilSentinel {
			if i > 0 {
				symbols[i] = symbols[i-1]
			} else {
				symbols[i] = 0
			}
		}
	}
}

// bestCluster returns the index of the output cluster that costs least to
// add h to.
func bestCluster(outHistos []*Histogram, h *Histogram) int {
	bestOut := 0
	bestBits := math.MaxFloat64
	for k, out := range outHistos {
		curBits, ok := histogramAddThresh(out, h, bestBits)
		if ok {
			bestBits = curBits
			bestOut = k
		}
	}
	return bestOut
}

// ---------------------------------------------------------------------------
// Tile construction and parallel cost computation
// ---------------------------------------------------------------------------

// histogramBuild assigns every backward-reference token to the histogram of
// the tile its run starts in: a token's position advances by its own length,
// wrapping at xsize, so a long copy is charged entirely to its start tile.
func histogramBuild(xsize, histoBits int, refs *BackwardRefs, imageHisto *HistoSet) {
	histoXSize := VP8LSubSampleSize(xsize, histoBits)
	imageHisto.clearAll()

	x, y := 0, 0
	for i := range refs.refs {
		v := &refs.refs[i]
		ix := (y>>histoBits)*histoXSize + (x >> histoBits)
		imageHisto.histos[ix].AddSingle(v, xsize, 0)
		x += v.Length()
		for x >= xsize {
			x -= xsize
			y++
		}
	}
}

// parallelComputeHistogramCost recomputes every histogram's cached cost
// fields, fanning out across goroutines once the tile count makes that
// worthwhile.
func parallelComputeHistogramCost(histos []*Histogram) {
	n := len(histos)
	if n < 256 {
		for _, h := range histos {
			h.computeHistogramCost()
		}
		return
	}
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > n {
		numWorkers = n
	}
	chunk := (n + numWorkers - 1) / numWorkers
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				histos[i].computeHistogramCost()
			}
		}(start, end)
	}
	wg.Wait()
}

// extractClusterCenters copies the surviving cluster histograms out of
// origHisto's shared slab into their own small slab, so origHisto can be
// rebuilt from scratch for the remap pass without disturbing the clusters
// the merge passes just produced.
func extractClusterCenters(imageHisto *HistoSet, cacheBits int) {
	n := len(imageHisto.histos)
	if n == 0 {
		return
	}
	litSize := histogramNumCodes(cacheBits)
	slab := make([]Histogram, n)
	litSlab := make([]uint32, n*litSize)
	for i := 0; i < n; i++ {
		dst := &slab[i]
		dst.Literal = litSlab[i*litSize : (i+1)*litSize : (i+1)*litSize]
		dst.copyFrom(imageHisto.histos[i])
		imageHisto.histos[i] = dst
	}
}

// GetHistoImageSymbols builds per-tile histograms from backward references,
// clusters them into a compact set via the C6 entropy-bin pre-pass, the C7
// stochastic pass, and the C8 greedy pass, then runs the C9 remap to assign
// every original tile to its nearest final cluster. progress, when non-nil,
// is invoked with a percent-complete estimate after each phase and can abort
// the run by returning false.
//
// width, height: image dimensions in pixels.
// refs: backward reference tokens, consumed once.
// quality: encoding quality in [0,100]; controls combine aggressiveness and
// the greedy-ramp threshold.
// lowEffort: use a coarse 4-bin entropy merge; when that merge runs, the
// stochastic/greedy passes are skipped.
// histoBits: tile size is 1 << histoBits.
// cacheBits: color cache bits (0 disables the color cache channel).
func GetHistoImageSymbols(width, height int, refs *BackwardRefs, quality int,
	lowEffort bool, histoBits, cacheBits int, scratch *HistoScratch,
	progress func(percent int) bool) ([]uint16, *HistoSet, bool) {

	histoXSize := VP8LSubSampleSize(width, histoBits)
	histoYSize := VP8LSubSampleSize(height, histoBits)
	imageHistoRawSize := histoXSize * histoYSize

	origHisto := allocateHistoSetReuse(imageHistoRawSize, cacheBits, scratch)
	histogramBuild(width, histoBits, refs, origHisto)

	// imageHisto holds pointers straight into origHisto's slab at first --
	// duplicating the full per-tile data here would cost several MB on a
	// large image for no benefit, since only non-empty tiles survive past
	// the filtering step below. Once clustering starts mutating shared
	// slots, extractClusterCenters peels the survivors into their own slab
	// so origHisto can be rebuilt cleanly for the remap pass.
	imageHisto := &HistoSet{
		histos:    make([]*Histogram, 0, imageHistoRawSize),
		cacheBits: cacheBits,
	}

	parallelComputeHistogramCost(origHisto.histos[:imageHistoRawSize])
	if progress != nil && !progress(10) {
		return nil, nil, false
	}

	for i := 0; i < imageHistoRawSize; i++ {
		h := origHisto.histos[i]
		if !h.isUsed[classLiteral] && !h.isUsed[classRed] &&
			!h.isUsed[classBlue] && !h.isUsed[classAlpha] &&
			!h.isUsed[classDistance] {
			continue
		}
		imageHisto.histos = append(imageHisto.histos, h)
	}

	entropyCombineNumBins := binSize
	if lowEffort {
		entropyCombineNumBins = numPartitions
	}
	entropyCombine := len(imageHisto.histos) > entropyCombineNumBins*2 && quality < 100

	if entropyCombine {
		combineCostFactor := getCombineCostFactor(imageHistoRawSize, quality)

		costRange := newDominantCostRange()
		for _, h := range imageHisto.histos {
			costRange.update(h)
		}
		for _, h := range imageHisto.histos {
			h.binID = uint16(getHistoBinIndex(h, &costRange, lowEffort))
		}

		histogramCombineEntropyBin(imageHisto, entropyCombineNumBins, combineCostFactor, lowEffort)
	}
	if progress != nil && !progress(50) {
		return nil, nil, false
	}

	if !lowEffort || !entropyCombine {
		thresholdSize := minClusterSize(quality)

		doGreedy := histogramCombineStochastic(imageHisto, thresholdSize)
		if doGreedy {
			histogramCombineGreedy(imageHisto)
		}
	}
	if progress != nil && !progress(90) {
		return nil, nil, false
	}

	extractClusterCenters(imageHisto, cacheBits)

	// origHisto's backing slab was shared with imageHisto above and has
	// since been mutated in place by the merge passes; rebuild it from the
	// original token stream so the remap pass below compares each tile
	// against its true, unmodified counts.
	origHisto.clearAll()
	histogramBuild(width, histoBits, refs, origHisto)
	parallelComputeHistogramCost(origHisto.histos[:imageHistoRawSize])

	for i := 1; i < imageHistoRawSize; i++ {
		h := origHisto.histos[i]
		if !h.isUsed[classLiteral] && !h.isUsed[classRed] &&
			!h.isUsed[classBlue] && !h.isUsed[classAlpha] &&
			!h.isUsed[classDistance] {
			origHisto.histos[i] = nil
		}
	}

	symbols := make([]uint16, imageHistoRawSize)
	histogramRemap(origHisto.histos, imageHisto, symbols)

	for _, h := range imageHisto.histos {
		h.computeHistogramCost()
	}
	if progress != nil && !progress(100) {
		return nil, nil, false
	}

	return symbols, imageHisto, true
}
