package lossless

// Component C7: the stochastic clusterer. Rather than scoring every O(n^2)
// pair, it samples random pairs into a small fixed-size priority queue and
// merges the best candidate found each round. Cheap relative to the greedy
// pass, and good enough to shrink a large tile count down to where greedy
// merging (C8) is affordable.

// lehmerRand is a 48271-multiplier Lehmer (Park-Miller) generator. Seeded at
// 1, it is fully deterministic -- the clustering result for a given input is
// reproducible across runs and across implementations that use the same
// generator.
func lehmerRand(seed *uint32) uint32 {
	*seed = uint32((uint64(*seed) * 48271) % 2147483647)
	return *seed
}

// stochasticQueueCap bounds how many candidate pairs the stochastic pass
// keeps around at once -- a small fixed-size queue, unlike greedy's full
// O(n^2) candidate set.
const stochasticQueueCap = 9

// histogramCombineStochastic samples random pairs of live tiles a handful
// of rounds at a time, merging the best candidate found each round, until
// either the live count reaches minClusterSize or too many rounds in a row
// fail to find any mergeable pair. It reports whether the live set already
// fits under minClusterSize -- the signal the caller uses to decide whether
// the greedy pass (C8) still needs to run afterward. Grounded directly on
// HistogramCombineStochastic in the original C encoder (histogram_enc.c);
// that version tracks live indices through a separate compact `mappings`
// array with bsearch/memmove removal, which HistoSet's own compacting
// removal makes unnecessary here.
func histogramCombineStochastic(imageHisto *HistoSet, minClusterSize int) bool {
	if imageHisto.Size() < minClusterSize {
		return true
	}

	var q histoQueue
	q.maxSize = stochasticQueueCap
	q.queue = make([]histogramPair, 0, stochasticQueueCap+1)

	seed := uint32(1)
	roundBudget := imageHisto.Size()
	failLimit := roundBudget / 2
	consecutiveFails := 0

	for round := 0; round < roundBudget && imageHisto.Size() >= minClusterSize; round++ {
		consecutiveFails++
		if consecutiveFails >= failLimit {
			break
		}
		if !sampleCandidates(imageHisto, &q, &seed) {
			continue
		}
		mergeStochasticWinner(imageHisto, &q)
		consecutiveFails = 0
	}

	return imageHisto.Size() <= minClusterSize
}

// sampleCandidates draws roughly half the live tile count worth of random
// index pairs, pushing each one into q, and reports whether any candidate
// ended up queued.
func sampleCandidates(imageHisto *HistoSet, q *histoQueue, seed *uint32) bool {
	n := imageHisto.Size()
	threshold := 0.0
	if q.size() > 0 {
		threshold = q.queue[0].costDiff
	}

	span := uint32((n - 1) * n)
	draws := n / 2

	for j := 0; n >= 2 && j < draws; j++ {
		draw := lehmerRand(seed) % span
		a := int(draw / uint32(n-1))
		b := int(draw % uint32(n-1))
		if b >= a {
			b++
		}

		if cost := q.push(imageHisto.histos, a, b, threshold); cost < 0 {
			threshold = cost
			if q.size() == q.maxSize {
				break
			}
		}
	}
	return q.size() > 0
}

// mergeStochasticWinner merges the queue's best candidate pair, drops the
// absorbed index from the live set, and re-evaluates or discards every
// other queued candidate that the merge invalidated.
func mergeStochasticWinner(imageHisto *HistoSet, q *histoQueue) {
	survivor := q.queue[0].idx1
	absorbed := q.queue[0].idx2

	histogramAdd(imageHisto.Get(absorbed), imageHisto.Get(survivor), imageHisto.Get(survivor))
	imageHisto.Get(survivor).bitCost = q.queue[0].costCombo
	imageHisto.Get(survivor).costs = q.queue[0].costs

	movedFrom := imageHisto.Size() - 1
	imageHisto.remove(absorbed)

	j := 0
	for j < q.size() {
		p := &q.queue[j]
		onSurvivor := p.idx1 == survivor || p.idx2 == survivor
		onAbsorbed := p.idx1 == absorbed || p.idx2 == absorbed

		// A candidate naming both merged indices is now self-referential
		// (random sampling gives no guarantee against drawing the same
		// pair twice); it can only be dropped, never repaired.
		if onSurvivor && onAbsorbed {
			q.popAt(j)
			continue
		}
		if onSurvivor || onAbsorbed {
			fixPair(p, absorbed, survivor)
			// Rename the tile that remove moved into absorbed's slot before
			// rescoring: the old last slot no longer exists.
			fixPair(p, movedFrom, absorbed)
			if !rescoreCandidate(imageHisto, p) {
				q.popAt(j)
				continue
			}
		}

		fixPair(p, movedFrom, absorbed)
		q.updateHead(j)
		j++
	}
}

// rescoreCandidate recomputes a candidate pair's combined cost after one
// of its two indices was rewritten to point at the tile that just absorbed
// a merge. Reports whether the pair still has a well-defined entropy cost.
func rescoreCandidate(imageHisto *HistoSet, p *histogramPair) bool {
	h1, h2 := imageHisto.Get(p.idx1), imageHisto.Get(p.idx2)
	sumCost := h1.bitCost + h2.bitCost

	costCombo, costs, ok := getCombinedHistogramEntropy(h1, h2, sumCost)
	if !ok {
		return false
	}
	p.costCombo = costCombo
	p.costs = costs
	p.costDiff = costCombo - sumCost
	return true
}
