package lossless

// Component C8: the greedy priority-queue clusterer. Only reached once the
// live tile count is small (bounded by minClusterSize's cubic ramp below),
// since it builds a full O(n^2) candidate-pair queue up front.

// maxHistoGreedy caps the greedy ramp: quality=100 allows up to 100 tiles
// into the greedy pass.
const maxHistoGreedy = 100

// minClusterSize is the cubic ramp bounding how many tiles the greedy pass
// is allowed to see: 1 + floor(quality^3 * (maxHistoGreedy-1) / 100^3).
// Low quality keeps greedy cheap; quality=100 reaches the full ramp.
func minClusterSize(quality int) int {
	return 1 + quality*quality*quality*(maxHistoGreedy-1)/(100*100*100)
}

// histogramCombineGreedy seeds a dense all-pairs candidate queue, then
// repeatedly merges the head of the queue (the pair that saves the most
// bits) and repairs the queue around the merge, until no candidate pair
// is left that would still help. Grounded directly on HistogramCombineGreedy
// in the original C encoder (histogram_enc.c), adapted to HistoSet's
// compacting removal rather than that version's NULL-gap array plus a
// separate live-count field.
func histogramCombineGreedy(imageHisto *HistoSet) {
	n := imageHisto.Size()

	var q histoQueue
	// maxSize stays at its zero value (unbounded): the queue can never
	// hold more than n*(n-1)/2 live candidates at once, so nothing caps it.
	q.queue = make([]histogramPair, 0, n*n)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			q.push(imageHisto.histos, i, j, 0)
		}
	}

	for q.size() > 0 {
		mergeGreedyWinner(imageHisto, &q)
	}
}

// mergeGreedyWinner merges the queue's head pair into its lower index,
// retires the higher index from the live set, and rewrites every queued
// candidate so it still names live tiles at their current positions.
func mergeGreedyWinner(imageHisto *HistoSet, q *histoQueue) {
	survivor := q.queue[0].idx1
	absorbed := q.queue[0].idx2

	histogramAdd(imageHisto.Get(absorbed), imageHisto.Get(survivor), imageHisto.Get(survivor))
	imageHisto.Get(survivor).bitCost = q.queue[0].costCombo
	imageHisto.Get(survivor).costs = q.queue[0].costs

	movedFrom := imageHisto.Size() - 1
	imageHisto.remove(absorbed)

	i := 0
	for i < q.size() {
		p := &q.queue[i]
		touchesMerge := p.idx1 == survivor || p.idx2 == survivor ||
			p.idx1 == absorbed || p.idx2 == absorbed
		if touchesMerge {
			q.popAt(i)
			continue
		}
		fixPair(p, movedFrom, absorbed)
		q.updateHead(i)
		i++
	}

	for i := 0; i < imageHisto.Size(); i++ {
		if i != survivor {
			q.push(imageHisto.histos, survivor, i, 0)
		}
	}
}
