package lossy

import "fmt"

// errUserAbort is returned when an IO.Put callback returns false, signaling
// that the caller wants to stop decoding early.
var errUserAbort = fmt.Errorf("vp8: user abort")

// IsUserAbort reports whether err was produced by an IO.Put callback
// returning false rather than by a genuine bitstream or allocation failure.
func IsUserAbort(err error) bool {
	return err == errUserAbort
}

// Decode decodes a complete VP8 lossy frame and returns the whole picture
// as three contiguous planes. It is a convenience wrapper around
// DecodeFrame for callers that do not need row-at-a-time delivery,
// cropping or threading.
func Decode(data []byte) (width, height int, y []byte, yStride int, u, v []byte, uvStride int, err error) {
	var outY, outU, outV []byte

	var io *IO
	io = &IO{
		Setup: func() bool {
			width, height = io.Width, io.Height
			yStride = width
			uvStride = (width + 1) / 2
			outY = make([]byte, height*yStride)
			outU = make([]byte, ((height+1)/2)*uvStride)
			outV = make([]byte, ((height+1)/2)*uvStride)
			return true
		},
		Put: func(mbY, w, h int, py, pu, pv, _ []byte, yStr, uvStr int) bool {
			for j := 0; j < h; j++ {
				copy(outY[(mbY+j)*yStride:(mbY+j)*yStride+w], py[j*yStr:j*yStr+w])
			}
			cw := (w + 1) / 2
			for j := 0; j < (h+1)/2; j++ {
				row := mbY/2 + j
				copy(outU[row*uvStride:row*uvStride+cw], pu[j*uvStr:j*uvStr+cw])
				copy(outV[row*uvStride:row*uvStride+cw], pv[j*uvStr:j*uvStr+cw])
			}
			return true
		},
	}

	dec, derr := DecodeFrame(data, io)
	err = derr
	if dec != nil {
		ReleaseDecoder(dec)
	}
	if err != nil {
		return
	}
	y, u, v = outY, outU, outV
	return
}

// DecodeFrame decodes a complete VP8 lossy frame from data, driving the row
// pipeline (reconstruct -> filter -> crop -> emit) through io.Put once per
// output strip. The caller must call ReleaseDecoder(dec) once done with any
// data io.Put copied out lazily.
func DecodeFrame(data []byte, io *IO) (dec *Decoder, err error) {
	dec = acquireDecoder()

	if err = dec.parseHeaders(data); err != nil {
		ReleaseDecoder(dec)
		dec = nil
		return
	}

	io.Width = dec.picHdr.Width
	io.Height = dec.picHdr.Height
	dec.AlphaData = io.AlphaData

	if err = dec.initFrame(); err != nil {
		ReleaseDecoder(dec)
		dec = nil
		return
	}

	dec.precomputeFilterStrengths()

	if err = dec.EnterCritical(io); err != nil {
		ReleaseDecoder(dec)
		dec = nil
		return
	}

	if io.Setup != nil && !io.Setup() {
		dec.ExitCritical()
		ReleaseDecoder(dec)
		dec = nil
		err = errUserAbort
		return
	}

	err = dec.parseFrame(io)
	dec.ExitCritical()
	if io.Teardown != nil {
		io.Teardown()
	}
	if err != nil {
		ReleaseDecoder(dec)
		dec = nil
		return
	}
	return
}

// EnterCritical computes the crop-aware macroblock bounds and sets up the
// row pipeline (ring caches, thread method, worker) for a frame about to be
// decoded. It mirrors libwebp's VP8EnterCritical: the bounds only narrow to
// the crop rectangle when the active filter can tolerate it.
func (dec *Decoder) EnterCritical(io *IO) error {
	width, height := dec.picHdr.Width, dec.picHdr.Height

	right, bottom := io.CropRight, io.CropBottom
	if right <= 0 || right > width {
		right = width
	}
	if bottom <= 0 || bottom > height {
		bottom = height
	}
	left := cropped(io.CropLeft, 0, right)
	top := cropped(io.CropTop, 0, bottom)

	dec.tlMBX = left >> 4
	dec.tlMBY = top >> 4
	dec.brMBX = (right + 15) >> 4
	dec.brMBY = (bottom + 15) >> 4
	if dec.brMBX > dec.mbW {
		dec.brMBX = dec.mbW
	}
	if dec.brMBY > dec.mbH {
		dec.brMBY = dec.mbH
	}

	// The complex filter pulls samples from the macroblock above and to
	// the left of anything it touches, so the rows above a cropped
	// top-left corner must still be reconstructed and filtered. The
	// simple filter only ever reaches one row up, so backing off a
	// single macroblock row is enough.
	if dec.filterType == 2 {
		dec.tlMBX, dec.tlMBY = 0, 0
	} else if dec.filterType == 1 && dec.tlMBY > 0 {
		dec.tlMBY--
	}

	dec.mtMethod = 0
	switch {
	case io.ForceMTMethod != nil:
		dec.mtMethod = *io.ForceMTMethod
	case io.UseThreads && width >= MinWidthForThreads:
		dec.mtMethod = 2
	}

	dec.numCaches = 1
	if dec.mtMethod > 0 {
		if dec.filterType > 0 {
			dec.numCaches = 3
		} else {
			dec.numCaches = 2
		}
	}
	dec.cacheID = 0

	extraY := kFilterExtraRows[dec.filterType]
	extraUV := extraY / 2
	dec.yRing = newRingPlane(dec.cacheYStride, 16, extraY, dec.numCaches)
	dec.uRing = newRingPlane(dec.cacheUVStride, 8, extraUV, dec.numCaches)
	dec.vRing = newRingPlane(dec.cacheUVStride, 8, extraUV, dec.numCaches)

	if dec.mtMethod > 0 {
		dec.wk = newWorker()
		if cap(dec.threadMBData) >= dec.mbW {
			dec.threadMBData = dec.threadMBData[:dec.mbW]
		} else {
			dec.threadMBData = make([]MBData, dec.mbW)
		}
		if cap(dec.threadFInfo) >= dec.mbW {
			dec.threadFInfo = dec.threadFInfo[:dec.mbW]
		} else {
			dec.threadFInfo = make([]FInfo, dec.mbW)
		}
	}
	return nil
}

// ExitCritical waits for any outstanding worker job and tears the worker
// down. It is safe to call more than once.
func (dec *Decoder) ExitCritical() {
	if dec.wk != nil {
		dec.wk.Sync()
		dec.wk.Close()
		dec.wk = nil
	}
}

// ProcessRow reconstructs, filters and emits the row dec.mbY just parsed,
// choosing between the three pipeline shapes:
//
//   - mtMethod 0: everything happens here, synchronously.
//   - mtMethod 1: this thread reconstructs; the worker filters and emits
//     the row one lap behind, overlapping with the next row's parsing.
//   - mtMethod 2: the worker also reconstructs, so this thread only parses
//     bits and swaps the double-buffered mb/filter data across to it.
//
// It returns false (with no error) if a previously launched worker job, or
// the synchronous work done here, was cancelled by io.Put.
func (dec *Decoder) ProcessRow(io *IO) (bool, error) {
	mbY := dec.mbY
	filterRow := dec.filterType > 0 && !io.BypassFiltering &&
		mbY >= dec.tlMBY && mbY < dec.brMBY
	cacheID := dec.cacheID

	switch dec.mtMethod {
	case 0:
		dec.reconstructRow(mbY, dec.mbData, cacheID)
		if filterRow {
			dec.filterRow(mbY, cacheID, dec.fInfo)
		}
		ok, err := dec.finishRow(io, mbY, cacheID, filterRow)
		dec.advanceCacheID()
		return ok, err

	case 1:
		ok, err := dec.wk.Sync()
		if err != nil || !ok {
			return ok, err
		}
		dec.reconstructRow(mbY, dec.mbData, cacheID)
		var rowFInfo []FInfo
		if filterRow {
			copy(dec.threadFInfo, dec.fInfo)
			rowFInfo = dec.threadFInfo
		}
		dec.wk.Launch(func() (bool, error) {
			if filterRow {
				dec.filterRow(mbY, cacheID, rowFInfo)
			}
			return dec.finishRow(io, mbY, cacheID, filterRow)
		})
		dec.advanceCacheID()
		return true, nil

	default: // 2
		ok, err := dec.wk.Sync()
		if err != nil || !ok {
			return ok, err
		}
		// Swap the just-parsed macroblock data to the worker's buffer so
		// the parser can keep populating dec.mbData for the next row.
		dec.mbData, dec.threadMBData = dec.threadMBData, dec.mbData
		rowData := dec.threadMBData
		var rowFInfo []FInfo
		if filterRow {
			copy(dec.threadFInfo, dec.fInfo)
			rowFInfo = dec.threadFInfo
		}
		dec.wk.Launch(func() (bool, error) {
			dec.reconstructRow(mbY, rowData, cacheID)
			if filterRow {
				dec.filterRow(mbY, cacheID, rowFInfo)
			}
			return dec.finishRow(io, mbY, cacheID, filterRow)
		})
		dec.advanceCacheID()
		return true, nil
	}
}

// advanceCacheID moves dec.cacheID on to the next ring slot for the row
// about to be parsed. It only touches the index, never the ring buffers
// themselves, so it is always safe to call synchronously even when the
// slot just handed to the worker hasn't finished being written yet — the
// actual carry-over copy happens later, inside finishRow.
func (dec *Decoder) advanceCacheID() {
	dec.cacheID++
	if dec.cacheID == dec.numCaches {
		dec.cacheID = 0
	}
}

// finishRow hands ring slot cacheID's rows for macroblock row mbY to io.Put
// at the full picture width, unless mbY lies outside the [tlMBY, brMBY)
// range EnterCritical derived from the crop window; the strip itself is not
// clipped to the crop rectangle. It returns false without
// error once io.Put itself returns false, and the decode loop translates
// that into errUserAbort.
func (dec *Decoder) finishRow(io *IO, mbY, cacheID int, filtered bool) (bool, error) {
	// The carry-over copy must happen for every row regardless of
	// cropping: rows reconstructed only to feed the filter above a crop
	// window still need to seed the ring for the rows that follow them.
	isLastRow := mbY == dec.mbH-1
	if !isLastRow {
		dec.yRing.rotate(cacheID)
		dec.uRing.rotate(cacheID)
		dec.vRing.rotate(cacheID)
	}

	if mbY < dec.tlMBY || mbY >= dec.brMBY {
		return true, nil
	}

	extraY := dec.yRing.extraRows
	yWin := dec.yRing.window(cacheID)
	uWin := dec.uRing.window(cacheID)
	vWin := dec.vRing.window(cacheID)

	// The window always starts extraY (extraY/2 for chroma) rows of
	// carried-over context before this slot's own data; skip past it.
	yStart := extraY
	uvStart := extraY / 2

	h := 16
	if isLastRow {
		h = dec.picHdr.Height - mbY*16
	}
	if h <= 0 {
		return true, nil
	}

	yStride := dec.cacheYStride
	uvStride := dec.cacheUVStride
	outY := yWin[yStart*yStride:]
	outU := uWin[uvStart*uvStride:]
	outV := vWin[uvStart*uvStride:]

	width := dec.picHdr.Width
	var alpha []byte
	if dec.AlphaData != nil {
		var err error
		alpha, err = dec.decodeAlphaRows(mbY, h)
		if err != nil {
			return false, err
		}
	}

	if io.Put == nil {
		return true, nil
	}
	if !io.Put(mbY*16, width, h, outY, outU, outV, alpha, yStride, uvStride) {
		return false, nil
	}
	return true, nil
}

// decodeAlphaRows decodes (or reuses) the full alpha plane and returns the
// slice of h rows starting at macroblock row mbY. Alpha is decoded once per
// frame and sliced per row rather than rebuilt incrementally, matching how
// rarely alpha-bearing lossy pictures are produced relative to the base
// YUV pipeline this row loop otherwise serves.
func (dec *Decoder) decodeAlphaRows(mbY, h int) ([]byte, error) {
	width, height := dec.picHdr.Width, dec.picHdr.Height
	if dec.alphaPlane == nil {
		plane, err := DecodeAlpha(dec.AlphaData, width, height)
		if err != nil {
			return nil, err
		}
		dec.alphaPlane = plane
	}
	start := mbY * 16 * width
	end := start + h*width
	if end > len(dec.alphaPlane) {
		end = len(dec.alphaPlane)
	}
	if start > end {
		start = end
	}
	return dec.alphaPlane[start:end], nil
}
