package lossy

import (
	"fmt"
)

// AlphaPlaneDecoder decodes a VP8L-compressed alpha payload into a raw
// width*height byte plane (one byte per pixel, green channel of the decoded
// ARGB image). The alpha-plane codec is a named external collaborator this
// package consumes rather than implements -- see DecodeAlpha. A build that
// needs compressed alpha support wires this to a real VP8L image decoder
// during startup; the zero value makes DecodeAlpha fail closed instead of
// silently returning blank alpha.
var AlphaPlaneDecoder func(payload []byte, width, height int) ([]byte, error)

// Alpha compression methods.
const (
	AlphaNoCompression       = 0
	AlphaLosslessCompression = 1
)

// Alpha filtering methods.
const (
	AlphaFilterNone       = 0
	AlphaFilterHorizontal = 1
	AlphaFilterVertical   = 2
	AlphaFilterGradient   = 3
)

// DecodeAlpha decodes an alpha plane from the given ALPH chunk data.
// Returns the alpha plane as a width*height byte slice.
func DecodeAlpha(data []byte, width, height int) ([]byte, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("alpha: empty data")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("alpha: invalid dimensions %dx%d", width, height)
	}
	area := uint64(width) * uint64(height)
	if area > 1<<30 {
		return nil, fmt.Errorf("alpha: plane too large (%dx%d = %d pixels)", width, height, area)
	}

	// Parse the 1-byte alpha header.
	header := data[0]
	compression := (header >> 0) & 0x03
	filtering := (header >> 2) & 0x03
	_ = (header >> 4) & 0x03 // pre-processing (unused in decode)

	payload := data[1:]
	planeSize := int(area)

	var raw []byte

	switch compression {
	case AlphaNoCompression:
		// Raw data.
		if len(payload) < planeSize {
			return nil, fmt.Errorf("alpha: truncated uncompressed data")
		}
		raw = make([]byte, planeSize)
		copy(raw, payload[:planeSize])

	case AlphaLosslessCompression:
		// VP8L-compressed alpha. The payload is a VP8L bitstream whose
		// green channel carries the alpha values; decoding it is handed
		// to the collaborator above rather than done in this package.
		if AlphaPlaneDecoder == nil {
			return nil, fmt.Errorf("alpha: no VP8L alpha decoder wired (lossy.AlphaPlaneDecoder is nil)")
		}
		var err error
		raw, err = AlphaPlaneDecoder(payload, width, height)
		if err != nil {
			return nil, fmt.Errorf("alpha: VP8L decode failed: %w", err)
		}
		if len(raw) < planeSize {
			return nil, fmt.Errorf("alpha: decoded plane too small (%d bytes, want %d)", len(raw), planeSize)
		}

	default:
		return nil, fmt.Errorf("alpha: unknown compression method %d", compression)
	}

	// Apply inverse filtering.
	switch filtering {
	case AlphaFilterNone:
		// Nothing.
	case AlphaFilterHorizontal:
		alphaUnfilterHorizontal(raw, width, height)
	case AlphaFilterVertical:
		alphaUnfilterVertical(raw, width, height)
	case AlphaFilterGradient:
		alphaUnfilterGradient(raw, width, height)
	default:
		return nil, fmt.Errorf("alpha: unknown filter method %d", filtering)
	}

	return raw, nil
}

// alphaUnfilterHorizontal applies inverse horizontal prediction.
// Matches libwebp HorizontalUnfilter_C: for row 0, pred starts at 0;
// for rows > 0, pred starts at prev_row[0] (cross-row prediction).
func alphaUnfilterHorizontal(data []byte, width, height int) {
	for y := 0; y < height; y++ {
		row := data[y*width : (y+1)*width]
		// For y==0 (no previous row), initial prediction is 0 (row[0] unchanged).
		// For y>0, initial prediction is prev_row[0].
		if y > 0 {
			row[0] += data[(y-1)*width]
		}
		for x := 1; x < width; x++ {
			row[x] += row[x-1]
		}
	}
}

// alphaUnfilterVertical applies inverse vertical prediction.
// Matches libwebp VerticalUnfilter_C: the first row (prev==NULL) uses
// horizontal unfilter (cumulative sums from 0), not raw deltas.
func alphaUnfilterVertical(data []byte, width, height int) {
	// First row: horizontal unfilter (cumulative sums from initial pred=0).
	alphaUnfilterHorizontalRow(data[:width])
	// Remaining rows: add previous row.
	for y := 1; y < height; y++ {
		curr := data[y*width : (y+1)*width]
		prev := data[(y-1)*width : y*width]
		for x := 0; x < width; x++ {
			curr[x] += prev[x]
		}
	}
}

// alphaUnfilterHorizontalRow applies horizontal unfilter to a single row
// with initial prediction = 0 (used by vertical and gradient for the first row).
func alphaUnfilterHorizontalRow(row []byte) {
	for x := 1; x < len(row); x++ {
		row[x] += row[x-1]
	}
}

// alphaUnfilterGradient applies inverse gradient prediction.
// Matches libwebp GradientUnfilter_C: first row uses horizontal unfilter,
// remaining rows use gradient prediction (left + top - top_left, clamped).
func alphaUnfilterGradient(data []byte, width, height int) {
	// First row: horizontal unfilter (cumulative sums from initial pred=0).
	alphaUnfilterHorizontalRow(data[:width])
	// Remaining rows: gradient prediction (matching C single-pass logic).
	for y := 1; y < height; y++ {
		curr := data[y*width : (y+1)*width]
		prev := data[(y-1)*width : y*width]
		// C: top = prev[0], top_left = top, left = top
		top := prev[0]
		topLeft := top
		left := top
		for x := 0; x < width; x++ {
			top = prev[x]
			pred := int(left) + int(top) - int(topLeft)
			if pred < 0 {
				pred = 0
			} else if pred > 255 {
				pred = 255
			}
			left = curr[x] + byte(pred)
			topLeft = top
			curr[x] = left
		}
	}
}
