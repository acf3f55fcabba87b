package lossy

// IO carries the per-decode I/O configuration: the cropping window, whether
// the caller wants multi-threaded row processing, and the callback invoked
// once per finished output strip.
//
// Put receives one contiguous strip of fully filtered samples at a time
// (mbH rows high, usually 16 but narrower at the bottom of the image),
// always spanning the full picture width. mbY is the top row of the strip in
// picture pixel coordinates. The crop fields only decide which macroblock
// rows are emitted (see EnterCritical, where the filters can widen that
// range); an emitted strip is not clipped to the crop rectangle,
// horizontally or vertically.
// a is nil unless the picture carries an alpha plane. Returning false aborts
// the decode with a user-cancellation error.
type IO struct {
	// Width and Height are filled in by DecodeFrame once the picture
	// header is parsed, before Setup is called, so Setup can size
	// whatever the Put callback will write into.
	Width, Height int

	CropTop, CropLeft, CropRight, CropBottom int

	// AlphaData, if non-nil, is the compressed ALPH chunk payload for this
	// picture. Put's alpha argument is nil unless this is set.
	AlphaData []byte

	// BypassFiltering disables the in-loop deblocking filter even if the
	// bitstream requests it, trading fidelity for decode speed.
	BypassFiltering bool

	// UseThreads requests the multi-threaded reconstruct/filter pipeline
	// when the picture is wide enough to benefit (see MinWidthForThreads).
	UseThreads bool

	// ForceMTMethod overrides the automatic thread-method choice (0, 1 or
	// 2) when non-nil. Intended for tests exercising a specific pipeline
	// shape; production callers should leave it nil.
	ForceMTMethod *int

	Put func(mbY, width, height int, y, u, v, a []byte, yStride, uvStride int) bool

	Setup    func() bool
	Teardown func()
}

// MinWidthForThreads is the narrowest picture width for which the decoder
// will automatically switch on the parallel reconstruct+filter pipeline.
// Below it the per-row overhead of handing work to a second goroutine
// outweighs the gain.
const MinWidthForThreads = 512

func cropped(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
