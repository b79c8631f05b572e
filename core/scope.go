package core

import (
	"github.com/mjibson/go-dsp/window"

	"github.com/acoliver/soundcore/decoder"
)

// ScopePadBytes is a safety margin against off-by-one on wrap; sized
// comfortably larger than one full sample frame for any supported
// format (spec §9 Open Questions).
const ScopePadBytes = 256

// newScopeRing allocates a ring sized to hold K buffers' worth of bytes
// plus the pad (spec §4.1: "allocate a ring buffer of size K ×
// buffer_bytes + SCOPE_PAD_BYTES"). baseStep is 1 for speech, 4 for
// music (spec §4.3).
func newScopeRing(k, bufferBytes int, freq uint32, format decoder.Format, baseStep int) *ScopeRing {
	size := k*bufferBytes + ScopePadBytes
	return &ScopeRing{
		data:     make([]byte, size),
		size:     size,
		freq:     freq,
		format:   format,
		baseStep: baseStep,
	}
}

// addScope copies the bytes just decoded into the ring, wrapping at the
// end, and records the wall-clock moment of this write so readers can
// compute an elapsed-time-based logical read position.
func (r *ScopeRing) addScope(data []byte, nowUnits int64) {
	for _, b := range data {
		r.data[r.tail] = b
		r.tail = (r.tail + 1) % r.size
	}
	r.lastQueueTimeUs = nowUnits
}

// popScope advances the read head by n bytes once the corresponding
// buffer has finished playing (process_stream's recycle loop).
func (r *ScopeRing) popScope(n int) {
	r.head = (r.head + n) % r.size
}

// agcWindow is the PAGES x FRAMES grid of per-frame peak amplitude used by
// the AGC+VAD amplitude extractor (spec §4.3).
type agcWindow struct {
	pages  int
	frames int
	grid   [][]float64 // [page][frame] peak amplitude
	cursor int         // next page to overwrite
	hann   []float64   // Hann window of length `frames`, pre-measurement weighting
}

func newAGCWindow(pages, frames int) *agcWindow {
	grid := make([][]float64, pages)
	for i := range grid {
		grid[i] = make([]float64, frames)
	}
	return &agcWindow{
		pages:  pages,
		frames: frames,
		grid:   grid,
		hann:   window.Hann(frames),
	}
}

// pushPage records one page's per-frame peak amplitudes (already
// Hann-weighted by the caller) and advances the write cursor.
func (w *agcWindow) pushPage(peaks []float64) {
	n := len(peaks)
	if n > w.frames {
		n = w.frames
	}
	copy(w.grid[w.cursor], peaks[:n])
	w.cursor = (w.cursor + 1) % w.pages
}

// average computes the running mean peak across the whole grid,
// excluding frames below vadThreshold (voice-activity detection: low
// energy frames are silence and must not pump the AGC average down).
func (w *agcWindow) average(vadThreshold float64) float64 {
	var sum float64
	var count int
	for _, page := range w.grid {
		for _, v := range page {
			if v < vadThreshold {
				continue
			}
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// Reader pulls an amplitude window for the oscilloscope from a slot's
// scope ring, applying the sample-decoding and step-size rules of
// spec §4.3.
type Reader struct {
	cfg struct {
		ceiling      float64
		vadThreshold float64
	}
	agc *agcWindow
}

// NewReader builds a scope reader with the AGC grid sized per cfg
// (spec §6.4's AGC pages=16, frames=8, VAD energy=100, default ceiling
// 28000).
func NewReader(pages, frames int, ceiling, vadThreshold float64) *Reader {
	r := &Reader{agc: newAGCWindow(pages, frames)}
	r.cfg.ceiling = ceiling
	r.cfg.vadThreshold = vadThreshold
	return r
}

// stepSize computes max(1, base_step*frequency/11025) * bytes_per_full_sample.
func stepSize(baseStep int, freq uint32, bytesPerFullSample int) int {
	step := baseStep * int(freq) / 11025
	if step < 1 {
		step = 1
	}
	return step * bytesPerFullSample
}

// decodeSample converts bytes at byte offset off in the ring into one
// summed-across-channels amplitude sample, per the 8-bit/16-bit rules
// of spec §4.3.
func decodeSample(data []byte, off int, ringSize int, format decoder.Format) int {
	var sum int
	bytesPerChannel := format.Bits / 8
	for c := 0; c < format.Channels; c++ {
		idx := (off + c*bytesPerChannel) % ringSize
		switch format.Bits {
		case 8:
			v := int(data[idx]) - 128
			sum += v << 8
		case 16:
			lo := data[idx]
			hi := data[(idx+1)%ringSize]
			v := int(int16(uint16(lo) | uint16(hi)<<8))
			sum += v
		}
	}
	return sum
}

// Window reads w samples from ring, computing the logical read
// position as head + elapsed-time-scaled offset (spec §4.3), pushes one
// AGC page of per-frame peaks, and returns amplitudes scaled so the
// running AGC average maps to quarter-height, clamped to [0, height-1].
func (r *Reader) Window(ring *ScopeRing, nowUnits int64, unitsPerSecond int64, w int, height int) []int {
	if ring == nil || w <= 0 {
		return nil
	}
	bytesPerFullSample := ring.format.BytesPerFullSample()
	elapsedUnits := nowUnits - ring.lastQueueTimeUs
	elapsedSeconds := float64(elapsedUnits) / float64(unitsPerSecond)
	bytesElapsed := elapsedSeconds * float64(ring.freq) * float64(bytesPerFullSample)
	readPos := (ring.head + int(bytesElapsed)) % ring.size
	if readPos < 0 {
		readPos += ring.size
	}

	step := stepSize(ring.baseStep, ring.freq, bytesPerFullSample)
	out := make([]int, w)
	peaks := make([]float64, r.agc.frames)
	framesPerSample := w / r.agc.frames
	if framesPerSample < 1 {
		framesPerSample = 1
	}

	pos := readPos
	for i := 0; i < w; i++ {
		s := decodeSample(ring.data, pos, ring.size, ring.format)
		out[i] = s
		frameIdx := i / framesPerSample
		if frameIdx < len(peaks) {
			abs := float64(s)
			if abs < 0 {
				abs = -abs
			}
			weighted := abs * r.agc.hann[frameIdx%len(r.agc.hann)]
			if weighted > peaks[frameIdx] {
				peaks[frameIdx] = weighted
			}
		}
		pos = (pos + step) % ring.size
	}
	r.agc.pushPage(peaks)

	avg := r.agc.average(r.cfg.vadThreshold)
	if avg <= 0 {
		avg = r.cfg.ceiling
	}
	quarterHeight := float64(height) / 4
	half := float64(height) / 2
	scale := quarterHeight / avg

	result := make([]int, w)
	for i, s := range out {
		v := half + float64(s)*scale
		if v < 0 {
			v = 0
		}
		if v > float64(height-1) {
			v = float64(height - 1)
		}
		result[i] = int(v)
	}
	return result
}
