package decoder

import "sync"

// MemDecoder is a Decoder backed by an in-memory PCM buffer. It is used
// directly by tests and by DecodeAll() callers that pre-decode an entire
// effect (spec §4.6's SFX path decodes a real file, then its bytes "live
// in the backend buffer" — the source decoder itself is released; this
// type models the decode side of that pipeline and is also handy as a
// hand-built fixture for deterministic engine tests).
type MemDecoder struct {
	mu        sync.Mutex
	data      []byte
	pos       int
	freq      uint32
	format    Format
	looping   bool
	err       error
	chunkSize int // max bytes Decode returns per call; 0 = unlimited
}

// NewMemDecoder wraps data as a Decoder. chunkSize caps how many bytes a
// single Decode call returns (0 means "return everything remaining"),
// letting tests simulate a streaming source instead of a prompt one-shot.
func NewMemDecoder(data []byte, freq uint32, format Format, chunkSize int) *MemDecoder {
	return &MemDecoder{data: data, freq: freq, format: format, chunkSize: chunkSize}
}

func (d *MemDecoder) Decode(out []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pos >= len(d.data) {
		if d.looping && len(d.data) > 0 {
			d.pos = 0
		} else {
			d.err = ErrEndOfFile
			return 0, ErrEndOfFile
		}
	}

	n := len(out)
	if remaining := len(d.data) - d.pos; remaining < n {
		n = remaining
	}
	if d.chunkSize > 0 && n > d.chunkSize {
		n = d.chunkSize
	}
	copy(out[:n], d.data[d.pos:d.pos+n])
	d.pos += n
	d.err = nil
	return n, nil
}

func (d *MemDecoder) DecodeAll() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	remaining := d.data[d.pos:]
	out := make([]byte, len(remaining))
	copy(out, remaining)
	d.pos = len(d.data)
	d.err = ErrEndOfFile
	return out, nil
}

func (d *MemDecoder) Rewind() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pos = 0
	d.err = nil
	return nil
}

func (d *MemDecoder) Seek(posMS uint32) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	bytesPerSecond := float64(d.freq) * float64(d.format.BytesPerFullSample())
	target := int(float64(posMS) / 1000 * bytesPerSecond)
	frame := d.format.BytesPerFullSample()
	if frame > 0 {
		target -= target % frame
	}
	if target < 0 {
		target = 0
	}
	if target > len(d.data) {
		target = len(d.data)
	}
	d.pos = target
	d.err = nil
	if bytesPerSecond == 0 {
		return 0, nil
	}
	return uint32(float64(d.pos) / bytesPerSecond * 1000), nil
}

func (d *MemDecoder) GetTime() float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	bytesPerSecond := float64(d.freq) * float64(d.format.BytesPerFullSample())
	if bytesPerSecond == 0 {
		return 0
	}
	return float32(float64(d.pos) / bytesPerSecond)
}

func (d *MemDecoder) Length() float32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	bytesPerSecond := float64(d.freq) * float64(d.format.BytesPerFullSample())
	if bytesPerSecond == 0 {
		return 0
	}
	return float32(float64(len(d.data)) / bytesPerSecond)
}

func (d *MemDecoder) Frequency() uint32 { return d.freq }
func (d *MemDecoder) Format() Format    { return d.format }

func (d *MemDecoder) Looping() bool { d.mu.Lock(); defer d.mu.Unlock(); return d.looping }
func (d *MemDecoder) SetLooping(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.looping = v
}

func (d *MemDecoder) Error() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *MemDecoder) Close() error { return nil }
