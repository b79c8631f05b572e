package mixer

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/acoliver/soundcore/internal/logging"
)

// PortAudioBackend is a concrete Mixer-Backend Capability implementation
// that software-mixes every active source into one PortAudio output
// stream with the channel count given to NewPortAudioBackend. It is grounded on the teacher's audio/microphone.go:
// same portaudio.Initialize/OpenStream/Start/Close/Terminate lifecycle,
// mirrored from an input stream onto an output stream whose callback
// fills the device buffer instead of draining it.
type PortAudioBackend struct {
	sampleRate float64
	channels   int

	stream *portaudio.Stream

	mu         sync.Mutex
	sources    map[SourceHandle]*mixSource
	nextSource SourceHandle
	buffers    map[BufferHandle]*mixBuffer
	nextBuffer BufferHandle
	closed     bool
}

type queuedBuffer struct {
	handle BufferHandle
	pcm    []float32 // interleaved, backend channel count
	pos    int        // read position in frames
}

type mixSource struct {
	state     SourceState
	gain      float32
	position  [3]float32
	looping   bool
	queue     []*queuedBuffer
	processed []BufferHandle
}

type mixBuffer struct {
	pcm []float32 // interleaved, backend channel count
}

// NewPortAudioBackend opens the default output device at sampleRate
// with the given channel count (1 or 2) and starts mixing immediately.
func NewPortAudioBackend(sampleRate float64, channels int) (*PortAudioBackend, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("mixer: portaudio init: %w", err)
	}

	b := &PortAudioBackend{
		sampleRate: sampleRate,
		channels:   channels,
		sources:    make(map[SourceHandle]*mixSource),
		buffers:    make(map[BufferHandle]*mixBuffer),
	}

	host, err := portaudio.DefaultHostApi()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("mixer: default host api: %w", err)
	}

	params := portaudio.HighLatencyParameters(nil, host.DefaultOutputDevice)
	params.Output.Channels = channels
	params.SampleRate = sampleRate

	stream, err := portaudio.OpenStream(params, b.callback)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("mixer: open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("mixer: start stream: %w", err)
	}
	b.stream = stream
	return b, nil
}

// callback runs on PortAudio's real-time thread: sum every playing
// source's current queue head into out, advancing read positions and
// retiring fully-consumed buffers to each source's processed list.
func (b *PortAudioBackend) callback(out []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range out {
		out[i] = 0
	}
	frames := len(out) / b.channels

	for _, src := range b.sources {
		if src.state != StatePlaying {
			continue
		}
		framesLeft := frames
		outPos := 0
		for framesLeft > 0 {
			if len(src.queue) == 0 {
				break
			}
			head := src.queue[0]
			available := len(head.pcm)/b.channels - head.pos
			if available <= 0 {
				src.processed = append(src.processed, head.handle)
				src.queue = src.queue[1:]
				continue
			}
			n := available
			if n > framesLeft {
				n = framesLeft
			}
			for f := 0; f < n; f++ {
				for c := 0; c < b.channels; c++ {
					out[(outPos+f)*b.channels+c] += head.pcm[(head.pos+f)*b.channels+c] * src.gain
				}
			}
			head.pos += n
			outPos += n
			framesLeft -= n
			if head.pos*b.channels >= len(head.pcm) {
				src.processed = append(src.processed, head.handle)
				src.queue = src.queue[1:]
			}
		}
		if len(src.queue) == 0 {
			src.state = StateStopped
		}
	}
}

func (b *PortAudioBackend) NewSource() (SourceHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextSource++
	h := b.nextSource
	b.sources[h] = &mixSource{gain: 1, state: StateStopped}
	return h, nil
}

func (b *PortAudioBackend) DeleteSource(h SourceHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sources, h)
	return nil
}

func (b *PortAudioBackend) mustSource(h SourceHandle) (*mixSource, error) {
	src, ok := b.sources[h]
	if !ok {
		return nil, fmt.Errorf("mixer: unknown source handle %d", h)
	}
	return src, nil
}

func (b *PortAudioBackend) Play(h SourceHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.mustSource(h)
	if err != nil {
		return err
	}
	src.state = StatePlaying
	return nil
}

func (b *PortAudioBackend) Stop(h SourceHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.mustSource(h)
	if err != nil {
		return err
	}
	src.state = StateStopped
	src.queue = nil
	return nil
}

func (b *PortAudioBackend) Pause(h SourceHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.mustSource(h)
	if err != nil {
		return err
	}
	src.state = StatePaused
	return nil
}

func (b *PortAudioBackend) Rewind(h SourceHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.mustSource(h)
	if err != nil {
		return err
	}
	for _, qb := range src.queue {
		qb.pos = 0
	}
	return nil
}

func (b *PortAudioBackend) QueueBuffers(h SourceHandle, handles []BufferHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.mustSource(h)
	if err != nil {
		return err
	}
	for _, bh := range handles {
		buf, ok := b.buffers[bh]
		if !ok {
			return fmt.Errorf("mixer: unknown buffer handle %d", bh)
		}
		src.queue = append(src.queue, &queuedBuffer{handle: bh, pcm: buf.pcm})
	}
	return nil
}

func (b *PortAudioBackend) UnqueueBuffers(h SourceHandle) ([]BufferHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.mustSource(h)
	if err != nil {
		return nil, err
	}
	out := src.processed
	src.processed = nil
	return out, nil
}

func (b *PortAudioBackend) BuffersProcessed(h SourceHandle) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.mustSource(h)
	if err != nil {
		return 0, err
	}
	return len(src.processed), nil
}

func (b *PortAudioBackend) State(h SourceHandle) (SourceState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.mustSource(h)
	if err != nil {
		return StateStopped, err
	}
	return src.state, nil
}

func (b *PortAudioBackend) SetProperty(h SourceHandle, prop Property, values ...float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.mustSource(h)
	if err != nil {
		return err
	}
	switch prop {
	case PropertyGain:
		if len(values) != 1 {
			return fmt.Errorf("mixer: gain takes 1 value, got %d", len(values))
		}
		src.gain = values[0]
	case PropertyPosition:
		if len(values) != 3 {
			return fmt.Errorf("mixer: position takes 3 values, got %d", len(values))
		}
		src.position = [3]float32{values[0], values[1], values[2]}
	case PropertyLooping:
		if len(values) != 1 {
			return fmt.Errorf("mixer: looping takes 1 value, got %d", len(values))
		}
		src.looping = values[0] != 0
	case PropertyPitch:
		// Software mixer does not resample for pitch; accepted but unused.
	default:
		return fmt.Errorf("mixer: unknown property %d", prop)
	}
	return nil
}

func (b *PortAudioBackend) GetProperty(h SourceHandle, prop Property) ([]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	src, err := b.mustSource(h)
	if err != nil {
		return nil, err
	}
	switch prop {
	case PropertyGain:
		return []float32{src.gain}, nil
	case PropertyPosition:
		return []float32{src.position[0], src.position[1], src.position[2]}, nil
	case PropertyLooping:
		if src.looping {
			return []float32{1}, nil
		}
		return []float32{0}, nil
	default:
		return nil, fmt.Errorf("mixer: unknown property %d", prop)
	}
}

func (b *PortAudioBackend) NewBuffer() (BufferHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextBuffer++
	h := b.nextBuffer
	b.buffers[h] = &mixBuffer{}
	return h, nil
}

func (b *PortAudioBackend) DeleteBuffer(h BufferHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.buffers, h)
	return nil
}

// Upload converts data (interleaved PCM, 8 or 16 bit, 1 or 2 channels,
// at freqHz) into float32 samples at this backend's channel count.
// This backend does not resample: freqHz must match the stream's
// sample rate, matching the spec's delegation of rate agreement to
// whatever decodes the source (§6.1's Frequency()).
func (b *PortAudioBackend) Upload(handle BufferHandle, data []byte, bits, channels int, freqHz uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.buffers[handle]
	if !ok {
		return fmt.Errorf("mixer: unknown buffer handle %d", handle)
	}
	if uint32(b.sampleRate) != freqHz {
		logging.WithOp(logging.Logger(), "mixer.upload").Warn(
			"buffer frequency mismatch with stream rate; no resampling performed",
			"stream_hz", b.sampleRate, "buffer_hz", freqHz)
	}

	frameBytes := bits / 8 * channels
	if frameBytes <= 0 || len(data)%frameBytes != 0 {
		return fmt.Errorf("mixer: upload data not aligned to %d-byte frames", frameBytes)
	}
	numFrames := len(data) / frameBytes
	pcm := make([]float32, numFrames*b.channels)

	for f := 0; f < numFrames; f++ {
		for c := 0; c < b.channels; c++ {
			srcChan := c
			if channels == 1 {
				srcChan = 0
			} else if srcChan >= channels {
				srcChan = channels - 1
			}
			var sample float32
			if bits == 16 {
				off := f*frameBytes + srcChan*2
				v := int16(data[off]) | int16(data[off+1])<<8
				sample = float32(v) / 32768.0
			} else {
				off := f*frameBytes + srcChan
				sample = (float32(data[off]) - 128) / 128.0
			}
			pcm[f*b.channels+c] = sample
		}
	}
	buf.pcm = pcm
	return nil
}

func (b *PortAudioBackend) BufferProperty(handle BufferHandle, prop Property) ([]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.buffers[handle]
	if !ok {
		return nil, fmt.Errorf("mixer: unknown buffer handle %d", handle)
	}
	switch prop {
	case PropertyFrameCount:
		return []float32{float32(len(buf.pcm) / b.channels)}, nil
	default:
		return nil, fmt.Errorf("mixer: unsupported buffer property %d", prop)
	}
}

func (b *PortAudioBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if err := b.stream.Close(); err != nil {
		portaudio.Terminate()
		return fmt.Errorf("mixer: close stream: %w", err)
	}
	return portaudio.Terminate()
}
