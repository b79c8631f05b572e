package mixer

import "sync"

// FakeBackend is an in-memory Backend used by core/track tests so the
// streaming engine's lock discipline, recycle loop, and fade math can
// be exercised deterministically without opening a real audio device.
// It mirrors PortAudioBackend's bookkeeping without mixing or timing.
type FakeBackend struct {
	mu         sync.Mutex
	sources    map[SourceHandle]*mixSource
	nextSource SourceHandle
	buffers    map[BufferHandle]*mixBuffer
	nextBuffer BufferHandle
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		sources: make(map[SourceHandle]*mixSource),
		buffers: make(map[BufferHandle]*mixBuffer),
	}
}

func (b *FakeBackend) NewSource() (SourceHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextSource++
	h := b.nextSource
	b.sources[h] = &mixSource{gain: 1, state: StateStopped}
	return h, nil
}

func (b *FakeBackend) DeleteSource(h SourceHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sources, h)
	return nil
}

func (b *FakeBackend) Play(h SourceHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources[h].state = StatePlaying
	return nil
}

func (b *FakeBackend) Stop(h SourceHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	src := b.sources[h]
	src.state = StateStopped
	src.queue = nil
	return nil
}

func (b *FakeBackend) Pause(h SourceHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources[h].state = StatePaused
	return nil
}

func (b *FakeBackend) Rewind(h SourceHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, qb := range b.sources[h].queue {
		qb.pos = 0
	}
	return nil
}

func (b *FakeBackend) QueueBuffers(h SourceHandle, handles []BufferHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	src := b.sources[h]
	for _, bh := range handles {
		buf := b.buffers[bh]
		src.queue = append(src.queue, &queuedBuffer{handle: bh, pcm: buf.pcm})
	}
	return nil
}

// AdvanceAll simulates one mixing tick: every playing source consumes
// up to frames from its queue head, moving exhausted buffers to the
// processed list. Tests call this in place of a real callback. Mirrors
// PortAudioBackend's callback: a source whose queue drains completely
// transitions to StateStopped, the same "ran out of buffers" signal a
// real device reports and the engine's underrun detection relies on.
func (b *FakeBackend) AdvanceAll(frames int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, src := range b.sources {
		if src.state != StatePlaying || len(src.queue) == 0 {
			continue
		}
		head := src.queue[0]
		head.pos += frames
		if head.pos >= len(head.pcm) {
			src.processed = append(src.processed, head.handle)
			src.queue = src.queue[1:]
		}
		if len(src.queue) == 0 {
			src.state = StateStopped
		}
	}
}

func (b *FakeBackend) UnqueueBuffers(h SourceHandle) ([]BufferHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	src := b.sources[h]
	out := src.processed
	src.processed = nil
	return out, nil
}

func (b *FakeBackend) BuffersProcessed(h SourceHandle) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sources[h].processed), nil
}

func (b *FakeBackend) State(h SourceHandle) (SourceState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sources[h].state, nil
}

func (b *FakeBackend) SetProperty(h SourceHandle, prop Property, values ...float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	src := b.sources[h]
	switch prop {
	case PropertyGain:
		src.gain = values[0]
	case PropertyPosition:
		src.position = [3]float32{values[0], values[1], values[2]}
	case PropertyLooping:
		src.looping = values[0] != 0
	}
	return nil
}

func (b *FakeBackend) GetProperty(h SourceHandle, prop Property) ([]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	src := b.sources[h]
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
	}
	return nil, nil
}

func (b *FakeBackend) NewBuffer() (BufferHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextBuffer++
	h := b.nextBuffer
	b.buffers[h] = &mixBuffer{}
	return h, nil
}

func (b *FakeBackend) DeleteBuffer(h BufferHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.buffers, h)
	return nil
}

func (b *FakeBackend) Upload(handle BufferHandle, data []byte, bits, channels int, freqHz uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf := b.buffers[handle]
	frameBytes := bits / 8 * channels
	numFrames := 0
	if frameBytes > 0 {
		numFrames = len(data) / frameBytes
	}
	// One value per frame: len(pcm) is the frame count that AdvanceAll
	// and the FrameCount property work in.
	buf.pcm = make([]float32, numFrames)
	return nil
}

func (b *FakeBackend) BufferProperty(handle BufferHandle, prop Property) ([]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf := b.buffers[handle]
	if prop == PropertyFrameCount {
		return []float32{float32(len(buf.pcm))}, nil
	}
	return nil, nil
}

func (b *FakeBackend) Close() error { return nil }
