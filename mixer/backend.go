// Package mixer defines the Mixer-Backend Capability consumed by the
// core source pool (spec §6.2): a set of hardware voices plus a pool of
// upload buffers, addressed by small integer handles so core never
// touches a concrete audio API directly. This mirrors the same
// capability-not-implementation split as decoder.Decoder — the backend
// could be portaudio, a null backend for tests, or (in principle)
// OpenAL/WASAPI without core changing a line.
package mixer

import "errors"

// SourceHandle addresses one hardware voice; BufferHandle addresses one
// uploaded PCM buffer. Both are opaque to core beyond equality.
type SourceHandle int
type BufferHandle int

// Property identifies a scalar or vector source property (spec §6.2's
// set_property/get_property capability).
type Property int

const (
	PropertyGain Property = iota
	PropertyPitch
	PropertyPosition // 3 floats: x, y, z
	PropertyLooping
	PropertyFrameCount // buffer-only: read-only decoded frame length
)

// SourceState reports playback state for a voice (spec §4.1's
// playing/paused/stopped distinctions, generalized to any backend).
type SourceState int

const (
	StateStopped SourceState = iota
	StatePlaying
	StatePaused
)

// ErrBufferQueueFull is returned by QueueBuffers when the backend has no
// room left to accept another buffer on a streaming source.
var ErrBufferQueueFull = errors.New("mixer: buffer queue full")

// Backend is the Mixer-Backend Capability (spec §6.2). All methods may
// be called concurrently for distinct SourceHandles; the core's lock
// ordering discipline guarantees no two goroutines touch the same
// SourceHandle at once, so implementations need not serialize across
// handles themselves (but must serialize internally across the whole
// mix, e.g. a single PortAudio callback).
type Backend interface {
	// Sources

	// NewSource allocates one hardware voice. Backends with a fixed
	// voice count return an error once exhausted; software mixers can
	// typically allocate as many as core's pool needs (NumSFX+2).
	NewSource() (SourceHandle, error)
	DeleteSource(SourceHandle) error

	Play(SourceHandle) error
	Stop(SourceHandle) error
	Pause(SourceHandle) error
	Rewind(SourceHandle) error

	// QueueBuffers appends already-uploaded buffers to a source's
	// playback queue (streaming path, spec §4.2/§4.3).
	QueueBuffers(SourceHandle, []BufferHandle) error
	// UnqueueBuffers pops and returns buffers the backend has finished
	// consuming, so core can recycle them (spec §4.4's recycle loop).
	UnqueueBuffers(SourceHandle) ([]BufferHandle, error)
	// BuffersProcessed reports how many queued buffers have finished
	// playing but have not yet been unqueued.
	BuffersProcessed(SourceHandle) (int, error)

	State(SourceHandle) (SourceState, error)

	SetProperty(SourceHandle, Property, ...float32) error
	GetProperty(SourceHandle, Property) ([]float32, error)

	// Buffers

	NewBuffer() (BufferHandle, error)
	DeleteBuffer(BufferHandle) error
	// Upload copies PCM data into a buffer for the given format/rate
	// (spec §4.2's "upload one decoded chunk"). Bits is 8 or 16,
	// channels is 1 or 2.
	Upload(handle BufferHandle, data []byte, bits, channels int, freqHz uint32) error
	BufferProperty(handle BufferHandle, prop Property) ([]float32, error)

	// Close releases every resource the backend owns (device handles,
	// OS streams). After Close, no other method may be called.
	Close() error
}
