package core

import "github.com/acoliver/soundcore/mixer"

// Callbacks is the capability record a caller installs on a Sample
// (spec §9: "function-pointer callback tables ... expressed as a
// capability record with five optional operations. Default
// implementations are no-ops."). Any field left nil is replaced by its
// NoopCallbacks default: OnStartStream proceeds, OnEndChunk reports no
// further chunk, and the other hooks do nothing.
type Callbacks struct {
	// OnStartStream fires just before pre-fill begins. Returning false
	// aborts the whole play_stream call.
	OnStartStream func(s *Sample) bool

	// OnEndChunk fires when the decoder currently bound to s reports
	// EOF. Returning false means "no more chunks"; returning true means
	// the callback has swapped in a new s.Decoder and streaming should
	// continue with it.
	OnEndChunk func(s *Sample, buf mixer.BufferHandle) bool

	// OnEndStream fires once streaming has fully stopped because the
	// decoder reached EOF with nothing left queued.
	OnEndStream func(s *Sample)

	// OnTaggedBuffer fires when a tagged buffer finishes playing
	// (observed via unqueue), carrying the tag that was attached to it.
	OnTaggedBuffer func(s *Sample, tag *BufferTag)

	// OnQueueBuffer fires every time a freshly decoded buffer is queued.
	OnQueueBuffer func(s *Sample, buf mixer.BufferHandle)
}

// NoopCallbacks returns the default hooks: OnStartStream returns true,
// OnEndChunk returns false (no further chunk), and the rest do nothing.
func NoopCallbacks() Callbacks {
	return Callbacks{
		OnStartStream:  func(*Sample) bool { return true },
		OnEndChunk:     func(*Sample, mixer.BufferHandle) bool { return false },
		OnEndStream:    func(*Sample) {},
		OnTaggedBuffer: func(*Sample, *BufferTag) {},
		OnQueueBuffer:  func(*Sample, mixer.BufferHandle) {},
	}
}

// filled returns c with every nil hook replaced by its no-op default,
// so call sites never need a nil check.
func (c Callbacks) filled() Callbacks {
	d := NoopCallbacks()
	if c.OnStartStream != nil {
		d.OnStartStream = c.OnStartStream
	}
	if c.OnEndChunk != nil {
		d.OnEndChunk = c.OnEndChunk
	}
	if c.OnEndStream != nil {
		d.OnEndStream = c.OnEndStream
	}
	if c.OnTaggedBuffer != nil {
		d.OnTaggedBuffer = c.OnTaggedBuffer
	}
	if c.OnQueueBuffer != nil {
		d.OnQueueBuffer = c.OnQueueBuffer
	}
	return d
}
