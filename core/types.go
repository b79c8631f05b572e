// Package core implements the audio streaming engine (the track player
// lives in package track, on top of it): the fixed source pool, the background streaming task, the fade
// controller, the scope producer, and SFX channels. It consumes the
// decoder and mixer capability interfaces and knows nothing about any
// concrete decoder or backend implementation.
package core

import (
	"sync"

	"github.com/acoliver/soundcore/decoder"
	"github.com/acoliver/soundcore/mixer"
)

// BufferTag is a deferred event scheduled against one queued buffer,
// fired when that buffer finishes playing rather than when it is
// queued. It is the carrier for subtitle synchronization across the
// streaming task/caller boundary.
type BufferTag struct {
	InUse   bool
	Buffer  mixer.BufferHandle
	Payload interface{}
}

// Sample is a reusable binding of a decoder plus a pool of K mixer
// buffer handles. Music samples own their decoder outright; track-player
// (speech) samples only borrow a decoder owned by the active chunk, so
// Sample never closes a borrowed decoder (see OwnsDecoder).
type Sample struct {
	mu sync.Mutex

	Decoder     decoder.Decoder
	OwnsDecoder bool // false for the speech sample: chunks own their decoders

	Length float32 // seconds, informational

	Buffers   []mixer.BufferHandle // len == K
	tags      []*BufferTag         // parallel to Buffers, lazily allocated
	ChunkBytes int                 // bytes decoded per buffer refill

	Offset  int64 // initial time offset, in time units
	Looping bool

	Callbacks Callbacks
	UserData  interface{}
}

// NewSample allocates K backend buffers up front and wires an empty tag
// table of the same length (spec §3: "tag table length equals K").
func NewSample(backend mixer.Backend, k, chunkBytes int, callbacks Callbacks) (*Sample, error) {
	bufs := make([]mixer.BufferHandle, k)
	for i := range bufs {
		h, err := backend.NewBuffer()
		if err != nil {
			for _, prior := range bufs[:i] {
				backend.DeleteBuffer(prior)
			}
			return nil, err
		}
		bufs[i] = h
	}
	return &Sample{
		OwnsDecoder: true,
		Buffers:     bufs,
		tags:        make([]*BufferTag, k),
		ChunkBytes:  chunkBytes,
		Callbacks:   callbacks.filled(),
	}, nil
}

// tagFor lazily allocates the tag slot for a buffer index.
func (s *Sample) tagFor(bufIndex int) *BufferTag {
	if s.tags[bufIndex] == nil {
		s.tags[bufIndex] = &BufferTag{}
	}
	return s.tags[bufIndex]
}

func (s *Sample) bufferIndex(h mixer.BufferHandle) int {
	for i, b := range s.Buffers {
		if b == h {
			return i
		}
	}
	return -1
}

// SetTag installs a tag for the given queued buffer, carrying payload,
// to be fired when that buffer's audio finishes playing.
func (s *Sample) SetTag(h mixer.BufferHandle, payload interface{}) {
	i := s.bufferIndex(h)
	if i < 0 {
		return
	}
	t := s.tagFor(i)
	t.InUse = true
	t.Buffer = h
	t.Payload = payload
}

// TagFor returns the tag installed against h, or nil if none is set.
func (s *Sample) TagFor(h mixer.BufferHandle) *BufferTag {
	i := s.bufferIndex(h)
	if i < 0 || s.tags[i] == nil || !s.tags[i].InUse {
		return nil
	}
	return s.tags[i]
}

// ClearTag clears any tag installed against h.
func (s *Sample) ClearTag(h mixer.BufferHandle) {
	i := s.bufferIndex(h)
	if i < 0 || s.tags[i] == nil {
		return
	}
	s.tags[i].InUse = false
	s.tags[i].Payload = nil
}

// ClearAllTags clears every tag on the sample (play_stream does this
// before starting a fresh playback pass).
func (s *Sample) ClearAllTags() {
	for _, t := range s.tags {
		if t != nil {
			t.InUse = false
			t.Payload = nil
		}
	}
}

// Release destroys the sample's buffers and, if OwnsDecoder, closes its
// decoder. Callers must detach a sample from its slot before releasing
// it (spec §3: "releasing a sample currently bound to a source must
// first detach it").
func (s *Sample) Release(backend mixer.Backend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.Buffers {
		backend.DeleteBuffer(b)
	}
	s.Buffers = nil
	if s.OwnsDecoder && s.Decoder != nil {
		s.Decoder.Close()
	}
	s.Decoder = nil
}

// PositionalObject carries the 3D position (or non-positional marker)
// for an SFX channel (spec §4.6).
type PositionalObject struct {
	Positional bool
	X, Y       float32
	Obj        interface{} // opaque caller-owned tag (e.g. an entity handle)
}

// ScopeRing is the per-slot cyclic buffer of recently decoded PCM (spec
// §4.3). Its fields are declared here, beside Slot, which holds a
// pointer to it; its methods live in scope.go.
type ScopeRing struct {
	data            []byte
	head, tail      int
	size            int
	lastQueueTimeUs int64 // time units at the moment of the most recent add_scope
	freq            uint32
	format          decoder.Format
	baseStep        int // 1 for speech, 4 for music
}

// Slot is one entry in the fixed source pool (spec §3).
type Slot struct {
	mu sync.Mutex

	Index   int
	Handle  mixer.SourceHandle
	IsMusic bool // true for the music slot, used by step-size selection

	Sample *Sample

	StreamShouldBePlaying bool
	StartTime             int64 // time units
	PauseTime             int64 // 0 == not paused

	LastQueuedBuf mixer.BufferHandle

	PosObj PositionalObject // SFX slots only

	Scope *ScopeRing
}

// Lock and Unlock expose the slot mutex to callers composing multiple
// Pool operations under one critical section (spec §4.1: stream control
// primitives require the caller to hold the slot mutex; spec §4.5: track
// player operations take no lock beyond the speech slot's).
func (s *Slot) Lock()   { s.mu.Lock() }
func (s *Slot) Unlock() { s.mu.Unlock() }
