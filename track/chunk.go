// Package track implements the track player (spec §4.5): a
// chunk-linked-list state machine that turns a sequence of audio
// files, subtitle text, and timestamps into a speech stream whose
// buffer-unqueue events drive subtitle display. It is built entirely
// on core's exported Pool/Slot/Sample API — it owns no decoder or
// mixer types of its own beyond the decoder.Decoder it binds into
// each chunk.
package track

import "github.com/acoliver/soundcore/decoder"

// Chunk is one audio segment in the track's singly-linked chunk list
// (spec §3). Each chunk owns its decoder exclusively; the speech
// sample only ever borrows the active chunk's decoder.
type Chunk struct {
	Decoder decoder.Decoder

	// StartTimeSeconds is this chunk's start position within the
	// overall track (not within its source file) — used by seek_track's
	// cumulative walk and by on_start_stream to set the sample's offset.
	StartTimeSeconds float32

	// DurationMillis mirrors the page's stored duration (spec §4.5's
	// text-pagination rule): negative for the track's final page,
	// meaning "suggested minimum, actual end = audio end".
	DurationMillis int

	TagMe bool // true => this chunk is a subtitle "page"

	TrackNum int

	Subtitle string
	HasText  bool

	Callback func(arg int) // fired by do_track_tag; nil is a valid no-op

	Next *Chunk
}

// durationSeconds returns |DurationMillis| in seconds, since the
// negative sentinel only marks "final page", not an actual negative
// duration.
func (c *Chunk) durationSeconds() float32 {
	ms := c.DurationMillis
	if ms < 0 {
		ms = -ms
	}
	return float32(ms) / 1000
}
