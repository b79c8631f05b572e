// Package decoder defines the Decoder Capability consumed by the core
// streaming engine (spec §6.1): a polymorphic source of linear PCM. The
// core never knows which concrete decoder it's driving — a file decoder,
// an ffmpeg pipe, or (in tests) an in-memory fake all satisfy the same
// interface, the way tphakala-birdnet-go's audiocore.AudioSource keeps
// capture-source identity out of the processing pipeline.
package decoder

import (
	"errors"
	"io"
)

// Format describes the linear PCM layout a Decoder produces.
type Format struct {
	Bits     int // 8 or 16
	Channels int // 1 or 2
}

// BytesPerFullSample is the size, in bytes, of one sample across all
// channels (e.g. stereo 16-bit = 4).
func (f Format) BytesPerFullSample() int {
	return (f.Bits / 8) * f.Channels
}

// ErrEndOfFile is returned by Decode (or observed via Error) when the
// decoder has no more data. It is a normal termination signal, not a
// reported failure (spec §7, EndOfStream).
var ErrEndOfFile = errors.New("decoder: end of file")

// Decoder is the capability every audio source behind the streaming
// engine must provide. Implementations are not safe for concurrent use —
// the core guarantees exclusive, single-threaded access to any bound
// decoder at a time (spec §6.1).
type Decoder interface {
	// Decode fills out with newly decoded bytes and returns how many were
	// written. A return of (0, nil) is a legitimate "nothing ready yet"
	// result distinct from EOF; a return of (n, ErrEndOfFile) with n>0
	// delivers trailing bytes alongside the EOF signal. Once EOF has been
	// observed, Error() reports ErrEndOfFile until Rewind or Seek.
	Decode(out []byte) (int, error)

	// DecodeAll decodes the entire remaining stream into a single
	// in-memory buffer, for SFX pre-decoding (spec §4.6).
	DecodeAll() ([]byte, error)

	// Rewind resets playback to the start of the stream.
	Rewind() error

	// Seek moves to posMS milliseconds from the start, returning the
	// actual position landed on (some formats only seek to frame
	// boundaries).
	Seek(posMS uint32) (uint32, error)

	// GetTime returns the current playback position in seconds.
	GetTime() float32

	// Length returns the total duration in seconds, or 0 if unknown/infinite.
	Length() float32

	Frequency() uint32
	Format() Format

	// Looping reports/sets whether EOF should be handled by rewinding
	// rather than terminating. The flag lives on the decoder so a bound
	// Sample can toggle it without touching the mixer backend (spec §3,
	// "looping ... stored on the sample, never on the mixer source" —
	// the sample mirrors this flag onto the decoder it currently owns or
	// borrows).
	Looping() bool
	SetLooping(bool)

	// Error returns the last error observed by Decode, or nil. Once set
	// to ErrEndOfFile it stays that way until Rewind/Seek.
	Error() error

	// Close releases any OS resources (file handles, subprocesses).
	io.Closer
}
