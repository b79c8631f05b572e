package track

import (
	"fmt"
	"sync/atomic"

	charmlog "github.com/charmbracelet/log"

	"github.com/acoliver/soundcore/core"
	"github.com/acoliver/soundcore/decoder"
	"github.com/acoliver/soundcore/internal/audioerr"
	"github.com/acoliver/soundcore/internal/logging"
)

// speechChunkBytes is how many bytes the streaming engine decodes per
// buffer refill on the speech slot. Smaller than a typical music
// chunk since speech buffers are more numerous (K_speech=8) and the
// subtitle-sync granularity benefits from shorter buffers.
const speechChunkBytes = 4096

// PageOpener opens one subtitle page's worth of audio from a named
// resource: startSeconds into the file, for runSeconds of playback
// (spec §4.5: "each opened at an accumulating offset into the named
// file with page duration as the decoder's run_time"). Supplied by the
// caller (soundsystem), which knows how to resolve names to paths.
type PageOpener func(name string, startSeconds, runSeconds float32) (decoder.Decoder, error)

// FileOpener opens a named resource's entire contents as one decoder,
// for splice_multi_track's fully pre-decoded chunks.
type FileOpener func(name string) (decoder.Decoder, error)

// Player is the track player (spec §4.5): a chunk-linked-list state
// machine layered over one core.Pool speech slot.
type Player struct {
	pool *core.Pool
	slot *core.Slot

	openPage PageOpener
	openFile FileOpener

	log *charmlog.Logger

	sample *core.Sample

	head, tail        *Chunk
	lastSubtitleChunk *Chunk
	lastFileName      string
	fileOffsetSeconds float32
	trackPosSeconds   float32

	activeChunk         *Chunk // guarded by slot mutex
	activeSubtitleChunk *Chunk // guarded by slot mutex

	trackLength atomic.Int64 // time units; release-store / acquire-load
	trackCount  int
	noPageBreak bool
}

// NewPlayer builds a track player bound to pool's speech slot.
func NewPlayer(pool *core.Pool, openPage PageOpener, openFile FileOpener) *Player {
	t := &Player{
		pool:     pool,
		slot:     pool.SpeechSlot(),
		openPage: openPage,
		openFile: openFile,
		log:      logging.WithOp(logging.Logger(), "track"),
	}
	return t
}

func (t *Player) ensureSample() error {
	if t.sample != nil {
		return nil
	}
	cfg := t.pool.Config()
	sample, err := core.NewSample(t.pool.Backend(), cfg.SpeechBufferCount, speechChunkBytes, core.Callbacks{
		OnStartStream:  t.onStartStream,
		OnEndChunk:     t.onEndChunk,
		OnEndStream:    t.onEndStream,
		OnTaggedBuffer: t.onTaggedBuffer,
	})
	if err != nil {
		return audioerr.New(audioerr.KindBackendFailure, "track.ensureSample", err)
	}
	sample.OwnsDecoder = false // chunks own their decoders, never the sample
	t.sample = sample
	return nil
}

func (t *Player) appendChunk(c *Chunk) {
	if t.tail == nil {
		t.head, t.tail = c, c
	} else {
		t.tail.Next = c
		t.tail = c
	}
	if c.TagMe {
		t.lastSubtitleChunk = c
	}
}

// SpliceTrack implements spec §4.5's splice_track. name == nil appends
// continuation pages to the previous track using the last-known file
// name; name != nil starts accumulating a new file's pages (and, on
// the very first splice ever, creates the speech sample).
func (t *Player) SpliceTrack(name *string, text, timestampStr string, callback func(int)) error {
	t.slot.Lock()
	defer t.slot.Unlock()

	var fname string
	if name == nil {
		if t.head == nil {
			t.log.Warn("splice_track(nil) on empty chunk list, ignoring")
			return nil
		}
		fname = t.lastFileName
	} else {
		if err := t.ensureSample(); err != nil {
			return err
		}
		fname = *name
		t.lastFileName = fname
		t.fileOffsetSeconds = 0
		t.trackCount++
	}

	pages := SplitPages(text, t.pool.Config().TextCharMillis, t.pool.Config().MinPageMillis)
	if explicit := ParseTimestamps(timestampStr); len(explicit) > 0 {
		for i := range pages {
			if i >= len(explicit) {
				break
			}
			sign := int64(1)
			if pages[i].DurationMillis < 0 {
				sign = -1
			}
			pages[i].DurationMillis = int(sign) * explicit[i]
		}
	}

	trackNum := t.trackCount
	for _, page := range pages {
		dur := page.DurationMillis
		if dur < 0 {
			dur = -dur
		}
		runSeconds := float32(dur) / 1000

		dec, err := t.openPage(fname, t.fileOffsetSeconds, runSeconds)
		if err != nil {
			t.log.Warn("open page decoder failed", "file", fname, "err", err)
			continue
		}
		chunk := &Chunk{
			Decoder:          dec,
			StartTimeSeconds: t.trackPosSeconds,
			DurationMillis:   page.DurationMillis,
			TagMe:            !t.noPageBreak,
			TrackNum:         trackNum,
			Subtitle:         page.Text,
			HasText:          true,
			Callback:         callback,
		}
		t.noPageBreak = false
		t.appendChunk(chunk)
		t.fileOffsetSeconds += runSeconds
		t.trackPosSeconds += runSeconds
	}
	return nil
}

// SpliceMultiTrack loads up to MaxMultiTrackFiles names, each fully
// pre-decoded, all under the current track number (spec §4.5). The
// first loaded chunk carries text (if any) as its subtitle and is the
// only one marked tag_me; the rest are silent continuations of the
// same page. no_page_break is set so the next SpliceTrack call merges
// its first page into this subtitle instead of starting a new one —
// this text-placement rule is this implementation's resolution of an
// underspecified point in the distilled description.
func (t *Player) SpliceMultiTrack(names []string, text string) error {
	t.slot.Lock()
	defer t.slot.Unlock()

	if err := t.ensureSample(); err != nil {
		return err
	}

	max := t.pool.Config().MaxMultiTrackFiles
	if len(names) > max {
		t.log.Warn("splice_multi_track truncated", "requested", len(names), "max", max)
		names = names[:max]
	}

	trackNum := t.trackCount
	firstLoaded := true
	for _, name := range names {
		dec, err := t.openFile(name)
		if err != nil {
			t.log.Warn("open multi-track file failed", "file", name, "err", err)
			continue
		}
		format := dec.Format()
		freq := dec.Frequency()
		data, derr := dec.DecodeAll()
		dec.Close()
		if derr != nil && len(data) == 0 {
			continue
		}
		mem := decoder.NewMemDecoder(data, freq, format, 0)

		runSeconds := mem.Length()
		chunk := &Chunk{
			Decoder:          mem,
			StartTimeSeconds: t.trackPosSeconds,
			DurationMillis:   int(runSeconds * 1000),
			TagMe:            firstLoaded && text != "",
			TrackNum:         trackNum,
			Subtitle:         text,
			HasText:          firstLoaded && text != "",
		}
		t.appendChunk(chunk)
		firstLoaded = false
		t.trackPosSeconds += runSeconds
	}
	t.noPageBreak = true
	return nil
}

// PlayTrack computes the total track length, rewinds to the first
// chunk, and begins streaming (spec §4.5).
func (t *Player) PlayTrack() error {
	t.slot.Lock()
	defer t.slot.Unlock()

	if t.head == nil || t.sample == nil {
		return audioerr.New(audioerr.KindInvalidState, "track.PlayTrack", fmt.Errorf("no chunks spliced"))
	}

	total := t.tail.StartTimeSeconds + t.tail.durationSeconds()
	t.trackLength.Store(t.pool.SecondsToUnits(total))
	t.activeChunk = t.head
	t.activeSubtitleChunk = nil

	return t.pool.PlayStream(t.slot, t.sample, false, true, true)
}

// StopTrack tears down playback and the entire chunk list (spec §4.5).
// The sample's decoder binding is cleared first so Sample.Release never
// tries to close a chunk-owned decoder a second time.
func (t *Player) StopTrack() {
	t.slot.Lock()
	defer t.slot.Unlock()

	t.pool.StopStream(t.slot)
	t.activeChunk = nil
	t.activeSubtitleChunk = nil
	if t.sample != nil {
		t.sample.Decoder = nil
	}

	for c := t.head; c != nil; c = c.Next {
		c.Decoder.Close()
	}
	t.head, t.tail, t.lastSubtitleChunk = nil, nil, nil
	t.fileOffsetSeconds, t.trackPosSeconds = 0, 0
	t.trackLength.Store(0)
	t.noPageBreak = false
}

func (t *Player) PauseTrack() {
	t.slot.Lock()
	defer t.slot.Unlock()
	t.pool.PauseStream(t.slot)
}

func (t *Player) ResumeTrack() {
	t.slot.Lock()
	defer t.slot.Unlock()
	t.pool.ResumeStream(t.slot)
}
