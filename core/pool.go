package core

import (
	"fmt"
	"sync/atomic"

	charmlog "github.com/charmbracelet/log"

	"github.com/acoliver/soundcore/internal/audioerr"
	"github.com/acoliver/soundcore/internal/config"
	"github.com/acoliver/soundcore/internal/logging"
	"github.com/acoliver/soundcore/mixer"
)

// Pool owns the fixed N_SOURCES slot array (spec §3): indices
// [0, NumSFX) are SFX channels, NumSFX is the music slot, NumSFX+1 is
// the speech slot. It is the process-wide audio engine singleton —
// exactly one Pool exists per running game, created by soundsystem.Init.
type Pool struct {
	cfg     config.Engine
	backend mixer.Backend
	clock   clock
	log     *charmlog.Logger

	slots []*Slot

	fade fade

	shuttingDown atomic.Bool
	wake         chan struct{} // wakeable signal: "a stream just started"
	taskDone     chan struct{}
}

// NewPool allocates one mixer source per slot and starts the background
// streaming task. Callers must call Close to tear the task down and
// release every slot's backend source.
func NewPool(cfg config.Engine, backend mixer.Backend) (*Pool, error) {
	p := &Pool{
		cfg:      cfg,
		backend:  backend,
		clock:    newClock(cfg.TimeUnitsPerSecond),
		log:      logging.Logger(),
		slots:    make([]*Slot, cfg.NumSources()),
		wake:     make(chan struct{}, 1),
		taskDone: make(chan struct{}),
	}

	for i := range p.slots {
		h, err := backend.NewSource()
		if err != nil {
			p.teardownSlots(i)
			return nil, audioerr.New(audioerr.KindBackendFailure, "core.NewPool", err)
		}
		p.slots[i] = &Slot{
			Index:   i,
			Handle:  h,
			IsMusic: i == cfg.MusicSlot(),
		}
	}

	go p.runTask()
	return p, nil
}

func (p *Pool) teardownSlots(n int) {
	for i := 0; i < n; i++ {
		p.backend.DeleteSource(p.slots[i].Handle)
	}
}

// Slot returns the slot at index i, or nil if out of range.
func (p *Pool) Slot(i int) *Slot {
	if i < 0 || i >= len(p.slots) {
		return nil
	}
	return p.slots[i]
}

// MusicSlot and SpeechSlot return the two fixed streaming slots.
func (p *Pool) MusicSlot() *Slot  { return p.slots[p.cfg.MusicSlot()] }
func (p *Pool) SpeechSlot() *Slot { return p.slots[p.cfg.SpeechSlot()] }

// NumSFX returns the number of SFX channels (slots [0, NumSFX)).
func (p *Pool) NumSFX() int { return p.cfg.NumSFX }

// Config exposes the engine tunables the track player needs (K_speech,
// TextCharMillis, MinPageMillis, ScrollStepUnits, MaxMultiTrackFiles).
func (p *Pool) Config() config.Engine { return p.cfg }

// Now, SecondsToUnits and UnitsToSeconds expose the pool's shared
// "time units" clock (spec §6.4's TIME_UNITS_PER_SECOND) so the track
// player's offset/position arithmetic stays on the same timeline as
// slot.StartTime/PauseTime.
func (p *Pool) Now() int64                        { return p.clock.now() }
func (p *Pool) SecondsToUnits(s float32) int64     { return p.clock.secondsToUnits(s) }
func (p *Pool) UnitsToSeconds(u int64) float32     { return p.clock.unitsToSeconds(u) }

// Backend exposes the bound mixer backend for packages (like track)
// that need to create samples directly via core.NewSample.
func (p *Pool) Backend() mixer.Backend { return p.backend }

// ScopeWindow requests an amplitude window from slot's scope ring (spec
// §4.3, §6.3's "request an amplitude window for the oscilloscope").
// Returns nil if the slot has no active scope ring (not currently
// streaming with scope enabled).
func (p *Pool) ScopeWindow(slot *Slot, reader *Reader, width, height int) []int {
	slot.mu.Lock()
	ring := slot.Scope
	now := p.clock.now()
	slot.mu.Unlock()
	if ring == nil {
		return nil
	}
	return reader.Window(ring, now, int64(p.cfg.TimeUnitsPerSecond), width, height)
}

// Stats is a read-only snapshot of pool activity, supplementing the
// spec with an observability hook analogous to tphakala-birdnet-go's
// ManagerMetrics (no direct equivalent named in the original source,
// but every subsystem it calls is already concretely specified).
type Stats struct {
	MusicPlaying bool
	SpeechPlaying bool
	SFXPlaying    int
	FadeActive    bool
}

// Stats takes a best-effort, lock-ordered snapshot (no nested slot
// locks: each slot is sampled independently).
func (p *Pool) Stats() Stats {
	var s Stats
	music := p.MusicSlot()
	music.mu.Lock()
	s.MusicPlaying = music.StreamShouldBePlaying
	music.mu.Unlock()

	speech := p.SpeechSlot()
	speech.mu.Lock()
	s.SpeechPlaying = speech.StreamShouldBePlaying
	speech.mu.Unlock()

	for i := 0; i < p.cfg.NumSFX; i++ {
		slot := p.slots[i]
		slot.mu.Lock()
		if slot.StreamShouldBePlaying {
			s.SFXPlaying++
		}
		slot.mu.Unlock()
	}

	s.FadeActive = p.fade.active()
	return s
}

// Close signals the streaming task to exit, waits for it to finish,
// and releases every slot's backend source (spec §5: "a process-wide
// shutdown flag ... causes orderly exit; the task thread is joined by
// the uninit path").
func (p *Pool) Close() error {
	p.shuttingDown.Store(true)
	select {
	case p.wake <- struct{}{}:
	default:
	}
	<-p.taskDone

	var firstErr error
	for _, s := range p.slots {
		if err := p.backend.DeleteSource(s.Handle); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("core: delete source %d: %w", s.Index, err)
		}
	}
	return firstErr
}
