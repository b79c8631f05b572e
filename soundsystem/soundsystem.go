// Package soundsystem is the exported API facade (spec §6.3): the
// process-wide singleton that wires core.Pool, track.Player, and a
// caller-supplied decoder/bank loader behind the operations a game
// actually calls — load/play/stop/pause/resume/seek/query music,
// speech, and track-player speech; splice and navigate subtitle
// chunks; play/stop/query SFX channels; schedule fades; read an
// oscilloscope window; and tear the whole thing down in Uninit.
package soundsystem

import (
	"sync"

	charmlog "github.com/charmbracelet/log"

	"github.com/acoliver/soundcore/core"
	"github.com/acoliver/soundcore/decoder"
	"github.com/acoliver/soundcore/internal/config"
	"github.com/acoliver/soundcore/internal/logging"
	"github.com/acoliver/soundcore/mixer"
	"github.com/acoliver/soundcore/track"
)

// DecoderOpener resolves a resource name to a fully-opened decoder
// (spec §6.5: "resource paths are resolved by the external loader").
// The same shape serves music, SFX bank entries, and track-player
// whole-file opens.
type DecoderOpener func(name string) (decoder.Decoder, error)

// PageDecoderOpener resolves a resource name plus a [start,start+run)
// window into a decoder positioned at start (spec §4.5's splice_track
// page opens). Implementations typically open the file fully via
// DecoderOpener semantics and then Seek to startSeconds*1000.
type PageDecoderOpener func(name string, startSeconds, runSeconds float32) (decoder.Decoder, error)

// System is the process-wide audio engine singleton.
type System struct {
	cfg     config.Engine
	pool    *core.Pool
	player  *track.Player
	backend mixer.Backend

	openMusic PageDecoderOpener
	openSFX   DecoderOpener

	scopeReader *core.Reader
	log         *charmlog.Logger

	// musicLoadMu/speechLoadMu are the per-lane file-loader mutual
	// exclusion guards (spec §8 E6): a concurrent load attempt on a lane
	// already loading returns KindConcurrentLoad instead of blocking or
	// racing on the lane's sample field.
	musicLoadMu  sync.Mutex
	speechLoadMu sync.Mutex

	musicSample  *core.Sample
	speechSample *core.Sample
}

// Init creates the fixed source pool, starts the background streaming
// task, and wires the track player, following the original design's
// §6.3 lifecycle ("initialize and shut down the streaming task").
// openMusic opens named, position-seekable audio for music and track
// pages; openSFX opens a named resource for one-shot, fully
// pre-decoded playback (SFX banks, splice_multi_track).
func Init(cfg config.Engine, backend mixer.Backend, openMusic PageDecoderOpener, openSFX DecoderOpener) (*System, error) {
	pool, err := core.NewPool(cfg, backend)
	if err != nil {
		return nil, err
	}

	player := track.NewPlayer(pool, track.PageOpener(openMusic), track.FileOpener(openSFX))

	s := &System{
		cfg:         cfg,
		pool:        pool,
		player:      player,
		backend:     backend,
		openMusic:   openMusic,
		openSFX:     openSFX,
		scopeReader: core.NewReader(cfg.AGCPages, cfg.AGCFrames, cfg.DefaultPageMax, cfg.VADEnergyThreshold),
		log:         logging.WithOp(logging.Logger(), "soundsystem"),
	}
	return s, nil
}

// Uninit stops any music/speech samples bound outside the track
// player, tears down the track player's chunk list, and joins the
// background streaming task (spec §6.3, §9's "task thread joined by
// the uninit path").
func (s *System) Uninit() error {
	s.StopMusic()
	s.StopSpeech()
	s.player.StopTrack()
	return s.pool.Close()
}

// Pool exposes the underlying engine for operations this facade
// doesn't wrap directly (e.g. Stats()).
func (s *System) Pool() *core.Pool { return s.pool }

// Track exposes the track player for splice/navigation operations
// (spec §4.5) — a thin facade would otherwise have to forward every
// one of its dozen methods by hand.
func (s *System) Track() *track.Player { return s.player }

