package soundsystem

import "github.com/acoliver/soundcore/core"

// LoadBank opens every named SFX file via the configured SFX opener
// and fully pre-decodes each into a single-buffer sample (spec §4.6).
func (s *System) LoadBank(filenames []string) (*core.Bank, error) {
	return core.LoadBank(s.backend, filenames, s.openSFX)
}

// ReleaseBank stops any channel currently playing one of bank's
// samples and destroys them.
func (s *System) ReleaseBank(bank *core.Bank) { s.pool.ReleaseBank(bank) }

// PlayChannel plays bank.Samples[index] on SFX channel ch (spec
// §4.6).
func (s *System) PlayChannel(ch int, bank *core.Bank, index int, positional bool, x, y float32, obj interface{}, priority int) error {
	return s.pool.PlayChannel(ch, bank, index, positional, x, y, obj, priority)
}

// StopChannel stops SFX channel ch.
func (s *System) StopChannel(ch int) { s.pool.StopChannel(ch) }

// CheckFinishedChannels reclaims every SFX slot whose backend state has
// gone to Stopped, whichever bank its sample came from (spec §4.6).
func (s *System) CheckFinishedChannels(bank *core.Bank) { s.pool.CheckFinishedChannels(bank) }

// ChannelPlaying reports whether SFX channel ch is currently playing.
func (s *System) ChannelPlaying(ch int) bool { return s.pool.ChannelPlaying(ch) }
