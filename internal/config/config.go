// Package config loads the engine's tunable constants from a YAML file,
// following the loader+validator split used by AshBuk-speak-to-ai's
// config package at a scale appropriate to this engine: a handful of
// sizes and timing constants, all of which equal the spec's defaults
// unless overridden.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Engine holds every tunable named in the specification's constants
// section. Zero-value Engine is invalid; use Default() or Load().
type Engine struct {
	NumSFX               int     `yaml:"num_sfx"`
	MusicBufferCount     int     `yaml:"music_buffer_count"`
	SpeechBufferCount    int     `yaml:"speech_buffer_count"`
	SFXBufferCount       int     `yaml:"sfx_buffer_count"`
	ScopePadBytes        int     `yaml:"scope_pad_bytes"`
	AGCPages             int     `yaml:"agc_pages"`
	AGCFrames            int     `yaml:"agc_frames"`
	VADEnergyThreshold   float64 `yaml:"vad_energy_threshold"`
	DefaultPageMax       float64 `yaml:"default_page_max"`
	TextCharMillis       int     `yaml:"text_char_millis"`
	MinPageMillis        int     `yaml:"min_page_millis"`
	ScrollStepUnits      int     `yaml:"scroll_step_units"`
	Attenuation          float64 `yaml:"attenuation"`
	MinDistance          float64 `yaml:"min_distance"`
	TimeUnitsPerSecond   int     `yaml:"time_units_per_second"`
	TaskIdleSleepDivisor int     `yaml:"task_idle_sleep_divisor"`
	WaitForSoundPollMS   int     `yaml:"wait_for_sound_poll_ms"`
	MaxMultiTrackFiles   int     `yaml:"max_multi_track_files"`
}

// Default returns the engine configuration with every value equal to the
// specification's §6.4 constants.
func Default() Engine {
	return Engine{
		NumSFX:               5,
		MusicBufferCount:     64,
		SpeechBufferCount:    8,
		SFXBufferCount:       1,
		ScopePadBytes:        256,
		AGCPages:             16,
		AGCFrames:            8,
		VADEnergyThreshold:   100,
		DefaultPageMax:       28000,
		TextCharMillis:       80,
		MinPageMillis:        1000,
		ScrollStepUnits:      300,
		Attenuation:          160,
		MinDistance:          0.5,
		TimeUnitsPerSecond:   840,
		TaskIdleSleepDivisor: 10,
		WaitForSoundPollMS:   50,
		MaxMultiTrackFiles:   20,
	}
}

// NumSources is NumSFX + 2 (music slot, speech slot), per §6.4.
func (e Engine) NumSources() int { return e.NumSFX + 2 }

// MusicSlot and SpeechSlot are the two fixed streaming slot indices.
func (e Engine) MusicSlot() int  { return e.NumSFX }
func (e Engine) SpeechSlot() int { return e.NumSFX + 1 }

// Load reads a YAML file, overlaying it onto Default(), and validates the
// result. A missing file is not an error — Default() is returned as-is,
// matching a "config is optional" CLI tool convention.
func Load(path string) (Engine, error) {
	e := Default()
	if path == "" {
		return e, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return e, nil
		}
		return Engine{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &e); err != nil {
		return Engine{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := e.Validate(); err != nil {
		return Engine{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return e, nil
}

// Validate rejects tunables that would make the engine's invariants
// unsatisfiable (e.g. a zero-size source pool).
func (e Engine) Validate() error {
	switch {
	case e.NumSFX < 0:
		return fmt.Errorf("num_sfx must be >= 0, got %d", e.NumSFX)
	case e.MusicBufferCount < 1:
		return fmt.Errorf("music_buffer_count must be >= 1, got %d", e.MusicBufferCount)
	case e.SpeechBufferCount < 1:
		return fmt.Errorf("speech_buffer_count must be >= 1, got %d", e.SpeechBufferCount)
	case e.SFXBufferCount < 1:
		return fmt.Errorf("sfx_buffer_count must be >= 1, got %d", e.SFXBufferCount)
	case e.ScopePadBytes < 4:
		return fmt.Errorf("scope_pad_bytes must be >= 4 (one full stereo 16-bit frame), got %d", e.ScopePadBytes)
	case e.AGCPages < 1 || e.AGCFrames < 1:
		return fmt.Errorf("agc_pages and agc_frames must be >= 1")
	case e.Attenuation <= 0:
		return fmt.Errorf("attenuation must be > 0, got %f", e.Attenuation)
	case e.MinDistance <= 0:
		return fmt.Errorf("min_distance must be > 0, got %f", e.MinDistance)
	case e.TimeUnitsPerSecond < 1:
		return fmt.Errorf("time_units_per_second must be >= 1, got %d", e.TimeUnitsPerSecond)
	case e.TaskIdleSleepDivisor < 1:
		return fmt.Errorf("task_idle_sleep_divisor must be >= 1, got %d", e.TaskIdleSleepDivisor)
	}
	return nil
}
