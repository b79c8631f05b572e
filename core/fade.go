package core

import "sync"

// fade is the music-volume fade controller state (spec §4.4, §3). It
// has its own mutex, independent of any slot mutex, so the streaming
// task's inner loop never contends on the music slot lock while a fade
// is merely ticking.
type fade struct {
	mu sync.Mutex

	startTime   int64 // time units
	interval    int64 // 0 == no fade in progress
	startVolume float32
	delta       float32
}

// setFade records a new fade target. Returns false when interval == 0,
// telling the caller to apply end volume immediately rather than wait
// for the task to tick it in (spec §4.4).
func (f *fade) setFade(now int64, interval int64, currentVolume, endVolume float32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if interval < 0 {
		interval = 0
	}
	f.startTime = now
	f.interval = interval
	f.startVolume = currentVolume
	f.delta = endVolume - currentVolume
	return interval != 0
}

// process runs once per task iteration. When a fade is active it
// computes the interpolated volume and applies it via setVolume;
// once elapsed reaches interval the fade is marked complete.
func (f *fade) process(now int64, setVolume func(float32)) {
	f.mu.Lock()
	interval := f.interval
	if interval == 0 {
		f.mu.Unlock()
		return
	}
	elapsed := now - f.startTime
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > interval {
		elapsed = interval
	}
	volume := f.startVolume + f.delta*float32(elapsed)/float32(interval)
	if elapsed >= interval {
		f.interval = 0
	}
	f.mu.Unlock()

	setVolume(volume)
}

// active reports whether a fade is currently in progress.
func (f *fade) active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interval != 0
}
