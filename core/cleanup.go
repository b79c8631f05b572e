package core

// cleanSource zeros the positional object, unqueues all processed
// buffers, and rewinds the backend source, leaving it stopped with an
// empty mixer queue (spec §4.7). Caller must hold
// slot.mu.
func (p *Pool) cleanSource(slot *Slot) {
	slot.PosObj = PositionalObject{}
	if _, err := p.backend.UnqueueBuffers(slot.Handle); err != nil {
		p.log.Warn("unqueue during cleanup failed", "slot", slot.Index, "err", err)
	}
	if err := p.backend.Rewind(slot.Handle); err != nil {
		p.log.Warn("rewind during cleanup failed", "slot", slot.Index, "err", err)
	}
}

// stopSource is backend stop + cleanSource (spec §4.7). Caller must
// hold slot.mu.
func (p *Pool) stopSource(slot *Slot) {
	if err := p.backend.Stop(slot.Handle); err != nil {
		p.log.Warn("backend stop failed", "slot", slot.Index, "err", err)
	}
	p.cleanSource(slot)
}
