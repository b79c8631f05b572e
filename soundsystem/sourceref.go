package soundsystem

import "strconv"

// SourceRef replaces the original design's `~0` wildcard integer
// sentinel (spec §9 Open Questions) with an explicit sum type: a
// caller either names a specific SFX channel or means "whichever
// source is currently playing this lane" (the music or speech slot,
// resolved by the caller at the point it asks).
type SourceRef struct {
	any   bool
	index int
}

// Specific refers to SFX channel i.
func Specific(i int) SourceRef { return SourceRef{index: i} }

// AnySource means "the lane's current occupant" — resolved against
// whichever slot the calling lane (music/speech) owns rather than a
// fixed index.
func AnySource() SourceRef { return SourceRef{any: true} }

func (r SourceRef) String() string {
	if r.any {
		return "SourceRef(any)"
	}
	return "SourceRef(" + strconv.Itoa(r.index) + ")"
}
