package deck

// Highlight overlay for in-flight operations.
//
// Each glow trigger schedules its own removal after a fixed duration. The
// overlay is reference counted: a position stays lit until every outstanding
// removal has fired, so overlapping triggers on the same position no longer
// strip the highlight early. Feed text and its ordering are unchanged from
// the count-agnostic behavior.

// StartGlow marks a position highlighted and returns false when the id is
// not a deck position, in which case nothing happens.
func (s *Store) StartGlow(position int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state[position]; !ok {
		return false
	}
	s.glow[position]++
	return true
}

// EndGlow retires one outstanding highlight on a position. The highlight
// clears only when the last one retires. Calls for positions that are not
// glowing are no-ops, so a stray expiry never faults.
func (s *Store) EndGlow(position int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.glow[position] <= 1 {
		delete(s.glow, position)
		return
	}
	s.glow[position]--
}

// Glowing reports whether a position currently has a highlight.
func (s *Store) Glowing(position int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.glow[position] > 0
}

// GlowSet returns the currently highlighted positions.
func (s *Store) GlowSet() map[int]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]bool, len(s.glow))
	for id, n := range s.glow {
		if n > 0 {
			out[id] = true
		}
	}
	return out
}
