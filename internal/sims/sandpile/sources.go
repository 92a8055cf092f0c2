package sandpile

import "errors"

// ErrCapacityExceeded is returned when registering more than MaxDrops sources.
var ErrCapacityExceeded = errors.New("maximum number of sources reached")

// Sources holds the active drop cells and the round-robin cursor.
type Sources struct {
	drops  [MaxDrops]int
	active int
	cursor int
}

// Register appends a drop cell. The caller validates idx against the lattice.
func (s *Sources) Register(idx int) error {
	if s.active == MaxDrops {
		return ErrCapacityExceeded
	}
	s.drops[s.active] = idx
	s.active++
	return nil
}

// Next returns the drop cell under the cursor and advances the cursor,
// wrapping after the last active source. It returns -1 when no source is
// registered.
func (s *Sources) Next() int {
	if s.active == 0 {
		return -1
	}
	idx := s.drops[s.cursor]
	if s.cursor < s.active-1 {
		s.cursor++
	} else {
		s.cursor = 0
	}
	return idx
}

// Len reports the number of active sources.
func (s *Sources) Len() int { return s.active }

// Cursor reports the slot Next will read.
func (s *Sources) Cursor() int { return s.cursor }

// Drops returns a copy of the full fixed-size drop array; unused slots are 0.
func (s *Sources) Drops() [MaxDrops]int { return s.drops }

// Active returns a copy of the populated drop cells in registration order.
func (s *Sources) Active() []int {
	out := make([]int, s.active)
	copy(out, s.drops[:s.active])
	return out
}

// Reset removes every source.
func (s *Sources) Reset() { *s = Sources{} }
