package game

// Advance moves the snake one step: head is inserted at the front and the
// tail is dropped unless length grew past the current body length.
//
// This is the incremental path used by the session tracker to follow bodies
// across turns. The decision path never uses it; it rebuilds from a fresh
// snapshot every turn.
func (s *Snake) Advance(head Point, length int) {
	body := make([]Point, 0, len(s.Body)+1)
	body = append(body, head)
	body = append(body, s.Body...)

	if length <= len(s.Body) && len(body) > 1 {
		body = body[:len(body)-1]
	}
	s.Body = body
	s.Length = length
}

// Advance applies the next frame to s in place and reports which snakes grew
// and which disappeared. Snakes missing from next are removed. Food, hazards
// and turn are replaced. Snakes that appear only in next are ignored; turn 0
// is a no-op, matching the server sending the initial frame twice.
func (s *GameState) Advance(next *GameState) (grew, removed []string) {
	if next == nil || next.Turn == 0 {
		return nil, nil
	}

	s.Turn = next.Turn
	s.Food = append(s.Food[:0], next.Food...)
	s.Hazards = append(s.Hazards[:0], next.Hazards...)

	nextByID := make(map[string]*Snake, len(next.Snakes))
	for i := range next.Snakes {
		nextByID[next.Snakes[i].ID] = &next.Snakes[i]
	}

	kept := s.Snakes[:0]
	for _, sn := range s.Snakes {
		n, ok := nextByID[sn.ID]
		if !ok || len(n.Body) == 0 {
			removed = append(removed, sn.ID)
			continue
		}
		before := len(sn.Body)
		sn.Advance(n.Head(), n.Len())
		sn.Health = n.Health
		if len(sn.Body) > before {
			grew = append(grew, sn.ID)
		}
		kept = append(kept, sn)
	}
	s.Snakes = kept
	return grew, removed
}
