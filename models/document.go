package models

import "sort"

// Document is the single persisted object: the whole roster state lives in
// one JSON blob under one store key and is overwritten wholesale on every
// write.
type Document struct {
	Players      []Player      `json:"players"`
	Applications []Application `json:"applications"`
	Selections   []Selection   `json:"selections"`
}

// Normalize repairs documents written by older schema variants: missing
// collections become empty, players get their optional fields filled.
func (d *Document) Normalize() {
	if d.Players == nil {
		d.Players = []Player{}
	}
	if d.Applications == nil {
		d.Applications = []Application{}
	}
	if d.Selections == nil {
		d.Selections = []Selection{}
	}
	for i := range d.Players {
		d.Players[i].Normalize()
	}
}

// NextPlayerID returns max(existing ids)+1, or 1 for an empty roster.
func (d *Document) NextPlayerID() int {
	maxID := 0
	for _, p := range d.Players {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	return maxID + 1
}

// NumberTaken reports whether jersey number n is already held, as current or
// requested number, by a player other than excludeID. A player keeping the
// same value in both of its own fields is not a conflict.
func (d *Document) NumberTaken(n int, excludeID int) bool {
	for i := range d.Players {
		p := &d.Players[i]
		if p.ID == excludeID {
			continue
		}
		if p.HoldsNumber(n) {
			return true
		}
	}
	return false
}

// ConflictingNumber scans players pairwise and returns the first jersey
// number claimed by two different ids, current and requested fields counted
// together.
func ConflictingNumber(players []Player) (int, bool) {
	owner := make(map[int]int, len(players))
	for _, p := range players {
		for _, n := range []*int{p.NumberCurrent, p.NumberNew} {
			if n == nil {
				continue
			}
			if prev, ok := owner[*n]; ok && prev != p.ID {
				return *n, true
			}
			owner[*n] = p.ID
		}
	}
	return 0, false
}

// SortedByGoals returns the players ordered for the summary table, top
// scorers first. The document's own order is left untouched.
func (d *Document) SortedByGoals() []Player {
	out := make([]Player, len(d.Players))
	copy(out, d.Players)
	sort.SliceStable(out, func(i, j int) bool {
		var gi, gj int
		if out[i].Stats != nil {
			gi = out[i].Stats.Goals
		}
		if out[j].Stats != nil {
			gj = out[j].Stats.Goals
		}
		return gi > gj
	})
	return out
}
