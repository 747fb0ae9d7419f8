package models

// Position codes a player card can carry. The set is fixed; an empty
// position means "not assigned yet".
var Positions = []string{"POR", "DFC", "LTD", "LTI", "MCD", "MC", "MCO", "ED", "EI", "DC"}

func ValidPosition(code string) bool {
	for _, p := range Positions {
		if p == code {
			return true
		}
	}
	return false
}

// Stats keeps the Spanish wire keys the original deployment persisted,
// so documents written by older versions keep loading.
type Stats struct {
	Goals   int `json:"goles"`
	Matches int `json:"partidos"`
	Assists int `json:"asistencias"`
}

type Player struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Position      string `json:"position"`
	Skill         string `json:"skill"`
	NumberCurrent *int   `json:"number_current"`
	NumberNew     *int   `json:"number_new"`
	IsExpelled    bool   `json:"isExpelled"`
	Stats         *Stats `json:"stats,omitempty"`
}

// Normalize fills the optional fields older document variants omit.
// Every ingestion path (create, bulk replace, legacy load) goes through it.
func (p *Player) Normalize() {
	if p.Stats == nil {
		p.Stats = &Stats{}
	}
}

// HoldsNumber reports whether n is one of the player's own jersey numbers.
func (p *Player) HoldsNumber(n int) bool {
	if p.NumberCurrent != nil && *p.NumberCurrent == n {
		return true
	}
	if p.NumberNew != nil && *p.NumberNew == n {
		return true
	}
	return false
}

// Number is a convenience for building the seed roster and test fixtures.
func Number(n int) *int {
	return &n
}
