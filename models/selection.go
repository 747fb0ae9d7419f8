package models

// Selection is one entry of the append-only jersey-number request log.
// Entries are created on submission and never updated or deleted; whether
// the player record itself changed is tracked on the Player, not here.
type Selection struct {
	ID         int64  `json:"id"`
	PlayerID   int    `json:"playerId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	Number     int    `json:"number"`
	Date       string `json:"date"`
}
