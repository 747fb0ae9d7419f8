package models

// Application is a pending "join the team" request. It is never mutated in
// place: approval converts it into a Player and removes it, rejection just
// removes it. The id is the ingestion timestamp in unix milliseconds.
type Application struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Number   string `json:"number,omitempty"`
	Position string `json:"position,omitempty"`
	Skill    string `json:"skill,omitempty"`
}
