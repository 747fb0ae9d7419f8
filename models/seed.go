package models

// DefaultDocument is the roster the service persists on first access to an
// empty store. The names and numbers match the original deployment so a
// fresh environment renders the familiar squad.
func DefaultDocument() *Document {
	players := []Player{
		{ID: 1, Name: "Saul", Position: "MC", Skill: "Lectura de Juego", NumberCurrent: Number(5)},
		{ID: 2, Name: "Enrique", Position: "DC", Skill: "Tiro", NumberCurrent: Number(11), NumberNew: Number(7)},
		{ID: 3, Name: "Eleonor", Position: "MCO", Skill: "Pase Clave", NumberCurrent: Number(10), IsExpelled: true},
		{ID: 4, Name: "Masias", Position: "DFC", Skill: "Entradas", NumberCurrent: Number(4)},
		{ID: 5, Name: "Angel Cueto", Position: "ED", Skill: "Velocidad", NumberCurrent: Number(77)},
		{ID: 6, Name: "Pineda", Position: "DC", Skill: "Cabezazo", NumberCurrent: Number(9)},
		{ID: 7, Name: "Kevin", Position: "LTD", Skill: "Resistencia", NumberNew: Number(17)},
		{ID: 8, Name: "Brandito", Position: "DFC", Skill: "Fuerza", NumberCurrent: Number(47)},
		{ID: 9, Name: "Iam", Position: "MCD", Skill: "Recuperación", NumberCurrent: Number(20)},
		{ID: 10, Name: "Jeshua", Position: "POR", Skill: "Reflejos", NumberCurrent: Number(1)},
		{ID: 11, Name: "Oliver", Position: "MC", Skill: "Visión", NumberCurrent: Number(8)},
		{ID: 12, Name: "Roger", Position: "EI", Skill: "Regate", NumberNew: Number(22)},
		{ID: 13, Name: "Sinue", Position: "LTI", Skill: "Centros"},
	}

	doc := &Document{
		Players:      players,
		Applications: []Application{},
		Selections:   []Selection{},
	}
	doc.Normalize()
	return doc
}
